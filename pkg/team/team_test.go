package team

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func players(ratings ...int) []Player {
	out := make([]Player, len(ratings))
	for i, r := range ratings {
		out[i] = Player{UserID: fmt.Sprintf("%d", i+1), Name: fmt.Sprintf("p%d#1", i+1), MMR: r}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func assertExhaustive(t *testing.T, queue []Player, teams Teams) {
	t.Helper()
	seen := map[string]int{}
	for _, p := range teams.Team1 {
		seen[p.UserID]++
	}
	for _, p := range teams.Team2 {
		seen[p.UserID]++
	}
	require.Len(t, seen, len(queue))
	for _, p := range queue {
		assert.Equal(t, 1, seen[p.UserID], "player %s should be on exactly one team", p.UserID)
	}
}

func TestBalanced_TenMans(t *testing.T) {
	queue := players(1200, 1100, 1000, 1000, 1000, 1000, 900, 900, 800, 800)
	teams, err := Balanced{}.Form(queue)
	require.NoError(t, err)

	assertExhaustive(t, queue, teams)
	assert.Equal(t, 4900, Sum(teams.Team1))
	assert.Equal(t, 4800, Sum(teams.Team2))
	assert.Equal(t, "1", teams.Team1[0].UserID, "highest rated player starts team 1")
	assert.Equal(t, "2", teams.Team2[0].UserID)
	assert.LessOrEqual(t, abs(Sum(teams.Team1)-Sum(teams.Team2)), 800)
}

func TestBalanced_TiesFavorTeamOne(t *testing.T) {
	teams, err := Balanced{}.Form(players(1000, 1000, 1000))
	require.NoError(t, err)
	assert.Len(t, teams.Team1, 2)
	assert.Len(t, teams.Team2, 1)
}

func TestBalanced_TooFew(t *testing.T) {
	_, err := Balanced{}.Form(players(1000))
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)
}

// bruteForceDiff is the smallest achievable difference over every two-way split.
func bruteForceDiff(queue []Player) int {
	best := -1
	n := len(queue)
	for mask := 0; mask < 1<<n; mask++ {
		a, b := 0, 0
		for i, p := range queue {
			if mask&(1<<i) != 0 {
				a += p.MMR
			} else {
				b += p.MMR
			}
		}
		if d := abs(a - b); best < 0 || d < best {
			best = d
		}
	}
	return best
}

func TestBalanced_AgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 2; n <= 8; n++ {
		for trial := 0; trial < 200; trial++ {
			ratings := make([]int, n)
			maxRating := 0
			for i := range ratings {
				ratings[i] = 500 + rng.Intn(1500)
				if ratings[i] > maxRating {
					maxRating = ratings[i]
				}
			}
			queue := players(ratings...)
			teams, err := Balanced{}.Form(queue)
			require.NoError(t, err)
			assertExhaustive(t, queue, teams)

			greedy := abs(Sum(teams.Team1) - Sum(teams.Team2))
			optimal := bruteForceDiff(queue)
			assert.GreaterOrEqual(t, greedy, optimal)
			assert.LessOrEqual(t, greedy, optimal+maxRating, "ratings %v", ratings)
			assert.LessOrEqual(t, greedy, maxRating, "ratings %v", ratings)
		}
	}
}

func TestPickCaptains(t *testing.T) {
	queue := players(1500, 1400, 1300, 1200, 1100, 100, 100, 100, 100, 100)
	rng := rand.New(rand.NewSource(3))
	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		c1, c2, err := PickCaptains(queue, rng)
		require.NoError(t, err)
		require.NotEqual(t, c1.UserID, c2.UserID)
		assert.GreaterOrEqual(t, c1.MMR, 1100, "captains come from the top five")
		assert.GreaterOrEqual(t, c2.MMR, 1100, "captains come from the top five")
		counts[c1.UserID]++
	}
	assert.Greater(t, counts["1"], counts["5"], "the highest rated player is the most likely first captain")
}

func TestPickCaptains_TwoPlayers(t *testing.T) {
	c1, c2, err := PickCaptains(players(1000, 900), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.NotEqual(t, c1.UserID, c2.UserID)
}

func TestPickOrder(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "a", "b", "b", "a", "a", "b"}, PickOrder("a", "b", false))
	assert.Equal(t, []string{"a", "b", "b", "a", "a", "b", "b", "a"}, PickOrder("a", "b", true))
}

func TestDraft_FullTenMans(t *testing.T) {
	queue := players(1500, 1400, 1300, 1200, 1100, 1000, 900, 800, 700, 600)
	d, err := NewDraft(queue, queue[0], queue[1], DefaultTeamCap)
	require.NoError(t, err)

	assert.Equal(t, PickStyleNotChosen, d.Pick("2", "3"))
	assert.Equal(t, StyleNotSecondCaptain, d.SetStyle("1", true))
	assert.Equal(t, StyleAccepted, d.SetStyle("2", false))
	assert.Equal(t, StyleAlreadyChosen, d.SetStyle("2", true))

	assert.Equal(t, "2", d.Current())
	assert.Equal(t, PickNotYourTurn, d.Pick("1", "3"))
	assert.Equal(t, PickUnavailable, d.Pick("2", "1"), "captains are not in the pool")
	assert.Equal(t, PickUnavailable, d.Pick("2", "99"))

	for !d.Done() {
		cur := d.Current()
		pool := d.Pool()
		require.NotEmpty(t, pool)
		require.Equal(t, PickAccepted, d.Pick(cur, pool[0].UserID))
	}
	assert.Equal(t, PickDraftOver, d.Pick("1", "3"))

	teams := d.Finish()
	assertExhaustive(t, queue, teams)
	assert.Len(t, teams.Team1, 5)
	assert.Len(t, teams.Team2, 5)
	assert.Equal(t, "1", teams.Team1[0].UserID)
	assert.Equal(t, "2", teams.Team2[0].UserID)
}

func TestDraft_AlreadyPicked(t *testing.T) {
	queue := players(1500, 1400, 1300, 1200, 1100, 1000)
	d, err := NewDraft(queue, queue[0], queue[1], 3)
	require.NoError(t, err)
	require.Equal(t, StyleAccepted, d.SetStyle("2", true))

	require.Equal(t, PickAccepted, d.Pick("1", "3"))
	assert.Equal(t, "2", d.Current())
	assert.Equal(t, PickUnavailable, d.Pick("2", "3"))
}

func TestDraft_CapSkipsFullTeam(t *testing.T) {
	// TDM: a 6 player queue with 3 player teams
	queue := players(1500, 1400, 1300, 1200, 1100, 1000)
	d, err := NewDraft(queue, queue[0], queue[1], 3)
	require.NoError(t, err)
	require.Equal(t, StyleAccepted, d.SetStyle("2", false))

	// order is c2, c1, c1, c2
	require.Equal(t, PickAccepted, d.Pick("2", "3"))
	require.Equal(t, PickAccepted, d.Pick("1", "4"))
	require.Equal(t, PickAccepted, d.Pick("1", "5"))
	assert.Equal(t, "2", d.Current())
	require.Equal(t, PickAccepted, d.Pick("2", "6"))
	assert.True(t, d.Done())

	teams := d.Finish()
	assertExhaustive(t, queue, teams)
	assert.Len(t, teams.Team1, 3)
	assert.Len(t, teams.Team2, 3)
}

func TestDraft_LeftoversGoToSmallerTeam(t *testing.T) {
	queue := players(1500, 1400, 1300, 1200, 1100)
	d, err := NewDraft(queue, queue[0], queue[1], DefaultTeamCap)
	require.NoError(t, err)
	require.Equal(t, StyleAccepted, d.SetStyle("2", false))
	require.Equal(t, PickAccepted, d.Pick("2", "3"))

	teams := d.Finish()
	assertExhaustive(t, queue, teams)
	// team 2 has two after the pick, so both leftovers start with team 1
	assert.Len(t, teams.Team1, 3)
	assert.Len(t, teams.Team2, 2)
}

func TestNewDraft_SameCaptain(t *testing.T) {
	queue := players(1000, 900)
	_, err := NewDraft(queue, queue[0], queue[0], 5)
	assert.ErrorIs(t, err, ErrSameCaptain)
}
