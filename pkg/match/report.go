package match

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/henrik"
	"github.com/tenmans/tenmans/pkg/ledger"
	"github.com/tenmans/tenmans/pkg/rating"
	"github.com/tenmans/tenmans/pkg/team"
)

var (
	ErrAmbiguousTeams = errors.New("the teams in the match do not line up with the drafted teams")
	ErrNoWinner       = errors.New("the match has no winning team")
)

// MapMismatchError is returned when the reported match was played on a different map than the one voted.
type MapMismatchError struct {
	Expected string
	Played   string
}

func (e *MapMismatchError) Error() string {
	return fmt.Sprintf("match was played on %s but the session selected %s",
		game.DisplayMapName(e.Played), game.DisplayMapName(e.Expected))
}

// MismatchError lists the queued identities that were not found in the reported match.
type MismatchError struct {
	Missing []string
}

func (e *MismatchError) Error() string {
	return "queued players missing from the reported match: " + strings.Join(e.Missing, ", ")
}

// FetchError wraps a failure to load the reporter's latest match. The session is left untouched.
type FetchError struct {
	RiotID string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch latest match for %s: %v", e.RiotID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Resolution is what a reported match means for the session's two teams.
type Resolution struct {
	// Winner is 1 or 2
	Winner            int
	Team1Side         string
	Team2Side         string
	Team1Rounds       int
	Team2Rounds       int
	RoundDifferential int
	TotalRounds       int
}

// ParseRiotID splits on the last '#' and normalizes both halves.
func ParseRiotID(riotID string) (ledger.Identity, bool) {
	i := strings.LastIndex(riotID, "#")
	if i <= 0 || i == len(riotID)-1 {
		return ledger.Identity{}, false
	}
	id := ledger.NewIdentity(riotID[:i], riotID[i+1:])
	if id.Name == "" || id.Tag == "" {
		return ledger.Identity{}, false
	}
	return id, true
}

func playerKey(p team.Player) string {
	if id, ok := ParseRiotID(p.Name); ok {
		return id.String()
	}
	return strings.ToLower(strings.TrimSpace(p.Name))
}

func matchPlayers(m *henrik.Match) map[string]henrik.Player {
	players := make(map[string]henrik.Player, len(m.Players))
	for _, p := range m.Players {
		players[ledger.NewIdentity(p.Name, p.Tag).String()] = p
	}
	return players
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func keySet(players []team.Player) map[string]struct{} {
	set := make(map[string]struct{}, len(players))
	for _, p := range players {
		set[playerKey(p)] = struct{}{}
	}
	return set
}

// Resolve validates a fetched match against the session and maps its winner onto team 1 or team 2.
// It has no side effects.
func Resolve(teams team.Teams, selectedMap string, m *henrik.Match) (*Resolution, error) {
	if m == nil {
		return nil, henrik.ErrNoMatches
	}
	if !game.SameMap(selectedMap, string(m.Metadata.Map)) {
		return nil, &MapMismatchError{Expected: selectedMap, Played: string(m.Metadata.Map)}
	}

	players := matchPlayers(m)
	var missing []string
	queued := append(append([]team.Player{}, teams.Team1...), teams.Team2...)
	for _, p := range queued {
		if _, ok := players[playerKey(p)]; !ok {
			missing = append(missing, playerKey(p))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MismatchError{Missing: missing}
	}

	sides := map[string]map[string]struct{}{}
	for key, p := range players {
		side := strings.ToLower(p.TeamID)
		if sides[side] == nil {
			sides[side] = map[string]struct{}{}
		}
		sides[side][key] = struct{}{}
	}
	team1, team2 := keySet(teams.Team1), keySet(teams.Team2)
	res := Resolution{}
	for side, members := range sides {
		switch {
		case sameSet(members, team1):
			res.Team1Side = side
		case sameSet(members, team2):
			res.Team2Side = side
		}
	}
	if res.Team1Side == "" || res.Team2Side == "" || res.Team1Side == res.Team2Side {
		return nil, ErrAmbiguousTeams
	}

	switch m.WinningTeam() {
	case res.Team1Side:
		res.Winner = 1
	case res.Team2Side:
		res.Winner = 2
	default:
		return nil, ErrNoWinner
	}

	for _, t := range m.Teams {
		switch strings.ToLower(t.TeamID) {
		case res.Team1Side:
			res.Team1Rounds = t.RoundsWonCount()
		case res.Team2Side:
			res.Team2Rounds = t.RoundsWonCount()
		}
	}
	res.RoundDifferential = res.Team1Rounds - res.Team2Rounds
	if res.RoundDifferential < 0 {
		res.RoundDifferential = -res.RoundDifferential
	}
	res.TotalRounds = m.TotalRounds()
	if res.TotalRounds == 0 {
		res.TotalRounds = res.Team1Rounds + res.Team2Rounds
	}
	return &res, nil
}

// Entries builds one ledger entry per queued player. Team sums come from the ratings held when teams were formed.
func Entries(teams team.Teams, res *Resolution, m *henrik.Match) []ledger.Entry {
	players := matchPlayers(m)
	sum1, sum2 := team.Sum(teams.Team1), team.Sum(teams.Team2)

	build := func(members []team.Player, won bool, own, opp, ownSize, oppSize int) []ledger.Entry {
		outcome := rating.Loss
		if won {
			outcome = rating.Win
		}
		entries := make([]ledger.Entry, 0, len(members))
		for _, p := range members {
			mp := players[playerKey(p)]
			entries = append(entries, ledger.Entry{
				Identity: ledger.NewIdentity(mp.Name, mp.Tag),
				Stats: ledger.RoundStats{
					Score:   mp.Stats.Score,
					Kills:   mp.Stats.Kills,
					Deaths:  mp.Stats.Deaths,
					Assists: mp.Stats.Assists,
				},
				Adjustment: &ledger.Adjustment{
					Outcome:           outcome,
					TeamRatingSum:     own,
					OpponentRatingSum: opp,
					TeamSize:          ownSize,
					OpponentSize:      oppSize,
					RoundDifferential: res.RoundDifferential,
				},
			})
		}
		return entries
	}

	entries := build(teams.Team1, res.Winner == 1, sum1, sum2, len(teams.Team1), len(teams.Team2))
	return append(entries, build(teams.Team2, res.Winner == 2, sum2, sum1, len(teams.Team2), len(teams.Team1))...)
}
