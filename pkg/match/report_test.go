package match

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenmans/tenmans/pkg/henrik"
	"github.com/tenmans/tenmans/pkg/rating"
	"github.com/tenmans/tenmans/pkg/team"
)

const threeVsThree = `{
  "metadata": {"map": {"id": "x", "name": "Split"}, "rounds_played": 24},
  "players": [
    {"name": "Alpha", "tag": "NA1", "team_id": "Red", "stats": {"score": 5000, "kills": 22, "deaths": 14, "assists": 3}},
    {"name": "Bravo", "tag": "NA1", "team_id": "Red", "stats": {"score": 4000, "kills": 18, "deaths": 16, "assists": 6}},
    {"name": "Charlie", "tag": "NA1", "team_id": "Red", "stats": {"score": 3000, "kills": 12, "deaths": 17, "assists": 9}},
    {"name": "Delta", "tag": "EUW", "team_id": "Blue", "stats": {"score": 4500, "kills": 20, "deaths": 18, "assists": 2}},
    {"name": "Echo", "tag": "EUW", "team_id": "Blue", "stats": {"score": 3500, "kills": 15, "deaths": 19, "assists": 5}},
    {"name": "Foxtrot", "tag": "EUW", "team_id": "Blue", "stats": {"score": 2500, "kills": 10, "deaths": 17, "assists": 7}}
  ],
  "teams": [
    {"team_id": "Red", "won": true, "rounds_won": {"won": 13, "lost": 11}},
    {"team_id": "Blue", "won": false, "rounds_won": [11]}
  ]
}`

func decodeMatch(t *testing.T, raw string) *henrik.Match {
	var m henrik.Match
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return &m
}

func sessionTeams() team.Teams {
	return team.Teams{
		Team1: []team.Player{
			{UserID: "1", Name: "alpha#na1", MMR: 1100},
			{UserID: "2", Name: "bravo#na1", MMR: 1000},
			{UserID: "3", Name: "Charlie#NA1", MMR: 900},
		},
		Team2: []team.Player{
			{UserID: "4", Name: "delta#euw", MMR: 1050},
			{UserID: "5", Name: "echo#euw", MMR: 1000},
			{UserID: "6", Name: "foxtrot#euw", MMR: 950},
		},
	}
}

func TestResolve_RoundDifferentialAndWinner(t *testing.T) {
	res, err := Resolve(sessionTeams(), "split", decodeMatch(t, threeVsThree))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Winner)
	assert.Equal(t, "red", res.Team1Side)
	assert.Equal(t, "blue", res.Team2Side)
	assert.Equal(t, 13, res.Team1Rounds)
	assert.Equal(t, 11, res.Team2Rounds)
	assert.Equal(t, 2, res.RoundDifferential)
	assert.Equal(t, 24, res.TotalRounds)
}

func TestResolve_TeamsSwappedSides(t *testing.T) {
	teams := sessionTeams()
	teams.Team1, teams.Team2 = teams.Team2, teams.Team1

	res, err := Resolve(teams, "Split", decodeMatch(t, threeVsThree))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Winner)
	assert.Equal(t, "blue", res.Team1Side)
}

func TestResolve_WrongMap(t *testing.T) {
	_, err := Resolve(sessionTeams(), "bind", decodeMatch(t, threeVsThree))
	var mapErr *MapMismatchError
	require.ErrorAs(t, err, &mapErr)
	assert.Equal(t, "match was played on Split but the session selected Bind", err.Error())
}

func TestResolve_AmbiguousTeams(t *testing.T) {
	teams := sessionTeams()
	// a drafted team that straddles both sides of the real match
	teams.Team1[2], teams.Team2[2] = teams.Team2[2], teams.Team1[2]

	_, err := Resolve(teams, "split", decodeMatch(t, threeVsThree))
	assert.ErrorIs(t, err, ErrAmbiguousTeams)
}

func TestResolve_NoWinner(t *testing.T) {
	m := decodeMatch(t, threeVsThree)
	m.Teams[0].Won = false

	_, err := Resolve(sessionTeams(), "split", m)
	assert.ErrorIs(t, err, ErrNoWinner)
}

func TestResolve_NilMatch(t *testing.T) {
	_, err := Resolve(sessionTeams(), "split", nil)
	assert.ErrorIs(t, err, henrik.ErrNoMatches)
}

func TestEntries(t *testing.T) {
	teams := sessionTeams()
	m := decodeMatch(t, threeVsThree)
	res, err := Resolve(teams, "split", m)
	require.NoError(t, err)

	entries := Entries(teams, res, m)
	require.Len(t, entries, 6)

	first := entries[0]
	assert.Equal(t, "alpha#na1", first.Identity.String())
	assert.Equal(t, 5000, first.Stats.Score)
	assert.Equal(t, rating.Win, first.Adjustment.Outcome)
	assert.Equal(t, 3000, first.Adjustment.TeamRatingSum)
	assert.Equal(t, 3000, first.Adjustment.OpponentRatingSum)
	assert.Equal(t, 2, first.Adjustment.RoundDifferential)

	last := entries[5]
	assert.Equal(t, "foxtrot#euw", last.Identity.String())
	assert.Equal(t, rating.Loss, last.Adjustment.Outcome)
	assert.Equal(t, 3, last.Adjustment.OpponentSize)
}

func TestParseRiotID(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Alpha#NA1", "alpha#na1", true},
		{"  spaced name #tag ", "spaced name#tag", true},
		{"has#hash#EUW", "has#hash#euw", true},
		{"nohash", "", false},
		{"#tag", "", false},
		{"name#", "", false},
		{" #  ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id, ok := ParseRiotID(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, id.String())
			}
		})
	}
}
