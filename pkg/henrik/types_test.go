package henrik

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRounds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"int", `13`, 13},
		{"float", `11.0`, 11},
		{"string", `"7"`, 7},
		{"won key", `{"won": 13, "lost": 11}`, 13},
		{"w key", `{"w": 9}`, 9},
		{"wins key", `{"wins": "4"}`, 4},
		{"max fallback", `{"a": 3, "b": 8}`, 8},
		{"empty object", `{}`, 0},
		{"list", `[12, 3]`, 12},
		{"empty list", `[]`, 0},
		{"garbage", `"abc"`, 0},
		{"null", `null`, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var r Rounds
			require.NoError(t, json.Unmarshal([]byte(test.raw), &r))
			assert.Equal(t, test.want, int(r))
		})
	}
}

func TestTeam_PrefersRoundsWon(t *testing.T) {
	var team Team
	require.NoError(t, json.Unmarshal([]byte(`{"team_id":"Red","won":true,"rounds_won":13,"rounds":{"won":2}}`), &team))
	assert.Equal(t, 13, team.RoundsWonCount())
	assert.Equal(t, 0, Team{}.RoundsWonCount())
}

func TestMapName(t *testing.T) {
	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(`{"map":"Bind"}`), &meta))
	assert.Equal(t, MapName("Bind"), meta.Map)

	require.NoError(t, json.Unmarshal([]byte(`{"map":{"id":"2c9d","name":"Ice Box"}}`), &meta))
	assert.Equal(t, MapName("Ice Box"), meta.Map)

	meta = Metadata{}
	require.NoError(t, json.Unmarshal([]byte(`{"map":null}`), &meta))
	assert.Equal(t, MapName(""), meta.Map)
}

func TestTotalRounds(t *testing.T) {
	m := Match{Metadata: Metadata{RoundsPlayed: 24, TotalRounds: 20}, Rounds: make([]json.RawMessage, 3)}
	assert.Equal(t, 24, m.TotalRounds())
	m.Metadata.RoundsPlayed = 0
	assert.Equal(t, 20, m.TotalRounds())
	m.Metadata.TotalRounds = 0
	assert.Equal(t, 3, m.TotalRounds())
}
