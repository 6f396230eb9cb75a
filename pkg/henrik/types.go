package henrik

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type AccountResponse struct {
	Status int     `json:"status"`
	Data   Account `json:"data"`
}

type Account struct {
	PUUID        string `json:"puuid"`
	Region       string `json:"region"`
	AccountLevel int    `json:"account_level"`
	Name         string `json:"name"`
	Tag          string `json:"tag"`
	Card         string `json:"card"`
	UpdatedAt    string `json:"updated_at"`
}

type MatchesResponse struct {
	Status int               `json:"status"`
	Data   []json.RawMessage `json:"data"`
}

type Match struct {
	Metadata Metadata          `json:"metadata"`
	Players  []Player          `json:"players"`
	Teams    []Team            `json:"teams"`
	Rounds   []json.RawMessage `json:"rounds"`
}

type Metadata struct {
	MatchID      string  `json:"match_id"`
	Map          MapName `json:"map"`
	StartedAt    string  `json:"started_at"`
	Region       string  `json:"region"`
	RoundsPlayed int     `json:"rounds_played"`
	TotalRounds  int     `json:"total_rounds"`
}

type Player struct {
	PUUID  string      `json:"puuid"`
	Name   string      `json:"name"`
	Tag    string      `json:"tag"`
	TeamID string      `json:"team_id"`
	Stats  PlayerStats `json:"stats"`
}

type PlayerStats struct {
	Score   int `json:"score"`
	Kills   int `json:"kills"`
	Deaths  int `json:"deaths"`
	Assists int `json:"assists"`
}

type Team struct {
	TeamID    string  `json:"team_id"`
	Won       bool    `json:"won"`
	Rounds    *Rounds `json:"rounds"`
	RoundsWon *Rounds `json:"rounds_won"`
}

// RoundsWonCount prefers rounds_won over rounds when both are present.
func (t Team) RoundsWonCount() int {
	if t.RoundsWon != nil {
		return int(*t.RoundsWon)
	}
	if t.Rounds != nil {
		return int(*t.Rounds)
	}
	return 0
}

func (m *Match) TotalRounds() int {
	if m.Metadata.RoundsPlayed > 0 {
		return m.Metadata.RoundsPlayed
	}
	if m.Metadata.TotalRounds > 0 {
		return m.Metadata.TotalRounds
	}
	return len(m.Rounds)
}

// WinningTeam is the lowercase team id flagged as won, or "".
func (m *Match) WinningTeam() string {
	for _, t := range m.Teams {
		if t.Won {
			return strings.ToLower(t.TeamID)
		}
	}
	return ""
}

// MapName decodes metadata.map given either as a bare string or as {"id", "name"}.
type MapName string

func (n *MapName) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = MapName(s)
		return nil
	}
	var obj struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*n = MapName(obj.Name)
	return nil
}

var roundKeys = []string{"won", "w", "value", "wins", "count"}

// Rounds is a rounds-won count that the API may send as a number, an object or a list.
// Anything it cannot read becomes 0.
type Rounds int

func (r *Rounds) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		*r = 0
		return nil
	}
	*r = Rounds(coerceRounds(raw))
	return nil
}

func coerceRounds(v interface{}) int {
	switch val := v.(type) {
	case map[string]interface{}:
		for _, k := range roundKeys {
			if n, ok := scalarInt(val[k]); ok {
				return n
			}
		}
		best, found := 0.0, false
		for _, x := range val {
			if f, ok := x.(float64); ok && (!found || f > best) {
				best, found = f, true
			}
		}
		if found {
			return int(best)
		}
		return 0
	case []interface{}:
		if len(val) == 0 {
			return 0
		}
		n, _ := scalarInt(val[0])
		return n
	default:
		n, _ := scalarInt(val)
		return n
	}
}

func scalarInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return int(val), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		return n, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
