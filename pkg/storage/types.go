package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DefaultMMR = 1000

type PostgresIdentity struct {
	UserID   uint64    `db:"user_id"`
	Name     string    `db:"name"`
	Tag      string    `db:"tag"`
	PUUID    string    `db:"puuid"`
	LinkedAt time.Time `db:"linked_at"`
}

func (i *PostgresIdentity) RiotID() string {
	return i.Name + "#" + i.Tag
}

type PostgresRating struct {
	UserID             uint64    `db:"user_id"`
	Mode               string    `db:"mode"`
	Name               string    `db:"name"`
	MMR                int       `db:"mmr"`
	Wins               int       `db:"wins"`
	Losses             int       `db:"losses"`
	MatchesPlayed      int       `db:"matches_played"`
	TotalRoundsPlayed  int       `db:"total_rounds_played"`
	TotalCombatScore   int       `db:"total_combat_score"`
	TotalKills         int       `db:"total_kills"`
	TotalDeaths        int       `db:"total_deaths"`
	AverageCombatScore float64   `db:"average_combat_score"`
	KillDeathRatio     float64   `db:"kill_death_ratio"`
	AvgKills           float64   `db:"avg_kills"`
	PerformanceHistory []float64 `db:"performance_history"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// NewRating is the record a player starts with in a mode.
func NewRating(userID uint64, mode string) *PostgresRating {
	return &PostgresRating{
		UserID:             userID,
		Mode:               mode,
		MMR:                DefaultMMR,
		PerformanceHistory: []float64{},
	}
}

func (r *PostgresRating) WinRate() float64 {
	total := r.Wins + r.Losses
	if total == 0 {
		return 0
	}
	return float64(r.Wins) / float64(total) * 100
}

func RatingsToCSV(r []*PostgresRating) string {
	s := bytes.NewBufferString("user_id,mode,name,mmr,wins,losses,matches_played,total_rounds_played,average_combat_score,kill_death_ratio,\n")
	for _, v := range r {
		if v != nil {
			s.WriteString(fmt.Sprintf("%d,%s,%s,%d,%d,%d,%d,%d,%.2f,%.2f,\n",
				v.UserID, v.Mode, strings.ReplaceAll(v.Name, ",", ""), v.MMR, v.Wins, v.Losses,
				v.MatchesPlayed, v.TotalRoundsPlayed, v.AverageCombatScore, v.KillDeathRatio))
		}
	}
	return s.String()
}

const CurrentSeasonID = "current"

type LastSeason struct {
	SeasonNumber   int        `json:"season_number"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        time.Time  `json:"ended_at"`
	WinnerPlayerID *uint64    `json:"winner_player_id"`
	WinnerName     string     `json:"winner_name"`
	WinnerMMR      int        `json:"winner_mmr"`
	MatchesPlayed  int        `json:"matches_played"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
}

type PostgresSeason struct {
	ID                string     `db:"id"`
	SeasonNumber      int        `db:"season_number"`
	StartedAt         time.Time  `db:"started_at"`
	ResetPeriodMonths int        `db:"reset_period_months"`
	IsClosed          bool       `db:"is_closed"`
	MatchesPlayed     int        `db:"matches_played"`
	EndedAt           *time.Time `db:"ended_at"`
	LastSeason        []byte     `db:"last_season"`
}

func (s *PostgresSeason) GetLastSeason() (*LastSeason, error) {
	if len(s.LastSeason) == 0 {
		return nil, nil
	}
	var ls LastSeason
	if err := json.Unmarshal(s.LastSeason, &ls); err != nil {
		return nil, err
	}
	return &ls, nil
}

func (s *PostgresSeason) SetLastSeason(ls *LastSeason) error {
	if ls == nil {
		s.LastSeason = nil
		return nil
	}
	b, err := json.Marshal(ls)
	if err != nil {
		return err
	}
	s.LastSeason = b
	return nil
}

type PostgresMatch struct {
	MatchID      string    `db:"match_id"`
	SessionID    string    `db:"session_id"`
	MatchName    string    `db:"match_name"`
	Mode         string    `db:"mode"`
	MapName      string    `db:"map"`
	SeasonNumber int       `db:"season_number"`
	ReporterID   uint64    `db:"reporter_id"`
	ReportedAt   time.Time `db:"reported_at"`
	Payload      []byte    `db:"payload"`
}
