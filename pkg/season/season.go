package season

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/storage"
)

const (
	DefaultPeriodMonths = 2
	NoPlayersName       = "No players"
)

type Store interface {
	GetSeason(ctx context.Context) (*storage.PostgresSeason, error)
	SaveSeason(ctx context.Context, s *storage.PostgresSeason) error
	IncrementSeasonMatches(ctx context.Context) error
	TopRating(ctx context.Context, mode game.Mode) (*storage.PostgresRating, error)
	GetIdentity(ctx context.Context, userID string) (*storage.PostgresIdentity, error)
	ResetAllRatings(ctx context.Context) error
}

type Transition struct {
	Closed storage.LastSeason
	Opened *storage.PostgresSeason
}

type Manager struct {
	store        Store
	periodMonths int
}

func NewManager(store Store, periodMonths int) *Manager {
	if periodMonths <= 0 {
		periodMonths = DefaultPeriodMonths
	}
	return &Manager{
		store:        store,
		periodMonths: periodMonths,
	}
}

// AddMonths moves t forward by calendar months, clamping the day to the length of the target month.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	year, month := first.Year(), first.Month()
	if last := daysIn(year, month, t.Location()); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(year, month, d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func End(s *storage.PostgresSeason) time.Time {
	months := s.ResetPeriodMonths
	if months <= 0 {
		months = DefaultPeriodMonths
	}
	return AddMonths(s.StartedAt.UTC(), months)
}

func (m *Manager) newSeason(number int, now time.Time) *storage.PostgresSeason {
	return &storage.PostgresSeason{
		ID:                storage.CurrentSeasonID,
		SeasonNumber:      number,
		StartedAt:         now.UTC(),
		ResetPeriodMonths: m.periodMonths,
	}
}

// Current returns the open season, creating season 1 on first use.
func (m *Manager) Current(ctx context.Context, now time.Time) (*storage.PostgresSeason, error) {
	s, err := m.store.GetSeason(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		s = m.newSeason(1, now)
		if err := m.store.SaveSeason(ctx, s); err != nil {
			return nil, err
		}
		log.Info().Int("season", s.SeasonNumber).Msg("created initial season")
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = now.UTC()
		s.IsClosed = false
		if err := m.store.SaveSeason(ctx, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (m *Manager) RecordMatch(ctx context.Context) error {
	return m.store.IncrementSeasonMatches(ctx)
}

func (m *Manager) winner(ctx context.Context) (*uint64, string, int, error) {
	top, err := m.store.TopRating(ctx, game.Standard)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, NoPlayersName, 0, nil
	} else if err != nil {
		return nil, "", 0, err
	}
	id := top.UserID
	name := top.Name
	ident, err := m.store.GetIdentity(ctx, strconv.FormatUint(top.UserID, 10))
	if err == nil {
		name = ident.RiotID()
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, "", 0, err
	}
	if name == "" {
		name = "Unknown"
	}
	return &id, name, top.MMR, nil
}

// CheckAndRoll closes the season and opens the next one once its end has passed. It returns nil when nothing changed.
func (m *Manager) CheckAndRoll(ctx context.Context, now time.Time) (*Transition, error) {
	cur, err := m.Current(ctx, now)
	if err != nil {
		return nil, err
	}
	now = now.UTC()
	if cur.IsClosed || now.Before(End(cur)) {
		return nil, nil
	}

	winnerID, winnerName, winnerMMR, err := m.winner(ctx)
	if err != nil {
		return nil, err
	}
	closed := storage.LastSeason{
		SeasonNumber:   cur.SeasonNumber,
		StartedAt:      cur.StartedAt.UTC(),
		EndedAt:        now,
		WinnerPlayerID: winnerID,
		WinnerName:     winnerName,
		WinnerMMR:      winnerMMR,
		MatchesPlayed:  cur.MatchesPlayed,
	}

	// the closed season survives only as the snapshot on its successor, so the rollover is a single write
	next := m.newSeason(cur.SeasonNumber+1, now)
	next.ResetPeriodMonths = cur.ResetPeriodMonths
	if next.ResetPeriodMonths <= 0 {
		next.ResetPeriodMonths = m.periodMonths
	}
	if err := next.SetLastSeason(&closed); err != nil {
		return nil, err
	}
	if err := m.store.SaveSeason(ctx, next); err != nil {
		return nil, err
	}
	log.Info().
		Int("closed", closed.SeasonNumber).
		Int("opened", next.SeasonNumber).
		Str("winner", winnerName).
		Int("winner_mmr", winnerMMR).
		Msg("season rolled over")

	return &Transition{
		Closed: closed,
		Opened: next,
	}, nil
}

// CreateNewSeason opens the next season immediately. resetStats wipes every rating record in both modes
// and may only be passed after the caller has confirmed it.
func (m *Manager) CreateNewSeason(ctx context.Context, resetStats bool, now time.Time) (*storage.PostgresSeason, error) {
	number := 1
	var last []byte
	cur, err := m.store.GetSeason(ctx)
	if err == nil {
		number = cur.SeasonNumber + 1
		last = cur.LastSeason
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	next := m.newSeason(number, now)
	next.LastSeason = last
	if err := m.store.SaveSeason(ctx, next); err != nil {
		return nil, err
	}
	if resetStats {
		if err := m.store.ResetAllRatings(ctx); err != nil {
			return nil, err
		}
	}
	log.Info().Int("season", number).Bool("reset", resetStats).Msg("started new season")
	return next, nil
}
