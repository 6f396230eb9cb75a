package season

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/storage"
)

type memStore struct {
	season     *storage.PostgresSeason
	top        *storage.PostgresRating
	identities map[string]*storage.PostgresIdentity
	resets     int
	saves      []storage.PostgresSeason
	saveErr    error
}

func (m *memStore) GetSeason(context.Context) (*storage.PostgresSeason, error) {
	if m.season == nil {
		return nil, storage.ErrNotFound
	}
	cp := *m.season
	return &cp, nil
}

func (m *memStore) SaveSeason(_ context.Context, s *storage.PostgresSeason) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *s
	m.season = &cp
	m.saves = append(m.saves, cp)
	return nil
}

func (m *memStore) IncrementSeasonMatches(context.Context) error {
	m.season.MatchesPlayed++
	return nil
}

func (m *memStore) TopRating(_ context.Context, mode game.Mode) (*storage.PostgresRating, error) {
	if m.top == nil || mode != game.Standard {
		return nil, storage.ErrNotFound
	}
	return m.top, nil
}

func (m *memStore) GetIdentity(_ context.Context, userID string) (*storage.PostgresIdentity, error) {
	if i, ok := m.identities[userID]; ok {
		return i, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) ResetAllRatings(context.Context) error {
	m.resets++
	return nil
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		in   time.Time
		n    int
		want time.Time
	}{
		{time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC), 2, time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)},
		{time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), 2, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), 2, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 11, 30, 23, 59, 0, 0, time.UTC), 2, time.Date(2026, 1, 30, 23, 59, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AddMonths(tt.in, tt.n), "from %s", tt.in)
	}
}

func TestCheckAndRoll_ClosesExpiredSeason(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	winner := uint64(42)
	store := &memStore{
		season: &storage.PostgresSeason{ID: storage.CurrentSeasonID, SeasonNumber: 3, StartedAt: start, ResetPeriodMonths: 2, MatchesPlayed: 17},
		top:    &storage.PostgresRating{UserID: winner, Mode: "standard", Name: "old#name", MMR: 1450},
		identities: map[string]*storage.PostgresIdentity{
			"42": {UserID: winner, Name: "champ", Tag: "na1"},
		},
	}
	m := NewManager(store, 2)
	now := AddMonths(start, 2).Add(time.Second)

	tr, err := m.CheckAndRoll(context.Background(), now)
	require.NoError(t, err)
	require.NotNil(t, tr)

	assert.Equal(t, 3, tr.Closed.SeasonNumber)
	assert.Equal(t, "champ#na1", tr.Closed.WinnerName)
	assert.Equal(t, 1450, tr.Closed.WinnerMMR)
	assert.Equal(t, winner, *tr.Closed.WinnerPlayerID)
	assert.Equal(t, 17, tr.Closed.MatchesPlayed)
	assert.Equal(t, now, tr.Closed.EndedAt)

	assert.Equal(t, 4, store.season.SeasonNumber)
	assert.Equal(t, now, store.season.StartedAt)
	assert.False(t, store.season.IsClosed)
	assert.Equal(t, 0, store.season.MatchesPlayed)
	assert.Equal(t, 0, store.resets, "automatic rollover keeps ratings")

	require.Len(t, store.saves, 1, "rollover is one write")

	last, err := store.season.GetLastSeason()
	require.NoError(t, err)
	assert.Equal(t, "champ#na1", last.WinnerName)
}

func TestCheckAndRoll_FailedSaveLeavesSeasonOpen(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &memStore{
		season:  &storage.PostgresSeason{ID: storage.CurrentSeasonID, SeasonNumber: 2, StartedAt: start, ResetPeriodMonths: 2, MatchesPlayed: 4},
		saveErr: errors.New("connection reset"),
	}
	m := NewManager(store, 2)
	now := AddMonths(start, 2).Add(time.Hour)

	tr, err := m.CheckAndRoll(context.Background(), now)
	require.Error(t, err)
	assert.Nil(t, tr)
	assert.Equal(t, 2, store.season.SeasonNumber)
	assert.False(t, store.season.IsClosed)
	assert.Empty(t, store.saves)

	// once the store recovers the next check rolls normally
	store.saveErr = nil
	tr, err = m.CheckAndRoll(context.Background(), now.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, 2, tr.Closed.SeasonNumber)
	assert.Equal(t, 3, store.season.SeasonNumber)
	assert.False(t, store.season.IsClosed)
}

func TestCheckAndRoll_NotYetDue(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &memStore{season: &storage.PostgresSeason{ID: storage.CurrentSeasonID, SeasonNumber: 1, StartedAt: start, ResetPeriodMonths: 2}}
	m := NewManager(store, 2)

	tr, err := m.CheckAndRoll(context.Background(), AddMonths(start, 2).Add(-time.Second))
	require.NoError(t, err)
	assert.Nil(t, tr)
	assert.Equal(t, 1, store.season.SeasonNumber)
}

func TestCheckAndRoll_NoPlayers(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &memStore{season: &storage.PostgresSeason{ID: storage.CurrentSeasonID, SeasonNumber: 1, StartedAt: start, ResetPeriodMonths: 2}}
	m := NewManager(store, 2)

	tr, err := m.CheckAndRoll(context.Background(), start.AddDate(1, 0, 0))
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, NoPlayersName, tr.Closed.WinnerName)
	assert.Equal(t, 0, tr.Closed.WinnerMMR)
	assert.Nil(t, tr.Closed.WinnerPlayerID)
}

func TestCurrent_CreatesFirstSeason(t *testing.T) {
	store := &memStore{}
	now := time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC)
	s, err := NewManager(store, 0).Current(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, s.SeasonNumber)
	assert.Equal(t, now, s.StartedAt)
	assert.Equal(t, DefaultPeriodMonths, s.ResetPeriodMonths)
}

func TestCreateNewSeason(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &memStore{season: &storage.PostgresSeason{ID: storage.CurrentSeasonID, SeasonNumber: 5, StartedAt: start, MatchesPlayed: 9}}
	m := NewManager(store, 2)
	now := start.Add(72 * time.Hour)

	s, err := m.CreateNewSeason(context.Background(), false, now)
	require.NoError(t, err)
	assert.Equal(t, 6, s.SeasonNumber)
	assert.Equal(t, 0, s.MatchesPlayed)
	assert.Equal(t, 0, store.resets)

	_, err = m.CreateNewSeason(context.Background(), true, now)
	require.NoError(t, err)
	assert.Equal(t, 7, store.season.SeasonNumber)
	assert.Equal(t, 1, store.resets)
}
