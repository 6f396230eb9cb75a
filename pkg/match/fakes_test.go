package match

import (
	"context"
	"strconv"
	"sync"

	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/henrik"
	"github.com/tenmans/tenmans/pkg/ledger"
	"github.com/tenmans/tenmans/pkg/storage"
)

type memStore struct {
	mu         sync.Mutex
	identities map[string]*storage.PostgresIdentity
	ratings    map[string]*storage.PostgresRating
	season     *storage.PostgresSeason
	archived   []*storage.PostgresMatch
	saves      int
	renamed    map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		identities: map[string]*storage.PostgresIdentity{},
		ratings:    map[string]*storage.PostgresRating{},
		renamed:    map[string]string{},
	}
}

func ratingKey(userID string, mode game.Mode) string {
	return userID + "/" + string(mode)
}

func (m *memStore) link(userID, name, tag string, mmr int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, _ := strconv.ParseUint(userID, 10, 64)
	id := ledger.NewIdentity(name, tag)
	m.identities[userID] = &storage.PostgresIdentity{UserID: uid, Name: id.Name, Tag: id.Tag}
	if mmr > 0 {
		r := storage.NewRating(uid, string(game.Standard))
		r.MMR = mmr
		m.ratings[ratingKey(userID, game.Standard)] = r
	}
}

func (m *memStore) GetIdentity(_ context.Context, userID string) (*storage.PostgresIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.identities[userID]; ok {
		cp := *i
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) UpsertIdentity(_ context.Context, identity *storage.PostgresIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *identity
	m.identities[strconv.FormatUint(identity.UserID, 10)] = &cp
	return nil
}

func (m *memStore) RenameRatings(_ context.Context, userID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renamed[userID] = name
	return nil
}

func (m *memStore) UserIDByIdentity(_ context.Context, name, tag string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, i := range m.identities {
		if i.Name == name && i.Tag == tag {
			return userID, nil
		}
	}
	return "", storage.ErrNotFound
}

func (m *memStore) GetRating(_ context.Context, userID string, mode game.Mode) (*storage.PostgresRating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.ratings[ratingKey(userID, mode)]; ok {
		cp := *r
		cp.PerformanceHistory = append([]float64(nil), r.PerformanceHistory...)
		return &cp, nil
	}
	uid, _ := strconv.ParseUint(userID, 10, 64)
	return storage.NewRating(uid, string(mode)), nil
}

func (m *memStore) SaveRating(_ context.Context, r *storage.PostgresRating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.ratings[ratingKey(strconv.FormatUint(r.UserID, 10), game.Mode(r.Mode))] = &cp
	m.saves++
	return nil
}

func (m *memStore) rating(userID string, mode game.Mode) storage.PostgresRating {
	r, _ := m.GetRating(context.Background(), userID, mode)
	return *r
}

func (m *memStore) TopRating(_ context.Context, mode game.Mode) (*storage.PostgresRating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var top *storage.PostgresRating
	for _, r := range m.ratings {
		if r.Mode != string(mode) {
			continue
		}
		if top == nil || r.MMR > top.MMR || (r.MMR == top.MMR && r.UserID < top.UserID) {
			top = r
		}
	}
	if top == nil {
		return nil, storage.ErrNotFound
	}
	cp := *top
	return &cp, nil
}

func (m *memStore) ArchiveMatch(_ context.Context, rec *storage.PostgresMatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archived = append(m.archived, rec)
	return nil
}

func (m *memStore) MatchArchived(_ context.Context, matchID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.archived {
		if rec.MatchID == matchID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) GetSeason(context.Context) (*storage.PostgresSeason, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.season == nil {
		return nil, storage.ErrNotFound
	}
	cp := *m.season
	return &cp, nil
}

func (m *memStore) SaveSeason(_ context.Context, s *storage.PostgresSeason) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.season = &cp
	return nil
}

func (m *memStore) IncrementSeasonMatches(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.season != nil {
		m.season.MatchesPlayed++
	}
	return nil
}

func (m *memStore) ResetAllRatings(context.Context) error {
	return nil
}

type fakeResources struct {
	mu       sync.Mutex
	created  int
	granted  []string
	revoked  []string
	tornDown int
	err      error

	// ops is grant and teardown in the order they completed
	ops     []string
	onGrant func()
}

func (f *fakeResources) Create(_ context.Context, _ string, name string) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return Handle{}, f.err
	}
	f.created++
	return Handle{ChannelID: "chan-" + name, RoleID: "role-" + name}, nil
}

func (f *fakeResources) Grant(_ context.Context, _ string, _ Handle, userID string) error {
	if f.onGrant != nil {
		f.onGrant()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.granted = append(f.granted, userID)
	f.ops = append(f.ops, "grant")
	return nil
}

func (f *fakeResources) Revoke(_ context.Context, _ string, _ Handle, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, userID)
	return nil
}

func (f *fakeResources) Teardown(context.Context, string, Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tornDown++
	f.ops = append(f.ops, "teardown")
	return nil
}

func (f *fakeResources) history() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func (f *fakeResources) teardowns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tornDown
}

type fakeAnnouncer struct {
	mu     sync.Mutex
	events []Event
}

func (f *fakeAnnouncer) Announce(_ context.Context, _ Snapshot, event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeAnnouncer) count(event Event) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e == event {
			n++
		}
	}
	return n
}

type fakeFetcher struct {
	mu      sync.Mutex
	match   *henrik.Match
	raw     []byte
	err     error
	account *henrik.Account
	calls   int
}

func (f *fakeFetcher) LatestMatch(context.Context, string, string, string) (*henrik.Match, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.match, f.raw, nil
}

func (f *fakeFetcher) AccountByPUUID(context.Context, string) (*henrik.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.account == nil {
		return nil, &henrik.StatusError{Code: 404}
	}
	return f.account, nil
}
