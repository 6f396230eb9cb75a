package match

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/henrik"
	"github.com/tenmans/tenmans/pkg/ledger"
	"github.com/tenmans/tenmans/pkg/season"
	"github.com/tenmans/tenmans/pkg/storage"
	"github.com/tenmans/tenmans/pkg/team"
	"github.com/tenmans/tenmans/pkg/vote"
)

const (
	DefaultPickTimeout   = 60 * time.Second
	DefaultSignupRefresh = 60 * time.Second

	matchNameAlphabet = "0123456789"
	matchNameLength   = 4
)

var (
	ErrNoSession       = errors.New("no match is running in this server")
	ErrSessionActive   = errors.New("a match is already running in this server")
	ErrUnreported      = errors.New("the last match has not been reported yet")
	ErrNotSigningUp    = errors.New("signups are closed")
	ErrNotLinked       = errors.New("user has not linked a riot account")
	ErrAlreadyQueued   = errors.New("user is already in the queue")
	ErrQueueFull       = errors.New("the queue is full")
	ErrNotQueued       = errors.New("user is not in the queue")
	ErrWrongPhase      = errors.New("the match is not in the right phase for that")
	ErrNotCancellable  = errors.New("the match is being reported and cannot be cancelled")
	ErrNotInProgress   = errors.New("there is no match in progress to report")
	ErrReportInFlight  = errors.New("a report for this match is already being processed")
	ErrNotEnoughQueued = errors.New("not enough players queued to draft")
	ErrAlreadyReported = errors.New("this match has already been reported")
)

// Event tells the Announcer what changed.
type Event int

const (
	EventSignupOpened Event = iota
	EventSignupUpdated
	EventSignupRefresh
	EventVoteStarted
	EventVoteUpdated
	EventVoteResolved
	EventDraftUpdated
	EventTeamsFormed
	EventCancelled
	EventDraftTimedOut
	EventReported
)

var EventStrings = []string{
	"signup_opened",
	"signup_updated",
	"signup_refresh",
	"vote_started",
	"vote_updated",
	"vote_resolved",
	"draft_updated",
	"teams_formed",
	"cancelled",
	"draft_timed_out",
	"reported",
}

func (e Event) String() string {
	if int(e) < len(EventStrings) {
		return EventStrings[e]
	}
	return "unknown"
}

// Announcer renders a session for users. It is called without any session lock held.
type Announcer interface {
	Announce(ctx context.Context, snap Snapshot, event Event)
}

// Resources owns the per-match channel and role.
type Resources interface {
	Create(ctx context.Context, guildID, name string) (Handle, error)
	Grant(ctx context.Context, guildID string, h Handle, userID string) error
	Revoke(ctx context.Context, guildID string, h Handle, userID string) error
	Teardown(ctx context.Context, guildID string, h Handle) error
}

type MatchFetcher interface {
	LatestMatch(ctx context.Context, region, name, tag string) (*henrik.Match, []byte, error)
	AccountByPUUID(ctx context.Context, puuid string) (*henrik.Account, error)
}

type Store interface {
	GetIdentity(ctx context.Context, userID string) (*storage.PostgresIdentity, error)
	UpsertIdentity(ctx context.Context, identity *storage.PostgresIdentity) error
	RenameRatings(ctx context.Context, userID, name string) error
	GetRating(ctx context.Context, userID string, mode game.Mode) (*storage.PostgresRating, error)
	TopRating(ctx context.Context, mode game.Mode) (*storage.PostgresRating, error)
	ArchiveMatch(ctx context.Context, m *storage.PostgresMatch) error
	MatchArchived(ctx context.Context, matchID string) (bool, error)
}

// Locker serializes report processing for a guild across replicas.
type Locker interface {
	LockSession(ctx context.Context, guildID string) (func(), bool)
}

type Config struct {
	VoteWindow    time.Duration
	PickTimeout   time.Duration
	SignupRefresh time.Duration
	TeamCap       int
	Region        string
}

type Controller struct {
	cfg       Config
	announcer Announcer
	resources Resources
	fetcher   MatchFetcher
	store     Store
	ledger    *ledger.Ledger
	seasons   *season.Manager
	locker    Locker

	mu       sync.Mutex
	sessions map[string]*Session

	rngMu sync.Mutex
	rng   *rand.Rand

	now func() time.Time
}

type Deps struct {
	Announcer Announcer
	Resources Resources
	Fetcher   MatchFetcher
	Store     Store
	Ledger    *ledger.Ledger
	Seasons   *season.Manager
	// Locker is optional
	Locker Locker
}

func NewController(cfg Config, deps Deps) *Controller {
	if cfg.VoteWindow <= 0 {
		cfg.VoteWindow = vote.DefaultWindow
	}
	if cfg.PickTimeout <= 0 {
		cfg.PickTimeout = DefaultPickTimeout
	}
	if cfg.SignupRefresh <= 0 {
		cfg.SignupRefresh = DefaultSignupRefresh
	}
	if cfg.TeamCap <= 0 {
		cfg.TeamCap = team.DefaultTeamCap
	}
	if cfg.Region == "" {
		cfg.Region = henrik.DefaultRegion
	}
	return &Controller{
		cfg:       cfg,
		announcer: deps.Announcer,
		resources: deps.Resources,
		fetcher:   deps.Fetcher,
		store:     deps.Store,
		ledger:    deps.Ledger,
		seasons:   deps.Seasons,
		locker:    deps.Locker,
		sessions:  make(map[string]*Session),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
}

// newRand hands out an independent source; rand.Rand is not safe for concurrent use.
func (c *Controller) newRand() *rand.Rand {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return rand.New(rand.NewSource(c.rng.Int63()))
}

func (c *Controller) get(guildID string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[guildID]
	return s, ok
}

// remove drops the session only if it is still the one registered for its guild.
func (c *Controller) remove(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.sessions[s.GuildID]; ok && cur == s {
		delete(c.sessions, s.GuildID)
	}
}

func (c *Controller) announce(ctx context.Context, snap Snapshot, event Event) {
	if c.announcer != nil {
		c.announcer.Announce(ctx, snap, event)
	}
}

// Session returns a copy of the guild's current session.
func (c *Controller) Session(guildID string) (Snapshot, bool) {
	s, ok := c.get(guildID)
	if !ok {
		return Snapshot{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), true
}

// Sessions returns a copy of every live session.
func (c *Controller) Sessions() []Snapshot {
	c.mu.Lock()
	all := make([]*Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		all = append(all, s)
	}
	c.mu.Unlock()

	snaps := make([]Snapshot, 0, len(all))
	for _, s := range all {
		s.mu.Lock()
		snaps = append(snaps, s.snapshot())
		s.mu.Unlock()
	}
	return snaps
}

func NewMatchName() string {
	id, err := gonanoid.Generate(matchNameAlphabet, matchNameLength)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate match name")
		id = strconv.FormatInt(time.Now().UnixNano()%10000, 10)
	}
	return "match-" + id
}

func (c *Controller) StartSignup(ctx context.Context, guildID, channelID, starterID string, mode game.Mode) (Snapshot, error) {
	c.mu.Lock()
	if cur, ok := c.sessions[guildID]; ok {
		c.mu.Unlock()
		cur.mu.Lock()
		phase := cur.Phase
		cur.mu.Unlock()
		if phase == game.InProgress || phase == game.Reporting {
			return Snapshot{}, ErrUnreported
		}
		return Snapshot{}, ErrSessionActive
	}
	sessionCtx, cancel := context.WithCancel(context.Background())
	refreshCtx, stopRefresh := context.WithCancel(sessionCtx)
	s := &Session{
		ID:          uuid.NewString(),
		GuildID:     guildID,
		ChannelID:   channelID,
		StarterID:   starterID,
		Name:        NewMatchName(),
		Mode:        mode,
		Phase:       game.SigningUp,
		CreatedAt:   c.now().UTC(),
		ctx:         sessionCtx,
		cancel:      cancel,
		stopRefresh: stopRefresh,
	}
	// reserve the guild before the resources exist so concurrent signups are refused
	c.sessions[guildID] = s
	c.mu.Unlock()

	h, err := c.resources.Create(ctx, guildID, s.Name)
	if err != nil {
		s.mu.Lock()
		c.close(s)
		s.mu.Unlock()
		return Snapshot{}, fmt.Errorf("failed to create match resources: %w", err)
	}

	s.mu.Lock()
	if s.Phase == game.Idle {
		// cancelled while the channel was being created
		s.mu.Unlock()
		c.teardown(s.GuildID, h)
		return Snapshot{}, ErrNoSession
	}
	s.Handle = h
	snap := s.snapshot()
	s.mu.Unlock()

	go c.refreshSignup(refreshCtx, s)

	log.Info().
		Str("guild", guildID).
		Str("session", s.ID).
		Str("match", s.Name).
		Str("mode", string(mode)).
		Msg("signup opened")
	c.announce(ctx, snap, EventSignupOpened)
	return snap, nil
}

func (c *Controller) refreshSignup(ctx context.Context, s *Session) {
	ticker := time.NewTicker(c.cfg.SignupRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.Phase != game.SigningUp {
				s.mu.Unlock()
				return
			}
			snap := s.snapshot()
			s.mu.Unlock()
			c.announce(ctx, snap, EventSignupRefresh)
		}
	}
}

// refreshIdentity follows a riot account rename through its puuid. Failures keep the stored identity.
func (c *Controller) refreshIdentity(ctx context.Context, userID string, identity *storage.PostgresIdentity) *storage.PostgresIdentity {
	if identity.PUUID == "" || c.fetcher == nil {
		return identity
	}
	acc, err := c.fetcher.AccountByPUUID(ctx, identity.PUUID)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("could not refresh riot identity")
		return identity
	}
	fresh := ledger.NewIdentity(acc.Name, acc.Tag)
	if fresh.Name == "" || fresh.Tag == "" {
		return identity
	}
	if strings.EqualFold(fresh.Name, identity.Name) && strings.EqualFold(fresh.Tag, identity.Tag) {
		return identity
	}
	updated := *identity
	updated.Name = fresh.Name
	updated.Tag = fresh.Tag
	if err := c.store.UpsertIdentity(ctx, &updated); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("could not store refreshed riot identity")
		return identity
	}
	if err := c.store.RenameRatings(ctx, userID, updated.RiotID()); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("could not rename rating records")
	}
	log.Info().Str("user", userID).Str("from", identity.RiotID()).Str("to", updated.RiotID()).Msg("riot identity changed")
	return &updated
}

func (c *Controller) Join(ctx context.Context, guildID, userID string) (Snapshot, error) {
	s, ok := c.get(guildID)
	if !ok {
		return Snapshot{}, ErrNoSession
	}
	s.mu.Lock()
	mode := s.Mode
	err := c.admitJoin(s, userID)
	s.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}

	identity, err := c.store.GetIdentity(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return Snapshot{}, ErrNotLinked
	} else if err != nil {
		return Snapshot{}, err
	}
	identity = c.refreshIdentity(ctx, userID, identity)
	r, err := c.store.GetRating(ctx, userID, mode)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	// the queue may have moved on while the identity was being loaded
	if err := c.admitJoin(s, userID); err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	if cur, ok := c.get(guildID); !ok || cur != s {
		s.mu.Unlock()
		return Snapshot{}, ErrNoSession
	}
	s.Queue = append(s.Queue, team.Player{
		UserID: userID,
		Name:   identity.RiotID(),
		MMR:    r.MMR,
	})
	// granted under the lock so a concurrent cancel tears the role down after it, not before
	if err := c.resources.Grant(ctx, guildID, s.Handle, userID); err != nil {
		log.Warn().Err(err).Str("guild", guildID).Str("user", userID).Msg("failed to grant match role")
	}
	startVotes := s.full()
	var votesCtx context.Context
	if startVotes {
		votesCtx = c.beginVoting(s)
	}
	snap := s.snapshot()
	s.mu.Unlock()

	c.announce(ctx, snap, EventSignupUpdated)
	if startVotes {
		go c.runVotes(votesCtx, s)
	}
	return snap, nil
}

// admitJoin checks a join against the current state. Caller holds s.mu.
func (c *Controller) admitJoin(s *Session, userID string) error {
	if s.Phase != game.SigningUp {
		return ErrNotSigningUp
	}
	if s.queued(userID) {
		return ErrAlreadyQueued
	}
	if s.full() {
		return ErrQueueFull
	}
	return nil
}

func (c *Controller) Leave(ctx context.Context, guildID, userID string) (Snapshot, error) {
	s, ok := c.get(guildID)
	if !ok {
		return Snapshot{}, ErrNoSession
	}
	s.mu.Lock()
	if s.Phase != game.SigningUp {
		s.mu.Unlock()
		return Snapshot{}, ErrNotSigningUp
	}
	idx := -1
	for i, p := range s.Queue {
		if p.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return Snapshot{}, ErrNotQueued
	}
	s.Queue = append(s.Queue[:idx], s.Queue[idx+1:]...)
	h := s.Handle
	snap := s.snapshot()
	s.mu.Unlock()

	if err := c.resources.Revoke(ctx, guildID, h, userID); err != nil {
		log.Warn().Err(err).Str("guild", guildID).Str("user", userID).Msg("failed to revoke match role")
	}
	c.announce(ctx, snap, EventSignupUpdated)
	return snap, nil
}

func (c *Controller) Cancel(ctx context.Context, guildID string) (Snapshot, error) {
	s, ok := c.get(guildID)
	if !ok {
		return Snapshot{}, ErrNoSession
	}
	s.mu.Lock()
	if !s.Phase.Cancellable() {
		s.mu.Unlock()
		return Snapshot{}, ErrNotCancellable
	}
	snap := c.close(s)
	s.mu.Unlock()

	log.Info().Str("guild", guildID).Str("session", snap.ID).Msg("match cancelled")
	c.teardown(guildID, snap.Handle)
	c.announce(ctx, snap, EventCancelled)
	return snap, nil
}

// close stops everything the session owns and unregisters it. Caller holds s.mu.
func (c *Controller) close(s *Session) Snapshot {
	snap := s.snapshot()
	s.Phase = game.Idle
	s.stopTimers()
	s.vote = nil
	s.draft = nil
	c.remove(s)
	return snap
}

func (c *Controller) teardown(guildID string, h Handle) {
	if h == (Handle{}) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.resources.Teardown(ctx, guildID, h); err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("failed to tear down match resources")
	}
}
