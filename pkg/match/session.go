package match

import (
	"context"
	"sync"
	"time"

	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/team"
	"github.com/tenmans/tenmans/pkg/vote"
	"golang.org/x/exp/slices"
)

const (
	VoteStrategy = "strategy"
	VoteMapType  = "maptype"
	VoteMap      = "map"
)

// Handle names the per-match channel and role created for a session.
type Handle struct {
	ChannelID string `json:"channel_id"`
	RoleID    string `json:"role_id"`
}

// Session is one guild's match from signup until it is reported or cancelled.
// Every field is guarded by mu.
type Session struct {
	mu sync.Mutex

	ID        string
	GuildID   string
	ChannelID string
	StarterID string
	Name      string
	Mode      game.Mode
	Phase     game.Phase
	CreatedAt time.Time

	Queue    []team.Player
	Strategy game.Strategy
	MapType  game.MapType
	Map      string
	Teams    team.Teams
	Handle   Handle

	vote  *vote.Phase
	draft *team.Draft

	pickGen   uint64
	pickTimer *time.Timer

	// ctx lives until the session closes; cancel ends the vote chain and the signup refresh
	ctx         context.Context
	cancel      context.CancelFunc
	stopRefresh context.CancelFunc
}

func (s *Session) queued(userID string) bool {
	return slices.IndexFunc(s.Queue, func(p team.Player) bool {
		return p.UserID == userID
	}) >= 0
}

func (s *Session) full() bool {
	return len(s.Queue) >= s.Mode.Capacity()
}

// stopTimers invalidates the pick timer and the background goroutines. Caller holds mu.
func (s *Session) stopTimers() {
	s.pickGen++
	if s.pickTimer != nil {
		s.pickTimer.Stop()
		s.pickTimer = nil
	}
	if s.stopRefresh != nil {
		s.stopRefresh()
	}
	if s.cancel != nil {
		s.cancel()
	}
}

type VoteSnapshot struct {
	Name    string     `json:"name"`
	Options []string   `json:"options"`
	Tally   vote.Tally `json:"tally"`
}

type DraftSnapshot struct {
	Captain1    team.Player   `json:"captain1"`
	Captain2    team.Player   `json:"captain2"`
	StyleChosen bool          `json:"style_chosen"`
	Current     string        `json:"current"`
	Pool        []team.Player `json:"pool"`
	Teams       team.Teams    `json:"teams"`
}

// Snapshot is a detached copy of a session, safe to render or serialize.
type Snapshot struct {
	ID        string         `json:"id"`
	GuildID   string         `json:"guild_id"`
	ChannelID string         `json:"channel_id"`
	StarterID string         `json:"starter_id"`
	Name      string         `json:"name"`
	Mode      game.Mode      `json:"mode"`
	Phase     string         `json:"phase"`
	Capacity  int            `json:"capacity"`
	CreatedAt time.Time      `json:"created_at"`
	Queue     []team.Player  `json:"queue"`
	Strategy  game.Strategy  `json:"strategy,omitempty"`
	MapType   game.MapType   `json:"map_type,omitempty"`
	Map       string         `json:"map,omitempty"`
	Teams     team.Teams     `json:"teams"`
	Handle    Handle         `json:"handle"`
	Vote      *VoteSnapshot  `json:"vote,omitempty"`
	Draft     *DraftSnapshot `json:"draft,omitempty"`
}

// snapshot copies the session. Caller holds mu.
func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:        s.ID,
		GuildID:   s.GuildID,
		ChannelID: s.ChannelID,
		StarterID: s.StarterID,
		Name:      s.Name,
		Mode:      s.Mode,
		Phase:     s.Phase.String(),
		Capacity:  s.Mode.Capacity(),
		CreatedAt: s.CreatedAt,
		Queue:     slices.Clone(s.Queue),
		Strategy:  s.Strategy,
		MapType:   s.MapType,
		Map:       s.Map,
		Teams: team.Teams{
			Team1: slices.Clone(s.Teams.Team1),
			Team2: slices.Clone(s.Teams.Team2),
		},
		Handle: s.Handle,
	}
	if s.vote != nil && !s.vote.Resolved() {
		snap.Vote = &VoteSnapshot{
			Name:    s.vote.Name(),
			Options: s.vote.Options(),
			Tally:   s.vote.Snapshot(),
		}
	}
	if s.draft != nil {
		snap.Draft = &DraftSnapshot{
			Captain1:    s.draft.Captain1,
			Captain2:    s.draft.Captain2,
			StyleChosen: s.draft.StyleChosen(),
			Current:     s.draft.Current(),
			Pool:        s.draft.Pool(),
			Teams:       s.draft.Teams(),
		}
	}
	return snap
}

// InQueue reports whether the user is queued in the snapshot.
func (snap Snapshot) InQueue(userID string) bool {
	return slices.IndexFunc(snap.Queue, func(p team.Player) bool {
		return p.UserID == userID
	}) >= 0
}
