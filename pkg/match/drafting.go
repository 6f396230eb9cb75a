package match

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/team"
)

// startDraft picks captains and opens the draft. Caller holds s.mu.
func (c *Controller) startDraft(s *Session) Event {
	c1, c2, err := team.PickCaptains(s.Queue, c.newRand())
	if err == nil {
		s.draft, err = team.NewDraft(s.Queue, c1, c2, c.cfg.TeamCap)
	}
	if err != nil {
		// not enough distinct players to draft; fall back to balancing
		log.Warn().Err(err).Str("guild", s.GuildID).Msg("cannot draft, balancing instead")
		s.Strategy = game.Balanced
		return c.formBalanced(s)
	}
	s.Phase = game.FormingTeams
	s.Teams = s.draft.Teams()
	c.armPickTimer(s)
	log.Info().
		Str("guild", s.GuildID).
		Str("captain1", c1.Name).
		Str("captain2", c2.Name).
		Msg("draft started")
	return EventDraftUpdated
}

// armPickTimer restarts the pick deadline. A timer from an older generation fires as a no-op. Caller holds s.mu.
func (c *Controller) armPickTimer(s *Session) {
	s.pickGen++
	gen := s.pickGen
	if s.pickTimer != nil {
		s.pickTimer.Stop()
	}
	s.pickTimer = time.AfterFunc(c.cfg.PickTimeout, func() {
		c.pickTimedOut(s, gen)
	})
}

func (c *Controller) pickTimedOut(s *Session, gen uint64) {
	s.mu.Lock()
	if s.pickGen != gen || s.Phase != game.FormingTeams {
		s.mu.Unlock()
		return
	}
	snap := c.close(s)
	s.mu.Unlock()

	log.Info().Str("guild", s.GuildID).Str("session", s.ID).Msg("draft pick timed out, match aborted")
	c.teardown(s.GuildID, snap.Handle)
	c.announce(context.Background(), snap, EventDraftTimedOut)
}

// finishDraft settles leftovers and starts the match. Caller holds s.mu.
func (c *Controller) finishDraft(s *Session) Event {
	s.Teams = s.draft.Finish()
	s.pickGen++
	if s.pickTimer != nil {
		s.pickTimer.Stop()
		s.pickTimer = nil
	}
	s.Phase = game.InProgress
	log.Info().
		Str("guild", s.GuildID).
		Str("map", s.Map).
		Int("team1_mmr", team.Sum(s.Teams.Team1)).
		Int("team2_mmr", team.Sum(s.Teams.Team2)).
		Msg("draft finished")
	return EventTeamsFormed
}

func (c *Controller) draftSession(guildID string) (*Session, error) {
	s, ok := c.get(guildID)
	if !ok {
		return nil, ErrNoSession
	}
	s.mu.Lock()
	if s.Phase != game.FormingTeams || s.draft == nil {
		s.mu.Unlock()
		return nil, ErrWrongPhase
	}
	return s, nil
}

// ChooseDraftStyle lets the second captain pick single or double pick order.
func (c *Controller) ChooseDraftStyle(guildID, userID string, double bool) (team.StyleStatus, error) {
	s, err := c.draftSession(guildID)
	if err != nil {
		return team.StyleNotSecondCaptain, err
	}
	status := s.draft.SetStyle(userID, double)
	if status != team.StyleAccepted {
		s.mu.Unlock()
		return status, nil
	}
	event := EventDraftUpdated
	if s.draft.Done() {
		event = c.finishDraft(s)
	} else {
		c.armPickTimer(s)
	}
	snap := s.snapshot()
	s.mu.Unlock()

	c.announce(context.Background(), snap, event)
	return status, nil
}

func (c *Controller) Pick(guildID, captainID, playerID string) (team.PickStatus, error) {
	s, err := c.draftSession(guildID)
	if err != nil {
		return team.PickDraftOver, err
	}
	status := s.draft.Pick(captainID, playerID)
	if status != team.PickAccepted {
		s.mu.Unlock()
		return status, nil
	}
	event := EventDraftUpdated
	if s.draft.Done() {
		event = c.finishDraft(s)
	} else {
		c.armPickTimer(s)
	}
	snap := s.snapshot()
	s.mu.Unlock()

	c.announce(context.Background(), snap, event)
	return status, nil
}

// ForceDraft skips signup and the votes and drafts the current queue on a random official map.
func (c *Controller) ForceDraft(ctx context.Context, guildID string) (Snapshot, error) {
	s, ok := c.get(guildID)
	if !ok {
		return Snapshot{}, ErrNoSession
	}
	s.mu.Lock()
	if s.Phase != game.SigningUp && s.Phase != game.Voting {
		s.mu.Unlock()
		return Snapshot{}, ErrWrongPhase
	}
	if len(s.Queue) < 2 {
		s.mu.Unlock()
		return Snapshot{}, ErrNotEnoughQueued
	}
	s.stopRefresh()
	// the vote chain sees the phase change and exits
	s.cancel()
	s.vote = nil

	pool := game.Competitive
	if s.Mode == game.TDM {
		pool = game.TDMMaps
	}
	s.MapType = pool
	s.Map = game.RandomMaps(c.newRand(), pool, 1)[0]
	s.Strategy = game.Captains
	event := c.startDraft(s)
	snap := s.snapshot()
	s.mu.Unlock()

	log.Info().Str("guild", guildID).Str("map", snap.Map).Msg("draft forced")
	c.announce(ctx, snap, event)
	return snap, nil
}
