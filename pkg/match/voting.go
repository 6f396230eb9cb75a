package match

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/team"
	"github.com/tenmans/tenmans/pkg/vote"
)

// beginVoting closes signups. Caller holds s.mu.
func (c *Controller) beginVoting(s *Session) context.Context {
	s.Phase = game.Voting
	if s.stopRefresh != nil {
		s.stopRefresh()
	}
	log.Info().Str("guild", s.GuildID).Str("session", s.ID).Int("queued", len(s.Queue)).Msg("queue full, voting started")
	return s.ctx
}

// runVotes drives strategy, map type and map votes, then forms teams. TDM only votes on the map.
func (c *Controller) runVotes(ctx context.Context, s *Session) {
	s.mu.Lock()
	mode := s.Mode
	s.mu.Unlock()

	strategy := game.Balanced
	mapType := game.TDMMaps
	if mode == game.Standard {
		res, ok := c.runPhase(ctx, s, VoteStrategy, game.StrategyOptions)
		if !ok {
			return
		}
		strategy = game.Strategy(res.Winner)
		if !c.setStrategy(s, strategy) {
			return
		}

		res, ok = c.runPhase(ctx, s, VoteMapType, game.MapTypeOptions)
		if !ok {
			return
		}
		mapType = game.MapType(res.Winner)
	}
	s.mu.Lock()
	if s.Phase != game.Voting {
		s.mu.Unlock()
		return
	}
	s.MapType = mapType
	s.mu.Unlock()

	res, ok := c.runPhase(ctx, s, VoteMap, game.RandomMaps(c.newRand(), mapType, game.MapsPerVote))
	if !ok {
		return
	}

	s.mu.Lock()
	if s.Phase != game.Voting {
		s.mu.Unlock()
		return
	}
	s.Map = res.Winner
	s.Strategy = strategy
	s.vote = nil
	var event Event
	if strategy == game.Captains {
		event = c.startDraft(s)
	} else {
		event = c.formBalanced(s)
	}
	snap := s.snapshot()
	s.mu.Unlock()

	c.announce(context.Background(), snap, event)
}

func (c *Controller) setStrategy(s *Session, strategy game.Strategy) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Phase != game.Voting {
		return false
	}
	s.Strategy = strategy
	return true
}

// runPhase opens one vote and blocks until it resolves. ok is false when the session moved on meanwhile.
func (c *Controller) runPhase(ctx context.Context, s *Session, name string, options []string) (vote.Result, bool) {
	s.mu.Lock()
	if s.Phase != game.Voting || ctx.Err() != nil {
		s.mu.Unlock()
		return vote.Result{}, false
	}
	p := vote.New(vote.Config{
		Name:     name,
		Options:  options,
		Eligible: team.IDs(s.Queue),
		Window:   c.cfg.VoteWindow,
		Rand:     c.newRand(),
		OnChange: func(vote.Tally) {
			if snap, ok := c.Session(s.GuildID); ok && snap.ID == s.ID {
				c.announce(context.Background(), snap, EventVoteUpdated)
			}
		},
	})
	s.vote = p
	snap := s.snapshot()
	s.mu.Unlock()

	c.announce(context.Background(), snap, EventVoteStarted)
	res := p.Run(ctx)
	if ctx.Err() != nil {
		return res, false
	}

	s.mu.Lock()
	if s.Phase != game.Voting || s.vote != p {
		s.mu.Unlock()
		return res, false
	}
	snap = s.snapshot()
	s.mu.Unlock()

	log.Info().
		Str("guild", s.GuildID).
		Str("phase", name).
		Str("winner", res.Winner).
		Bool("quorum", res.ByQuorum).
		Bool("random", res.Random).
		Int("votes", res.VoteCount).
		Msg("vote resolved")
	snap.Vote = &VoteSnapshot{
		Name:    res.Phase,
		Options: options,
		Tally:   res.Tally,
	}
	c.announce(context.Background(), snap, EventVoteResolved)
	return res, true
}

// CastVote forwards a ballot to the open phase. A ballot for any other phase is Closed.
func (c *Controller) CastVote(guildID, phase, userID, option string) (vote.Outcome, error) {
	s, ok := c.get(guildID)
	if !ok {
		return vote.Closed, ErrNoSession
	}
	s.mu.Lock()
	p := s.vote
	live := s.Phase == game.Voting
	s.mu.Unlock()
	if !live || p == nil || p.Name() != phase {
		return vote.Closed, nil
	}
	// Cast blocks on the phase's consumer, which takes s.mu in OnChange
	return p.Cast(userID, option), nil
}

// formBalanced fixes the teams from the queue. Caller holds s.mu.
func (c *Controller) formBalanced(s *Session) Event {
	teams, err := team.Balanced{}.Form(s.Queue)
	if err != nil {
		log.Error().Err(err).Str("guild", s.GuildID).Msg("failed to balance teams")
	}
	s.Teams = teams
	s.Phase = game.InProgress
	log.Info().
		Str("guild", s.GuildID).
		Str("map", s.Map).
		Int("team1_mmr", team.Sum(teams.Team1)).
		Int("team2_mmr", team.Sum(teams.Team2)).
		Msg("teams formed")
	return EventTeamsFormed
}
