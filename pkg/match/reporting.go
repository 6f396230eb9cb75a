package match

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/ledger"
	"github.com/tenmans/tenmans/pkg/season"
	"github.com/tenmans/tenmans/pkg/storage"
)

type ReportResult struct {
	Session    Snapshot
	MatchID    string
	Resolution Resolution
	Players    []*ledger.Result
	// NewTopPlayer is set when the report moved someone else into first place on the standard ladder
	NewTopPlayer *storage.PostgresRating
	Season       *season.Transition
}

// Report resolves the reporter's latest match against the session and applies it to the ledger.
// Any failure before the ledger is touched leaves the session in progress so the report can be retried.
func (c *Controller) Report(ctx context.Context, guildID, reporterID string) (*ReportResult, error) {
	if c.locker != nil {
		release, ok := c.locker.LockSession(ctx, guildID)
		if !ok {
			return nil, ErrReportInFlight
		}
		defer release()
	}

	s, ok := c.get(guildID)
	if !ok {
		return nil, ErrNoSession
	}
	s.mu.Lock()
	if s.Phase == game.Reporting {
		s.mu.Unlock()
		return nil, ErrReportInFlight
	}
	if s.Phase != game.InProgress {
		s.mu.Unlock()
		return nil, ErrNotInProgress
	}
	if !s.queued(reporterID) {
		s.mu.Unlock()
		return nil, ErrNotQueued
	}
	s.Phase = game.Reporting
	snap := s.snapshot()
	s.mu.Unlock()

	committed := false
	defer func() {
		if committed {
			return
		}
		s.mu.Lock()
		if s.Phase == game.Reporting {
			s.Phase = game.InProgress
		}
		s.mu.Unlock()
	}()

	identity, err := c.store.GetIdentity(ctx, reporterID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotLinked
	} else if err != nil {
		return nil, err
	}
	m, raw, err := c.fetcher.LatestMatch(ctx, c.cfg.Region, identity.Name, identity.Tag)
	if err != nil {
		return nil, &FetchError{RiotID: identity.RiotID(), Err: err}
	}
	res, err := Resolve(snap.Teams, snap.Map, m)
	if err != nil {
		return nil, err
	}

	matchID := archiveID(m.Metadata.MatchID)
	if m.Metadata.MatchID != "" {
		seen, err := c.store.MatchArchived(ctx, matchID)
		if err != nil {
			return nil, err
		}
		if seen {
			return nil, ErrAlreadyReported
		}
	}

	topBefore, err := c.store.TopRating(ctx, game.Standard)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	results, err := c.ledger.ApplyBatch(ctx, snap.Mode, res.TotalRounds, Entries(snap.Teams, res, m))
	if err != nil && len(results) == 0 {
		return nil, err
	}
	// a transactional ledger returns no results on failure; only a plain store can apply part of a batch
	// from here on the ratings have moved; the session must not be reported again
	committed = true
	if err != nil {
		log.Error().Err(err).Str("guild", guildID).Int("applied", len(results)).Msg("report partially applied")
	}

	out := &ReportResult{
		Session:    snap,
		MatchID:    matchID,
		Resolution: *res,
		Players:    results,
	}
	c.archive(ctx, out, reporterID, raw)

	if snap.Mode == game.Standard {
		topAfter, err := c.store.TopRating(ctx, game.Standard)
		if err == nil && (topBefore == nil || topBefore.UserID != topAfter.UserID) {
			out.NewTopPlayer = topAfter
		}
	}

	if err := c.seasons.RecordMatch(ctx); err != nil {
		log.Error().Err(err).Msg("failed to count match towards the season")
	}
	transition, err := c.seasons.CheckAndRoll(ctx, c.now())
	if err != nil {
		log.Error().Err(err).Msg("failed to check season rollover")
	}
	out.Season = transition

	s.mu.Lock()
	final := c.close(s)
	s.mu.Unlock()
	out.Session = final

	log.Info().
		Str("guild", guildID).
		Str("session", snap.ID).
		Str("map", snap.Map).
		Int("winner", res.Winner).
		Int("round_diff", res.RoundDifferential).
		Int("players", len(results)).
		Msg("match reported")
	c.teardown(guildID, final.Handle)
	c.announce(ctx, final, EventReported)
	return out, nil
}

// archiveID maps the provider's match id onto the archive key, so the same match always lands on the same row.
func archiveID(externalID string) string {
	if externalID == "" {
		return uuid.NewString()
	}
	if id, err := uuid.Parse(externalID); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(externalID)).String()
}

// archive stores the fetched match verbatim. A failure is logged; the ratings are already applied.
func (c *Controller) archive(ctx context.Context, out *ReportResult, reporterID string, raw []byte) {
	seasonNumber := 0
	if cur, err := c.seasons.Current(ctx, c.now()); err == nil {
		seasonNumber = cur.SeasonNumber
	}
	reporter, _ := strconv.ParseUint(reporterID, 10, 64)
	rec := storage.PostgresMatch{
		MatchID:      out.MatchID,
		SessionID:    out.Session.ID,
		MatchName:    out.Session.Name,
		Mode:         string(out.Session.Mode),
		MapName:      game.NormalizeMapName(out.Session.Map),
		SeasonNumber: seasonNumber,
		ReporterID:   reporter,
		Payload:      raw,
	}
	if err := c.store.ArchiveMatch(ctx, &rec); err != nil {
		log.Error().Err(err).Str("match", rec.MatchID).Msg("failed to archive match")
	}
}
