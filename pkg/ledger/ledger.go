package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/rating"
	"github.com/tenmans/tenmans/pkg/storage"
)

// HistoryWindow is how many recent TDM K/D values feed the performance modifier
const HistoryWindow = 10

var ErrUnlinked = errors.New("player is not linked to any Discord account")

type Store interface {
	UserIDByIdentity(ctx context.Context, name, tag string) (string, error)
	GetRating(ctx context.Context, userID string, mode game.Mode) (*storage.PostgresRating, error)
	SaveRating(ctx context.Context, r *storage.PostgresRating) error
}

// TxStore is a Store that can apply a whole batch atomically.
type TxStore interface {
	Store
	WithRatingTx(ctx context.Context, fn func(tx storage.RatingStore) error) error
}

type Identity struct {
	Name string
	Tag  string
}

func NewIdentity(name, tag string) Identity {
	return Identity{
		Name: strings.ToLower(strings.TrimSpace(name)),
		Tag:  strings.ToLower(strings.TrimSpace(tag)),
	}
}

func (i Identity) String() string {
	return i.Name + "#" + i.Tag
}

type RoundStats struct {
	Score   int
	Kills   int
	Deaths  int
	Assists int
}

// Adjustment carries what the rating engine needs; team sums are taken before any update of the match is applied.
type Adjustment struct {
	Outcome           rating.Outcome
	TeamRatingSum     int
	OpponentRatingSum int
	TeamSize          int
	OpponentSize      int
	RoundDifferential int
}

func (a *Adjustment) averages() (float64, float64) {
	if a.TeamSize <= 0 || a.OpponentSize <= 0 {
		return 0, 0
	}
	return float64(a.TeamRatingSum) / float64(a.TeamSize), float64(a.OpponentRatingSum) / float64(a.OpponentSize)
}

type Result struct {
	UserID   string
	Identity Identity
	Before   storage.PostgresRating
	After    storage.PostgresRating
	Delta    int
}

type Entry struct {
	Identity   Identity
	Stats      RoundStats
	Adjustment *Adjustment
}

type Ledger struct {
	store   Store
	formula rating.Formula
}

func New(store Store, formula rating.Formula) *Ledger {
	return &Ledger{
		store:   store,
		formula: formula,
	}
}

func AverageCombatScore(totalCombatScore, totalRounds int) float64 {
	if totalRounds <= 0 {
		return 0
	}
	return float64(totalCombatScore) / float64(totalRounds)
}

func KillDeathRatio(kills, deaths int) float64 {
	if deaths <= 0 {
		return float64(kills)
	}
	return float64(kills) / float64(deaths)
}

// Recompute refreshes every derived field from the accumulators.
func Recompute(r *storage.PostgresRating) {
	r.AverageCombatScore = AverageCombatScore(r.TotalCombatScore, r.TotalRoundsPlayed)
	r.KillDeathRatio = KillDeathRatio(r.TotalKills, r.TotalDeaths)
	if r.MatchesPlayed > 0 {
		r.AvgKills = float64(r.TotalKills) / float64(r.MatchesPlayed)
	} else {
		r.AvgKills = 0
	}
}

// ApplyMatchResult folds one player's match line into their record. Applying the same match twice double counts.
func (l *Ledger) ApplyMatchResult(ctx context.Context, mode game.Mode, id Identity, stats RoundStats, totalRounds int, adj *Adjustment) (*Result, error) {
	id = NewIdentity(id.Name, id.Tag)
	userID, err := l.store.UserIDByIdentity(ctx, id.Name, id.Tag)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrUnlinked)
	} else if err != nil {
		return nil, err
	}

	rec, err := l.store.GetRating(ctx, userID, mode)
	if err != nil {
		return nil, err
	}
	before := *rec
	before.PerformanceHistory = append([]float64(nil), rec.PerformanceHistory...)

	if totalRounds < 0 {
		totalRounds = 0
	}
	rec.Name = id.String()
	rec.MatchesPlayed++
	rec.TotalCombatScore += stats.Score
	rec.TotalKills += stats.Kills
	rec.TotalDeaths += stats.Deaths
	rec.TotalRoundsPlayed += totalRounds
	Recompute(rec)

	delta := 0
	if adj != nil {
		delta = l.delta(mode, &before, stats, totalRounds, adj)
		rec.MMR = rating.Apply(rec.MMR, delta)
		if adj.Outcome == rating.Win {
			rec.Wins++
		} else {
			rec.Losses++
		}
	}
	if mode == game.TDM {
		rec.PerformanceHistory = pushHistory(rec.PerformanceHistory, KillDeathRatio(stats.Kills, stats.Deaths))
	}

	if err := l.store.SaveRating(ctx, rec); err != nil {
		return nil, err
	}
	return &Result{
		UserID:   userID,
		Identity: id,
		Before:   before,
		After:    *rec,
		Delta:    delta,
	}, nil
}

func (l *Ledger) delta(mode game.Mode, before *storage.PostgresRating, stats RoundStats, totalRounds int, adj *Adjustment) int {
	teamAvg, oppAvg := adj.averages()
	if mode == game.TDM {
		return rating.TDMDelta(adj.Outcome, teamAvg, oppAvg, before.PerformanceHistory, before.MatchesPlayed)
	}
	if l.formula == rating.Simple {
		return rating.SimpleDelta(adj.Outcome, teamAvg, oppAvg)
	}
	return rating.ComputeDelta(adj.Outcome, teamAvg, oppAvg, AverageCombatScore(stats.Score, totalRounds), adj.RoundDifferential)
}

// ApplyBatch applies every entry; unlinked players are logged and skipped without aborting the rest.
// With a TxStore any other failure rolls the whole batch back and no results are returned.
func (l *Ledger) ApplyBatch(ctx context.Context, mode game.Mode, totalRounds int, entries []Entry) ([]*Result, error) {
	ts, ok := l.store.(TxStore)
	if !ok {
		return l.applyAll(ctx, mode, totalRounds, entries)
	}
	var results []*Result
	err := ts.WithRatingTx(ctx, func(tx storage.RatingStore) error {
		inTx := &Ledger{store: tx, formula: l.formula}
		var err error
		results, err = inTx.applyAll(ctx, mode, totalRounds, entries)
		return err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (l *Ledger) applyAll(ctx context.Context, mode game.Mode, totalRounds int, entries []Entry) ([]*Result, error) {
	results := make([]*Result, 0, len(entries))
	for _, e := range entries {
		res, err := l.ApplyMatchResult(ctx, mode, e.Identity, e.Stats, totalRounds, e.Adjustment)
		if errors.Is(err, ErrUnlinked) {
			log.Warn().Str("identity", e.Identity.String()).Msg("player not linked to any Discord account; skipping stat update")
			continue
		} else if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func pushHistory(history []float64, kd float64) []float64 {
	history = append(history, kd)
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	return history
}
