package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/game"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrIdentityTaken = errors.New("that riot account is already linked to another user")
)

const uniqueViolation = "23505"

type PgxIface interface {
	Begin(context.Context) (pgx.Tx, error)
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	Prepare(context.Context, string, string) (*pgconn.StatementDescription, error)
}

type PsqlInterface struct {
	Pool *pgxpool.Pool
}

func ConstructPsqlConnectURL(addr, username, password string) string {
	return fmt.Sprintf("postgres://%s?user=%s&password=%s", addr, username, password)
}

func (psqlInterface *PsqlInterface) Init(addr string) error {
	dbpool, err := pgxpool.Connect(context.Background(), addr)
	if err != nil {
		return err
	}
	psqlInterface.Pool = dbpool
	return nil
}

func (psqlInterface *PsqlInterface) Ping(ctx context.Context) error {
	return psqlInterface.Pool.Ping(ctx)
}

func (psqlInterface *PsqlInterface) Close() {
	psqlInterface.Pool.Close()
}

func parseID(userID string) (uint64, error) {
	return strconv.ParseUint(userID, 10, 64)
}

type LeaderboardSort string

const (
	SortMMR    LeaderboardSort = "mmr"
	SortWins   LeaderboardSort = "wins"
	SortLosses LeaderboardSort = "losses"
	SortKD     LeaderboardSort = "kd"
	SortACS    LeaderboardSort = "acs"
)

var sortColumns = map[LeaderboardSort]string{
	SortMMR:    "mmr",
	SortWins:   "wins",
	SortLosses: "losses",
	SortKD:     "kill_death_ratio",
	SortACS:    "average_combat_score",
}

// ParseLeaderboardSort accepts the column aliases players type; anything unknown sorts by mmr.
func ParseLeaderboardSort(s string) LeaderboardSort {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wins", "win", "w":
		return SortWins
	case "losses", "loss", "l":
		return SortLosses
	case "kd", "k/d", "kdr":
		return SortKD
	case "acs", "combat", "score":
		return SortACS
	default:
		return SortMMR
	}
}

func (psqlInterface *PsqlInterface) UpsertIdentity(ctx context.Context, identity *PostgresIdentity) error {
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return upsertIdentity(ctx, conn.Conn(), identity)
}

func upsertIdentity(ctx context.Context, conn PgxIface, identity *PostgresIdentity) error {
	if identity.LinkedAt.IsZero() {
		identity.LinkedAt = time.Now().UTC()
	}
	_, err := conn.Exec(ctx, "INSERT INTO identities VALUES ($1, $2, $3, $4, $5) "+
		"ON CONFLICT (user_id) DO UPDATE SET name = EXCLUDED.name, tag = EXCLUDED.tag, puuid = EXCLUDED.puuid, linked_at = EXCLUDED.linked_at;",
		identity.UserID, strings.ToLower(identity.Name), strings.ToLower(identity.Tag), identity.PUUID, identity.LinkedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrIdentityTaken
	}
	return err
}

func (psqlInterface *PsqlInterface) GetIdentity(ctx context.Context, userID string) (*PostgresIdentity, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()
	return getIdentity(ctx, conn.Conn(), uid)
}

func getIdentity(ctx context.Context, conn PgxIface, userID uint64) (*PostgresIdentity, error) {
	var identities []*PostgresIdentity
	err := pgxscan.Select(ctx, conn, &identities, "SELECT * FROM identities WHERE user_id = $1", userID)
	if err != nil {
		return nil, err
	}
	if len(identities) > 0 {
		return identities[0], nil
	}
	return nil, ErrNotFound
}

func (psqlInterface *PsqlInterface) UserIDByIdentity(ctx context.Context, name, tag string) (string, error) {
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Release()
	return userIDByIdentity(ctx, conn.Conn(), name, tag)
}

func userIDByIdentity(ctx context.Context, conn PgxIface, name, tag string) (string, error) {
	var identities []*PostgresIdentity
	err := pgxscan.Select(ctx, conn, &identities, "SELECT * FROM identities WHERE name = $1 AND tag = $2",
		strings.ToLower(strings.TrimSpace(name)), strings.ToLower(strings.TrimSpace(tag)))
	if err != nil {
		return "", err
	}
	if len(identities) > 0 {
		return strconv.FormatUint(identities[0].UserID, 10), nil
	}
	return "", ErrNotFound
}

// GetRating returns a fresh default record when the player has never played the mode.
func (psqlInterface *PsqlInterface) GetRating(ctx context.Context, userID string, mode game.Mode) (*PostgresRating, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return ratingOrDefault(ctx, conn.Conn(), uid, mode)
}

func (psqlInterface *PsqlInterface) FindRating(ctx context.Context, userID string, mode game.Mode) (*PostgresRating, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()
	return findRating(ctx, conn.Conn(), uid, mode)
}

func findRating(ctx context.Context, conn PgxIface, userID uint64, mode game.Mode) (*PostgresRating, error) {
	var ratings []*PostgresRating
	err := pgxscan.Select(ctx, conn, &ratings, "SELECT * FROM ratings WHERE user_id = $1 AND mode = $2", userID, string(mode))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	if len(ratings) > 0 {
		return ratings[0], nil
	}
	return nil, ErrNotFound
}

func ratingOrDefault(ctx context.Context, conn PgxIface, userID uint64, mode game.Mode) (*PostgresRating, error) {
	r, err := findRating(ctx, conn, userID, mode)
	if errors.Is(err, ErrNotFound) {
		return NewRating(userID, string(mode)), nil
	}
	return r, err
}

func (psqlInterface *PsqlInterface) SaveRating(ctx context.Context, r *PostgresRating) error {
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return saveRating(ctx, conn.Conn(), r)
}

func saveRating(ctx context.Context, conn PgxIface, r *PostgresRating) error {
	r.UpdatedAt = time.Now().UTC()
	if r.PerformanceHistory == nil {
		r.PerformanceHistory = []float64{}
	}
	_, err := conn.Exec(ctx, "INSERT INTO ratings VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16) "+
		"ON CONFLICT (user_id, mode) DO UPDATE SET "+
		"name = EXCLUDED.name, mmr = EXCLUDED.mmr, wins = EXCLUDED.wins, losses = EXCLUDED.losses, "+
		"matches_played = EXCLUDED.matches_played, total_rounds_played = EXCLUDED.total_rounds_played, "+
		"total_combat_score = EXCLUDED.total_combat_score, total_kills = EXCLUDED.total_kills, total_deaths = EXCLUDED.total_deaths, "+
		"average_combat_score = EXCLUDED.average_combat_score, kill_death_ratio = EXCLUDED.kill_death_ratio, "+
		"avg_kills = EXCLUDED.avg_kills, performance_history = EXCLUDED.performance_history, updated_at = EXCLUDED.updated_at;",
		r.UserID, r.Mode, r.Name, r.MMR, r.Wins, r.Losses, r.MatchesPlayed, r.TotalRoundsPlayed, r.TotalCombatScore,
		r.TotalKills, r.TotalDeaths, r.AverageCombatScore, r.KillDeathRatio, r.AvgKills, r.PerformanceHistory, r.UpdatedAt)
	return err
}

// RatingStore is what the ledger needs to fold a match into player records.
type RatingStore interface {
	UserIDByIdentity(ctx context.Context, name, tag string) (string, error)
	GetRating(ctx context.Context, userID string, mode game.Mode) (*PostgresRating, error)
	SaveRating(ctx context.Context, r *PostgresRating) error
}

// RatingTx reads and writes ratings inside one transaction.
type RatingTx struct {
	conn PgxIface
}

func (tx *RatingTx) UserIDByIdentity(ctx context.Context, name, tag string) (string, error) {
	return userIDByIdentity(ctx, tx.conn, name, tag)
}

func (tx *RatingTx) GetRating(ctx context.Context, userID string, mode game.Mode) (*PostgresRating, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	return ratingOrDefault(ctx, tx.conn, uid, mode)
}

func (tx *RatingTx) SaveRating(ctx context.Context, r *PostgresRating) error {
	return saveRating(ctx, tx.conn, r)
}

// WithRatingTx commits every rating write made by fn, or none of them when fn fails.
func (psqlInterface *PsqlInterface) WithRatingTx(ctx context.Context, fn func(tx RatingStore) error) error {
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return withRatingTx(ctx, conn.Conn(), fn)
}

func withRatingTx(ctx context.Context, conn PgxIface, fn func(tx RatingStore) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(&RatingTx{conn: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Error().Err(rbErr).Msg("failed to roll back rating transaction")
		}
		return err
	}
	return tx.Commit(ctx)
}

func (psqlInterface *PsqlInterface) TopRating(ctx context.Context, mode game.Mode) (*PostgresRating, error) {
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()
	return topRating(ctx, conn.Conn(), mode)
}

func topRating(ctx context.Context, conn PgxIface, mode game.Mode) (*PostgresRating, error) {
	ratings, err := leaderboard(ctx, conn, mode, SortMMR, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(ratings) > 0 {
		return ratings[0], nil
	}
	return nil, ErrNotFound
}

func (psqlInterface *PsqlInterface) Leaderboard(ctx context.Context, mode game.Mode, sort LeaderboardSort, limit, offset int) ([]*PostgresRating, error) {
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()
	return leaderboard(ctx, conn.Conn(), mode, sort, limit, offset)
}

func leaderboard(ctx context.Context, conn PgxIface, mode game.Mode, sort LeaderboardSort, limit, offset int) ([]*PostgresRating, error) {
	col, ok := sortColumns[sort]
	if !ok {
		col = sortColumns[SortMMR]
	}
	var ratings []*PostgresRating
	// col comes from sortColumns only
	query := fmt.Sprintf("SELECT * FROM ratings WHERE mode = $1 ORDER BY %s DESC, user_id ASC LIMIT $2 OFFSET $3", col)
	err := pgxscan.Select(ctx, conn, &ratings, query, string(mode), limit, offset)
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

func (psqlInterface *PsqlInterface) RenameRatings(ctx context.Context, userID, name string) error {
	uid, err := parseID(userID)
	if err != nil {
		return err
	}
	_, err = psqlInterface.Pool.Exec(ctx, "UPDATE ratings SET name = $1 WHERE user_id = $2;", strings.ToLower(name), uid)
	return err
}

func (psqlInterface *PsqlInterface) ResetAllRatings(ctx context.Context) error {
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return resetAllRatings(ctx, conn.Conn())
}

func resetAllRatings(ctx context.Context, conn PgxIface) error {
	_, err := conn.Exec(ctx, "UPDATE ratings SET mmr = $1, wins = 0, losses = 0, matches_played = 0, total_rounds_played = 0, "+
		"total_combat_score = 0, total_kills = 0, total_deaths = 0, average_combat_score = 0, kill_death_ratio = 0, "+
		"avg_kills = 0, performance_history = '{}', updated_at = $2;", DefaultMMR, time.Now().UTC())
	return err
}

func (psqlInterface *PsqlInterface) RankOf(ctx context.Context, userID string, mode game.Mode) (int, error) {
	uid, err := parseID(userID)
	if err != nil {
		return 0, err
	}
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()
	return rankOf(ctx, conn.Conn(), uid, mode)
}

// rankOf is the 1-based leaderboard position by mmr; players tied on mmr share a rank.
func rankOf(ctx context.Context, conn PgxIface, userID uint64, mode game.Mode) (int, error) {
	var rank int
	err := conn.QueryRow(ctx, "SELECT rank FROM (SELECT user_id, RANK() OVER (ORDER BY mmr DESC) AS rank "+
		"FROM ratings WHERE mode = $1) ranked WHERE user_id = $2", string(mode), userID).Scan(&rank)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return rank, err
}

func (psqlInterface *PsqlInterface) CountPlayers(ctx context.Context, mode game.Mode) (int, error) {
	var n int
	err := psqlInterface.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM ratings WHERE mode = $1", string(mode)).Scan(&n)
	return n, err
}

func (psqlInterface *PsqlInterface) GetSeason(ctx context.Context) (*PostgresSeason, error) {
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()
	return getSeason(ctx, conn.Conn())
}

func getSeason(ctx context.Context, conn PgxIface) (*PostgresSeason, error) {
	var seasons []*PostgresSeason
	err := pgxscan.Select(ctx, conn, &seasons, "SELECT * FROM seasons WHERE id = $1", CurrentSeasonID)
	if err != nil {
		return nil, err
	}
	if len(seasons) > 0 {
		return seasons[0], nil
	}
	return nil, ErrNotFound
}

func (psqlInterface *PsqlInterface) SaveSeason(ctx context.Context, s *PostgresSeason) error {
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return saveSeason(ctx, conn.Conn(), s)
}

func saveSeason(ctx context.Context, conn PgxIface, s *PostgresSeason) error {
	if s.ID == "" {
		s.ID = CurrentSeasonID
	}
	_, err := conn.Exec(ctx, "INSERT INTO seasons VALUES ($1, $2, $3, $4, $5, $6, $7, $8) "+
		"ON CONFLICT (id) DO UPDATE SET season_number = EXCLUDED.season_number, started_at = EXCLUDED.started_at, "+
		"reset_period_months = EXCLUDED.reset_period_months, is_closed = EXCLUDED.is_closed, "+
		"matches_played = EXCLUDED.matches_played, ended_at = EXCLUDED.ended_at, last_season = EXCLUDED.last_season;",
		s.ID, s.SeasonNumber, s.StartedAt, s.ResetPeriodMonths, s.IsClosed, s.MatchesPlayed, s.EndedAt, s.LastSeason)
	return err
}

func (psqlInterface *PsqlInterface) IncrementSeasonMatches(ctx context.Context) error {
	_, err := psqlInterface.Pool.Exec(ctx, "UPDATE seasons SET matches_played = matches_played + 1 WHERE id = $1;", CurrentSeasonID)
	return err
}

func (psqlInterface *PsqlInterface) ArchiveMatch(ctx context.Context, m *PostgresMatch) error {
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return archiveMatch(ctx, conn.Conn(), m)
}

// MatchArchived reports whether a match with this id has already been recorded.
func (psqlInterface *PsqlInterface) MatchArchived(ctx context.Context, matchID string) (bool, error) {
	conn, err := psqlInterface.Pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()
	return matchArchived(ctx, conn.Conn(), matchID)
}

func matchArchived(ctx context.Context, conn PgxIface, matchID string) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)", matchID).Scan(&exists)
	return exists, err
}

func archiveMatch(ctx context.Context, conn PgxIface, m *PostgresMatch) error {
	if m.ReportedAt.IsZero() {
		m.ReportedAt = time.Now().UTC()
	}
	_, err := conn.Exec(ctx, "INSERT INTO matches VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);",
		m.MatchID, m.SessionID, m.MatchName, m.Mode, m.MapName, m.SeasonNumber, m.ReporterID, m.ReportedAt, m.Payload)
	return err
}
