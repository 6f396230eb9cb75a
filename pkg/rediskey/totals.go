package rediskey

import (
	"context"
	"time"

	"github.com/georgysavva/scany/pgxscan"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
)

const TotalsExpiration = time.Minute * 5

const NotFound = -1

func GetTotalPlayers(ctx context.Context, client *redis.Client) int64 {
	return getTotal(ctx, client, TotalPlayers)
}

func GetTotalMatches(ctx context.Context, client *redis.Client) int64 {
	return getTotal(ctx, client, TotalMatches)
}

func getTotal(ctx context.Context, client *redis.Client, key string) int64 {
	v, err := client.Get(ctx, key).Int64()
	if err == nil {
		return v
	}
	return NotFound
}

func RefreshTotalPlayers(ctx context.Context, client *redis.Client, pool *pgxpool.Pool) int64 {
	return refreshTotal(ctx, client, TotalPlayers, queryCount(ctx, pool, "SELECT COUNT(DISTINCT user_id) FROM ratings"))
}

func RefreshTotalMatches(ctx context.Context, client *redis.Client, pool *pgxpool.Pool) int64 {
	return refreshTotal(ctx, client, TotalMatches, queryCount(ctx, pool, "SELECT COUNT(*) FROM matches"))
}

func refreshTotal(ctx context.Context, client *redis.Client, key string, v int64) int64 {
	if v != NotFound {
		err := client.Set(ctx, key, v, TotalsExpiration).Err()
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to cache total")
		}
	}
	return v
}

func queryCount(ctx context.Context, pool *pgxpool.Pool, query string) int64 {
	var r []int64
	err := pgxscan.Select(ctx, pool, &r, query)
	if err != nil || len(r) < 1 {
		return NotFound
	}
	return r[0]
}
