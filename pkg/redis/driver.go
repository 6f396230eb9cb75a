package redis

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/bwmarrin/discordgo"
	redisv8 "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/metrics"
	"github.com/tenmans/tenmans/pkg/rediskey"
)

const LinearBackoffMs = 100
const MaxRetries = 10
const SnowflakeLockMs = 3000

// SessionLockTimeout bounds a single report; the lock is released as soon as the report finishes.
const SessionLockTimeout = 45 * time.Second

var ctx = context.Background()

type Params struct {
	Addr     string
	Username string
	Password string
}

type Driver struct {
	client *redisv8.Client
}

func (redisDriver *Driver) Init(params Params) error {
	rdb := redisv8.NewClient(&redisv8.Options{
		Addr:     params.Addr,
		Username: params.Username,
		Password: params.Password,
		DB:       0, // use default DB
	})
	redisDriver.client = rdb
	return nil
}

func (redisDriver *Driver) Client() *redisv8.Client {
	return redisDriver.client
}

func (redisDriver *Driver) Ping(c context.Context) error {
	return redisDriver.client.Ping(c).Err()
}

func (redisDriver *Driver) LockSnowflake(snowflake string) *redislock.Lock {
	locker := redislock.New(redisDriver.client)
	lock, err := locker.Obtain(ctx, rediskey.SnowflakeLockID(snowflake), time.Millisecond*SnowflakeLockMs, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil
	} else if err != nil {
		log.Error().Err(err).Str("snowflake", snowflake).Msg("failed to lock snowflake")
		return nil
	}
	return lock
}

// LockSession serializes report processing for a guild across replicas. ok is false when another report holds it.
func (redisDriver *Driver) LockSession(c context.Context, guildID string) (release func(), ok bool) {
	locker := redislock.New(redisDriver.client)
	lock, err := locker.Obtain(c, rediskey.SessionLock(guildID), SessionLockTimeout, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(time.Millisecond*LinearBackoffMs), MaxRetries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false
	} else if err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("failed to lock session")
		return nil, false
	}
	return func() {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Error().Err(err).Str("guild", guildID).Msg("failed to release session lock")
		}
	}, true
}

func (redisDriver *Driver) SetDevMode(c context.Context, guildID string, on bool) error {
	if !on {
		return redisDriver.client.Del(c, rediskey.DevMode(guildID)).Err()
	}
	return redisDriver.client.Set(c, rediskey.DevMode(guildID), "1", 0).Err()
}

func (redisDriver *Driver) IsDevMode(c context.Context, guildID string) bool {
	v, err := redisDriver.client.Exists(c, rediskey.DevMode(guildID)).Result()
	if err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("failed to read dev mode")
		return false
	}
	return v == 1
}

func (redisDriver *Driver) SetVersionAndCommit(version, commit string) {
	if err := redisDriver.client.Set(ctx, rediskey.Version, version, 0).Err(); err != nil {
		log.Error().Err(err).Msg("failed to store version")
	}
	if err := redisDriver.client.Set(ctx, rediskey.Commit, commit, 0).Err(); err != nil {
		log.Error().Err(err).Msg("failed to store commit")
	}
}

func (redisDriver *Driver) RecordDiscordRequests(requestType metrics.EventType, num int64) {
	metrics.RecordDiscordRequests(redisDriver.client, requestType, num)
}

func (redisDriver *Driver) RateLimitEventCallback(_ *discordgo.Session, rl *discordgo.RateLimit) {
	log.Warn().Str("bucket", rl.Bucket).Str("message", rl.Message).Msg("discord rate limit")
	redisDriver.RecordDiscordRequests(metrics.InvalidRequest, 1)
}

func (redisDriver *Driver) Close() error {
	return redisDriver.client.Close()
}
