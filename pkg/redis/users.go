package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/rediskey"
	"github.com/tenmans/tenmans/pkg/storage"
)

const GlobalUserRateLimitDuration = 1 * time.Second

// when a user exceeds the threshold, they're ignored for this long
const SoftbanDuration = 5 * time.Minute

// how many violations before a softban
const SoftbanThreshold = 3

// how far back the bot should look for violations. Softban is invoked by violations>threshold in this amt of time
const SoftbanExpiration = 10 * time.Minute

const CachedIdentityExpiration = time.Hour * 12

func (redisDriver *Driver) GetCachedIdentity(c context.Context, userID string) (*storage.PostgresIdentity, bool) {
	v, err := redisDriver.client.Get(c, rediskey.CachedIdentity(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("failed to read cached identity")
		return nil, false
	}
	var identity storage.PostgresIdentity
	if err := json.Unmarshal([]byte(v), &identity); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("malformed cached identity")
		return nil, false
	}
	return &identity, true
}

func (redisDriver *Driver) SetCachedIdentity(c context.Context, identity *storage.PostgresIdentity) error {
	b, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return redisDriver.client.Set(c, rediskey.CachedIdentity(fmt.Sprintf("%d", identity.UserID)), b, CachedIdentityExpiration).Err()
}

func (redisDriver *Driver) ForgetCachedIdentity(c context.Context, userID string) {
	if err := redisDriver.client.Del(c, rediskey.CachedIdentity(userID)).Err(); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("failed to drop cached identity")
	}
}

func (redisDriver *Driver) MarkUserRateLimit(userID, cmdType string, ttl time.Duration) {
	err := redisDriver.client.Set(context.Background(), rediskey.UserRateLimitGeneral(userID), "", GlobalUserRateLimitDuration).Err()
	if err != nil {
		log.Error().Err(err).Msg("failed to mark rate limit")
	}

	if cmdType != "" && ttl > 0 {
		err = redisDriver.client.Set(context.Background(), rediskey.UserRateLimitSpecific(userID, cmdType), "", ttl).Err()
		if err != nil {
			log.Error().Err(err).Msg("failed to mark command rate limit")
		}
	}
}

func (redisDriver *Driver) IncrementRateLimitExceed(userID string) bool {
	t := time.Now().Unix()
	_, err := redisDriver.client.ZAdd(context.Background(), rediskey.UserSoftbanCount(userID), &redis.Z{
		Score:  float64(t),
		Member: float64(t),
	}).Result()
	if err != nil {
		log.Error().Err(err).Msg("failed to count rate limit violation")
	}

	beforeStr := fmt.Sprintf("%d", time.Now().Add(-SoftbanExpiration).Unix())

	count, err := redisDriver.client.ZCount(context.Background(), rediskey.UserSoftbanCount(userID),
		beforeStr,
		fmt.Sprintf("%d", t),
	).Result()
	if err != nil {
		log.Error().Err(err).Msg("failed to read rate limit violations")
	}
	if count > SoftbanThreshold {
		redisDriver.softbanUser(userID)
		return true
	}

	go redisDriver.client.ZRemRangeByScore(context.Background(), rediskey.UserSoftbanCount(userID), "-inf", beforeStr)

	return false
}

func (redisDriver *Driver) softbanUser(userID string) {
	err := redisDriver.client.Set(context.Background(), rediskey.UserSoftban(userID), "", SoftbanDuration).Err()
	if err != nil {
		log.Error().Err(err).Msg("failed to softban user")
	}
}

func (redisDriver *Driver) IsUserBanned(userID string) bool {
	return redisDriver.exists(rediskey.UserSoftban(userID))
}

func (redisDriver *Driver) IsUserRateLimitedGeneral(userID string) bool {
	return redisDriver.exists(rediskey.UserRateLimitGeneral(userID))
}

func (redisDriver *Driver) IsUserRateLimitedSpecific(userID string, cmdType string) bool {
	return redisDriver.exists(rediskey.UserRateLimitSpecific(userID, cmdType))
}

func (redisDriver *Driver) exists(key string) bool {
	v, err := redisDriver.client.Exists(context.Background(), key).Result()
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to check key")
		return false
	}
	return v == 1 // =1 means the key is present, and thus rate-limited
}
