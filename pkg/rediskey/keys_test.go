package rediskey

import (
	"strings"
	"testing"
)

func TestKeysAreNamespaced(t *testing.T) {
	keys := []string{
		SnowflakeLockID("1"),
		SessionLock("2"),
		DevMode("2"),
		CachedIdentity("3"),
		RequestsByType("message_edit"),
		UserRateLimitGeneral("3"),
		UserRateLimitSpecific("3", "report"),
		UserSoftban("3"),
		UserSoftbanCount("3"),
	}
	seen := map[string]bool{}
	for _, k := range keys {
		if !strings.HasPrefix(k, "tenmans:") {
			t.Errorf("key %s is missing the tenmans prefix", k)
		}
		if seen[k] {
			t.Errorf("key %s collides with another key", k)
		}
		seen[k] = true
	}
}
