package rediskey

const TotalPlayers = "tenmans:players:total"
const TotalMatches = "tenmans:matches:total"

const Commit = "tenmans:commit"
const Version = "tenmans:version"

func SnowflakeLockID(snowflake string) string {
	return "tenmans:snowflake:" + snowflake + ":lock"
}

func SessionLock(guildID string) string {
	return "tenmans:discord:" + guildID + ":session:lock"
}

func DevMode(guildID string) string {
	return "tenmans:discord:" + guildID + ":devmode"
}

func CachedIdentity(userID string) string {
	return "tenmans:cache:identity:" + userID
}

func RequestsByType(typeStr string) string {
	return "tenmans:requests:type:" + typeStr
}

func UserRateLimitGeneral(userID string) string {
	return "tenmans:ratelimit:user:" + userID
}

func UserRateLimitSpecific(userID, cmdType string) string {
	return "tenmans:ratelimit:user:" + cmdType + ":" + userID
}

func UserSoftban(userID string) string {
	return "tenmans:ratelimit:softban:user:" + userID
}

func UserSoftbanCount(userID string) string {
	return "tenmans:ratelimit:softban:count:user:" + userID
}
