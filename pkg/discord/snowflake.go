package discord

import (
	"errors"
	"strconv"
	"time"
)

const DiscordEpoch = 1420070400000

func ValidateSnowflake(snowflake string) error {
	if snowflake == "" {
		return errors.New("empty string")
	}

	num, err := strconv.ParseUint(snowflake, 10, 64)
	if err != nil {
		return err
	}

	if num < DiscordEpoch {
		return errors.New("too small (prior to discord epoch)")
	}

	return nil
}

// SnowflakeTime is when the snowflake was minted.
func SnowflakeTime(snowflake string) (time.Time, error) {
	if err := ValidateSnowflake(snowflake); err != nil {
		return time.Time{}, err
	}
	num, _ := strconv.ParseUint(snowflake, 10, 64)
	ms := int64(num>>22) + DiscordEpoch
	return time.UnixMilli(ms).UTC(), nil
}
