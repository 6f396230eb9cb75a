package discord

import (
	"errors"
	"fmt"
	"strings"
)

func MentionByUserID(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

func MentionByChannelID(channelID string) string {
	return fmt.Sprintf("<#%s>", channelID)
}

func MentionByRoleID(roleID string) string {
	return fmt.Sprintf("<@&%s>", roleID)
}

func ExtractUserIDFromText(mention string) (string, error) {
	mention = strings.TrimSpace(mention)
	// nickname format
	switch {
	case strings.HasPrefix(mention, "<@!") && strings.HasSuffix(mention, ">"):
		err := ValidateSnowflake(mention[3 : len(mention)-1])
		if err == nil {
			return mention[3 : len(mention)-1], nil
		}
		return "", err
	case strings.HasPrefix(mention, "<@&"):
		return "", errors.New("role mentions are not users")
	case strings.HasPrefix(mention, "<@") && strings.HasSuffix(mention, ">"):
		err := ValidateSnowflake(mention[2 : len(mention)-1])
		if err == nil {
			return mention[2 : len(mention)-1], nil
		}
		return "", err
	default:
		err := ValidateSnowflake(mention)
		if err == nil {
			return mention, nil
		}
		return "", errors.New("mention does not conform to the correct format")
	}
}

const customIDSeparator = ":"

// CustomID packs a component action and its arguments into one custom_id.
func CustomID(action string, args ...string) string {
	return strings.Join(append([]string{action}, args...), customIDSeparator)
}

// ParseCustomID splits a custom_id built by CustomID.
func ParseCustomID(id string) (string, []string) {
	parts := strings.Split(id, customIDSeparator)
	return parts[0], parts[1:]
}
