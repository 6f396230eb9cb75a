package command

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tenmans/tenmans/pkg/discord"
	"github.com/tenmans/tenmans/pkg/locale"
)

var Info = discordgo.ApplicationCommand{
	Name:        "info",
	Description: "Bot and season info",
}

func InfoResponse(info discord.BotInfo) *discordgo.InteractionResponse {
	embed := discordgo.MessageEmbed{
		URL:  "",
		Type: "",
		Title: locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.info.title",
			Other: "Bot Info",
		}),
		Description: "",
		Timestamp:   time.Now().Format(ISO8601),
		Color:       discord.ColorDarkGreen,
		Footer: &discordgo.MessageEmbedFooter{
			Text: locale.LocalizeMessage(&i18n.Message{
				ID:    "commands.info.footer",
				Other: "v{{.Version}}-{{.Commit}}",
			},
				map[string]interface{}{
					"Version": info.Version,
					"Commit":  info.Commit,
				}),
		},
	}

	var version = info.Version
	if version == "" {
		version = "Unknown"
	}
	fields := make([]*discordgo.MessageEmbedField, 6)
	fields[0] = &discordgo.MessageEmbedField{
		Name: locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.info.version",
			Other: "Version",
		}),
		Value:  version,
		Inline: true,
	}
	fields[1] = &discordgo.MessageEmbedField{
		Name: locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.info.library",
			Other: "Library",
		}),
		Value:  "discordgo",
		Inline: true,
	}
	fields[2] = &discordgo.MessageEmbedField{
		Name: locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.info.season",
			Other: "Season",
		}),
		Value:  fmt.Sprintf("%d", info.Season),
		Inline: true,
	}
	fields[3] = &discordgo.MessageEmbedField{
		Name: locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.info.activesessions",
			Other: "Active Matches",
		}),
		Value:  fmt.Sprintf("%d", info.ActiveSessions),
		Inline: true,
	}
	fields[4] = &discordgo.MessageEmbedField{
		Name: locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.info.totalmatches",
			Other: "Total Matches",
		}),
		Value:  countOrUnknown(info.TotalMatches),
		Inline: true,
	}
	fields[5] = &discordgo.MessageEmbedField{
		Name: locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.info.totalplayers",
			Other: "Total Players",
		}),
		Value:  countOrUnknown(info.TotalPlayers),
		Inline: true,
	}

	embed.Fields = fields
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{&embed},
		},
	}
}

// counts come from a redis cache that reports -1 when it could not be filled
func countOrUnknown(n int64) string {
	if n < 0 {
		return "?"
	}
	return fmt.Sprintf("%d", n)
}
