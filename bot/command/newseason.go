package command

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tenmans/tenmans/pkg/discord"
	"github.com/tenmans/tenmans/pkg/locale"
	"github.com/tenmans/tenmans/pkg/season"
	"github.com/tenmans/tenmans/pkg/storage"
)

const (
	SeasonConfirm = "confirm"
	SeasonAbort   = "abort"
)

var NewSeason = discordgo.ApplicationCommand{
	Name:        "newseason",
	Description: "Start a new season. Resets every player's MMR and stats unless told not to",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reset",
			Description: "Pass noreset to keep player stats",
			Required:    false,
		},
	},
}

var keepWords = map[string]bool{
	"noreset": true,
	"keep":    true,
	"false":   true,
	"0":       true,
}

// GetNewSeasonParams reports whether the new season should wipe player stats.
func GetNewSeasonParams(options []*discordgo.ApplicationCommandInteractionDataOption) bool {
	for _, opt := range options {
		if opt.Name == "reset" && keepWords[strings.ToLower(strings.TrimSpace(opt.StringValue()))] {
			return false
		}
	}
	return true
}

// NewSeasonConfirmResponse asks before a stat wipe.
func NewSeasonConfirmResponse() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Content: locale.LocalizeMessage(&i18n.Message{
				ID:    "commands.newseason.confirm",
				Other: "This will reset **every** player's MMR and stats. Are you sure?",
			}),
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label: locale.LocalizeMessage(&i18n.Message{
								ID:    "commands.newseason.confirm.yes",
								Other: "Reset and start season",
							}),
							Style:    discordgo.DangerButton,
							CustomID: discord.CustomID(ActionSeason, SeasonConfirm),
						},
						discordgo.Button{
							Label: locale.LocalizeMessage(&i18n.Message{
								ID:    "commands.newseason.confirm.no",
								Other: "Cancel",
							}),
							Style:    discordgo.SecondaryButton,
							CustomID: discord.CustomID(ActionSeason, SeasonAbort),
						},
					},
				},
			},
		},
	}
}

func NewSeasonAbortedResponse() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content: locale.LocalizeMessage(&i18n.Message{
				ID:    "commands.newseason.aborted",
				Other: "No new season was created.",
			}),
			Components: []discordgo.MessageComponent{},
		},
	}
}

func seasonCreatedContent(s *storage.PostgresSeason, reset bool) string {
	var resetLine string
	if reset {
		resetLine = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.newseason.reset",
			Other: "All player MMR + stats were reset.",
		})
	} else {
		resetLine = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.newseason.kept",
			Other: "Player stats were preserved (no reset).",
		})
	}
	return locale.LocalizeMessage(&i18n.Message{
		ID:    "commands.newseason.success",
		Other: "**Season {{.Number}}** created.\nStarts: {{.Start}}\nEnds: {{.End}}\n{{.Reset}}",
	}, map[string]interface{}{
		"Number": s.SeasonNumber,
		"Start":  discordTimestamp(s.StartedAt),
		"End":    discordTimestamp(season.End(s)),
		"Reset":  resetLine,
	})
}

func NewSeasonResponse(s *storage.PostgresSeason, reset bool) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: seasonCreatedContent(s, reset),
		},
	}
}

// NewSeasonConfirmedResponse replaces the confirmation prompt once the wipe is done.
func NewSeasonConfirmedResponse(s *storage.PostgresSeason) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    seasonCreatedContent(s, true),
			Components: []discordgo.MessageComponent{},
		},
	}
}
