package command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/locale"
)

const (
	ISO8601          = "2006-01-02T15:04:05-0700"
	DefaultOwnerRole = "Owner"
)

// All is all slash commands for the bot, ordered to match the help menu
var All = []*discordgo.ApplicationCommand{
	&Help,
	&Signup,
	&Report,
	&Link,
	&Stats,
	&Leaderboard,
	&Info,
	&Cancel,
	&NewSeason,
	&ToggleDev,
	&ForceDraft,
}

// Privileged commands need the owner role
var Privileged = map[string]bool{
	Cancel.Name:     true,
	NewSeason.Name:  true,
	ToggleDev.Name:  true,
	ForceDraft.Name: true,
}

func InsufficientPermissionsResponse(roleName string) *discordgo.InteractionResponse {
	return PrivateResponse(locale.LocalizeMessage(&i18n.Message{
		ID:    "commands.no_permissions",
		Other: "Sorry, you need the `{{.Role}}` role to issue that command.",
	}, map[string]interface{}{
		"Role": roleName,
	}))
}

func NoSessionResponse() *discordgo.InteractionResponse {
	return PrivateResponse(locale.LocalizeMessage(&i18n.Message{
		ID:    "commands.error.nosession",
		Other: "No match is currently active, use `/signup` to start one.",
	}))
}

func RateLimitResponse() *discordgo.InteractionResponse {
	return PrivateResponse(locale.LocalizeMessage(&i18n.Message{
		ID:    "commands.error.ratelimit",
		Other: "You're issuing commands too quickly! Please slow down.",
	}))
}

func getCommand(cmd string) *discordgo.ApplicationCommand {
	for _, v := range All {
		if v.Name == cmd {
			return v
		}
	}
	return nil
}

func localizeCommandDescription(cmd *discordgo.ApplicationCommand) string {
	return locale.LocalizeMessage(&i18n.Message{
		ID:    fmt.Sprintf("commands.%s.description", cmd.Name),
		Other: cmd.Description,
	})
}

func modeOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "mode",
		Description: description,
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{
				Name:  game.Standard.Label(),
				Value: string(game.Standard),
			},
			{
				Name:  game.TDM.Label(),
				Value: string(game.TDM),
			},
		},
		Required: false,
	}
}

// GetModeParam reads the optional mode option, defaulting to the standard queue.
func GetModeParam(options []*discordgo.ApplicationCommandInteractionDataOption) game.Mode {
	for _, opt := range options {
		if opt.Name == "mode" {
			if mode, err := game.ParseMode(opt.StringValue()); err == nil {
				return mode
			}
		}
	}
	return game.Standard
}

func PrivateResponse(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:   discordgo.MessageFlagsEphemeral,
			Content: content,
		},
	}
}

func PrivateErrorResponse(cmd string, err error) *discordgo.InteractionResponse {
	return PrivateResponse(locale.LocalizeMessage(&i18n.Message{
		ID:    "commands.error",
		Other: "Error executing `{{.Command}}`: `{{.Error}}`",
	}, map[string]interface{}{
		"Command": cmd,
		"Error":   errorText(err),
	}))
}

// DeferredResponse acknowledges a command that needs longer than the interaction deadline.
func DeferredResponse(private bool) *discordgo.InteractionResponse {
	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{},
	}
	if private {
		resp.Data.Flags = discordgo.MessageFlagsEphemeral
	}
	return resp
}
