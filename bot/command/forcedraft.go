package command

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/locale"
	"github.com/tenmans/tenmans/pkg/match"
)

var ForceDraft = discordgo.ApplicationCommand{
	Name:        "forcedraft",
	Description: "Skip the votes and start a captains draft with the current queue (dev mode)",
}

func ForceDraftDevOnlyResponse() *discordgo.InteractionResponse {
	return PrivateResponse(locale.LocalizeMessage(&i18n.Message{
		ID:    "commands.forcedraft.devonly",
		Other: "`/forcedraft` is only available in developer mode. Use `/toggledev` first.",
	}))
}

func ForceDraftResponse(snap match.Snapshot, err error) *discordgo.InteractionResponse {
	switch {
	case err == nil:
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: locale.LocalizeMessage(&i18n.Message{
					ID:    "commands.forcedraft.success",
					Other: "Draft forced with {{.Count}} players on {{.Map}}.",
				}, map[string]interface{}{
					"Count": len(snap.Queue),
					"Map":   game.DisplayMapName(snap.Map),
				}),
			},
		}
	case errors.Is(err, match.ErrNoSession):
		return NoSessionResponse()
	case errors.Is(err, match.ErrNotEnoughQueued):
		return PrivateResponse(locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.forcedraft.notenough",
			Other: "At least two players need to be queued to draft.",
		}))
	case errors.Is(err, match.ErrWrongPhase):
		return PrivateResponse(locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.forcedraft.phase",
			Other: "A draft can only be forced during signup or voting.",
		}))
	default:
		return PrivateErrorResponse(ForceDraft.Name, err)
	}
}
