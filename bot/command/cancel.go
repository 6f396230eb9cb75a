package command

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tenmans/tenmans/pkg/locale"
	"github.com/tenmans/tenmans/pkg/match"
)

var Cancel = discordgo.ApplicationCommand{
	Name:        "cancel",
	Description: "Cancel the current signup or match",
}

func CancelResponse(snap match.Snapshot, err error) *discordgo.InteractionResponse {
	switch {
	case err == nil:
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: locale.LocalizeMessage(&i18n.Message{
					ID:    "commands.cancel.success",
					Other: "Canceled {{.Name}}.",
				}, map[string]interface{}{
					"Name": snap.Name,
				}),
			},
		}
	case errors.Is(err, match.ErrNoSession):
		return PrivateResponse(locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.cancel.nosession",
			Other: "No signup is active to cancel.",
		}))
	case errors.Is(err, match.ErrNotCancellable):
		return PrivateResponse(locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.cancel.reporting",
			Other: "The match is being reported and can't be cancelled right now.",
		}))
	default:
		return PrivateErrorResponse(Cancel.Name, err)
	}
}
