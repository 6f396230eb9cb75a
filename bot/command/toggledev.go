package command

import (
	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tenmans/tenmans/pkg/locale"
)

var ToggleDev = discordgo.ApplicationCommand{
	Name:        "toggledev",
	Description: "Toggle developer mode for this server",
}

func ToggleDevResponse(enabled bool) *discordgo.InteractionResponse {
	var content string
	if enabled {
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.toggledev.enabled",
			Other: "Developer Mode Enabled",
		})
	} else {
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.toggledev.disabled",
			Other: "Developer Mode Disabled",
		})
	}
	return PrivateResponse(content)
}
