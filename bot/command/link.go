package command

import (
	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tenmans/tenmans/pkg/locale"
)

type LinkStatus int

const (
	LinkSuccess LinkStatus = iota
	LinkBadFormat
	LinkTaken
	LinkAPIError
	LinkError
)

var Link = discordgo.ApplicationCommand{
	Name:        "link",
	Description: "Link your Riot account to your Discord account",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "riot_id",
			Description: "Your Riot ID, as Name#Tag",
			Required:    true,
		},
	},
}

func GetLinkParams(options []*discordgo.ApplicationCommandInteractionDataOption) string {
	if len(options) == 0 {
		return ""
	}
	return options[0].StringValue()
}

func LinkResponse(status LinkStatus, riotID string, err error) *discordgo.InteractionResponse {
	var content string
	switch status {
	case LinkSuccess:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.link.success",
			Other: "Successfully linked {{.RiotID}} to your Discord account.",
		}, map[string]interface{}{
			"RiotID": riotID,
		})
	case LinkBadFormat:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.link.badformat",
			Other: "Please provide your Riot ID in the format: `Name#Tag`",
		})
	case LinkTaken:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.link.taken",
			Other: "{{.RiotID}} is already linked to another Discord account.",
		}, map[string]interface{}{
			"RiotID": riotID,
		})
	case LinkAPIError:
		content = APIErrorMessage(err, locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.link.notfound",
			Other: "Could not find that Riot account. Double-check the name and tag.",
		}))
	default:
		return PrivateErrorResponse(Link.Name, err)
	}
	return PrivateResponse(content)
}
