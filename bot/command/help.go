package command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tenmans/tenmans/pkg/discord"
	"github.com/tenmans/tenmans/pkg/locale"
)

var Help = discordgo.ApplicationCommand{
	Name:        "help",
	Description: "Help menu for the 10-mans bot",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "command",
			Description: "Command to get help for",
			Required:    false,
		},
	},
}

// filled in here because Help is itself a member of All
func init() {
	for _, v := range All {
		Help.Options[0].Choices = append(Help.Options[0].Choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  v.Name,
			Value: v.Name,
		})
	}
}

func HelpResponse(options []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionResponse {
	var embed *discordgo.MessageEmbed
	if len(options) > 0 {
		if cmd := getCommand(options[0].StringValue()); cmd != nil {
			embed = constructEmbedForCommand(cmd)
		}
	}
	if embed == nil {
		embed = helpEmbed()
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:  discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	}
}

func helpEmbed() *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(All))
	for _, v := range All {
		name := fmt.Sprintf("`/%s`", v.Name)
		if Privileged[v.Name] {
			name += " 🔒"
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   name,
			Value:  localizeCommandDescription(v),
			Inline: true,
		})
	}
	return &discordgo.MessageEmbed{
		Title: locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.help.title",
			Other: "Help Menu",
		}),
		Description: locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.help.description",
			Other: "Link your Riot ID with `/link`, then join a queue with `/signup`. Commands marked 🔒 need the owner role.",
		}),
		Color:  discord.ColorGold,
		Fields: fields,
	}
}

func constructEmbedForCommand(cmd *discordgo.ApplicationCommand) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(cmd.Options))
	for _, opt := range cmd.Options {
		name := opt.Name
		if !opt.Required {
			name = "[" + name + "]"
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   name,
			Value:  opt.Description,
			Inline: true,
		})
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("`/%s`", cmd.Name),
		Description: localizeCommandDescription(cmd),
		Color:       discord.ColorGold,
		Fields:      fields,
	}
}
