package command

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tenmans/tenmans/pkg/discord"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/locale"
	"github.com/tenmans/tenmans/pkg/storage"
)

type StatsStatus int

const (
	StatsSuccess StatsStatus = iota
	StatsNoRating
	StatsUnknownPlayer
	StatsBadRiotID
)

var Stats = discordgo.ApplicationCommand{
	Name:        "stats",
	Description: "Look up MMR and stats for a player",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "User to look up (defaults to you)",
			Required:    false,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "riot_id",
			Description: "Riot ID to look up, as Name#Tag",
			Required:    false,
		},
		modeOption("Which ladder to show"),
	},
}

type StatsParams struct {
	UserID string
	RiotID string
	Mode   game.Mode
}

// GetStatsParams defaults to the calling user when neither a user nor a riot id is given.
func GetStatsParams(s *discordgo.Session, callerID string, options []*discordgo.ApplicationCommandInteractionDataOption) StatsParams {
	params := StatsParams{
		UserID: callerID,
		Mode:   GetModeParam(options),
	}
	for _, opt := range options {
		switch opt.Name {
		case "user":
			if u := opt.UserValue(s); u != nil {
				params.UserID = u.ID
			}
		case "riot_id":
			// a pasted mention is looked up as a discord user
			if id, err := discord.ExtractUserIDFromText(opt.StringValue()); err == nil {
				params.UserID = id
			} else {
				params.RiotID = opt.StringValue()
			}
		}
	}
	return params
}

type StatsInfo struct {
	UserID string
	Mode   game.Mode
	Rating *storage.PostgresRating
	Rank   int
	Total  int
}

func StatsResponse(status StatsStatus, info StatsInfo) *discordgo.InteractionResponse {
	var content string
	switch status {
	case StatsNoRating:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.stats.norating",
			Other: "{{.User}} does not have an MMR yet. Participate in matches to earn one!",
		}, map[string]interface{}{
			"User": discord.MentionByUserID(info.UserID),
		})
	case StatsUnknownPlayer:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.stats.unknown",
			Other: "Could not find this player. Please check the name and tag and ensure they have played at least one match.",
		})
	case StatsBadRiotID:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.stats.badformat",
			Other: "Please provide the Riot ID in the format: `Name#Tag`",
		})
	case StatsSuccess:
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{statsEmbed(info)},
			},
		}
	}
	return PrivateResponse(content)
}

func rankLine(rank, total int) string {
	if rank == 1 {
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.stats.radiant",
			Other: "*Supersonic Radiant!* (Rank 1)",
		})
	}
	if rank <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", rank, total)
}

func statsEmbed(info StatsInfo) *discordgo.MessageEmbed {
	r := info.Rating
	field := func(id, name, value string) *discordgo.MessageEmbedField {
		return &discordgo.MessageEmbedField{
			Name:   locale.LocalizeMessage(&i18n.Message{ID: id, Other: name}),
			Value:  value,
			Inline: true,
		}
	}
	var updated string
	if !r.UpdatedAt.IsZero() {
		updated = r.UpdatedAt.Format(ISO8601)
	} else {
		updated = time.Now().Format(ISO8601)
	}
	return &discordgo.MessageEmbed{
		Title: locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.stats.title",
			Other: "{{.Name}}'s Stats",
		}, map[string]interface{}{
			"Name": r.Name,
		}),
		Description: discord.MentionByUserID(info.UserID),
		Timestamp:   updated,
		Color:       discord.ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			field("commands.stats.mmr", "MMR", fmt.Sprintf("%d", r.MMR)),
			field("commands.stats.rank", "Rank", rankLine(info.Rank, info.Total)),
			field("commands.stats.matches", "Matches Played", fmt.Sprintf("%d", r.MatchesPlayed)),
			field("commands.stats.wins", "Wins", fmt.Sprintf("%d", r.Wins)),
			field("commands.stats.losses", "Losses", fmt.Sprintf("%d", r.Losses)),
			field("commands.stats.winrate", "Win%", fmt.Sprintf("%.2f%%", r.WinRate())),
			field("commands.stats.rounds", "Total Rounds Played", fmt.Sprintf("%d", r.TotalRoundsPlayed)),
			field("commands.stats.acs", "Average Combat Score", fmt.Sprintf("%.2f", r.AverageCombatScore)),
			field("commands.stats.kd", "Kill/Death Ratio", fmt.Sprintf("%.2f", r.KillDeathRatio)),
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: info.Mode.Label(),
		},
	}
}
