package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tenmans/tenmans/pkg/discord"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/locale"
	"github.com/tenmans/tenmans/pkg/storage"
)

const LeaderboardPageSize = 10

var Leaderboard = discordgo.ApplicationCommand{
	Name:        "leaderboard",
	Description: "View the leaderboard",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "sort",
			Description: "Stat to rank players by",
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "MMR", Value: string(storage.SortMMR)},
				{Name: "Wins", Value: string(storage.SortWins)},
				{Name: "Losses", Value: string(storage.SortLosses)},
				{Name: "K/D", Value: string(storage.SortKD)},
				{Name: "ACS", Value: string(storage.SortACS)},
			},
			Required: false,
		},
		modeOption("Which ladder to show"),
	},
}

func GetLeaderboardParams(options []*discordgo.ApplicationCommandInteractionDataOption) (game.Mode, storage.LeaderboardSort) {
	sort := storage.SortMMR
	for _, opt := range options {
		if opt.Name == "sort" {
			sort = storage.ParseLeaderboardSort(opt.StringValue())
		}
	}
	return GetModeParam(options), sort
}

type LeaderboardPage struct {
	Mode    game.Mode
	Sort    storage.LeaderboardSort
	Page    int
	Total   int
	Ratings []*storage.PostgresRating
}

// TotalPages is never less than one so an empty ladder still renders.
func (p LeaderboardPage) TotalPages() int {
	pages := (p.Total + LeaderboardPageSize - 1) / LeaderboardPageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage keeps a requested page inside the ladder.
func ClampPage(page, total int) int {
	p := LeaderboardPage{Total: total}
	if page >= p.TotalPages() {
		page = p.TotalPages() - 1
	}
	if page < 0 {
		page = 0
	}
	return page
}

func LeaderboardPageID(mode game.Mode, sort storage.LeaderboardSort, page int) string {
	return discord.CustomID(ActionLeaderboard, string(mode), string(sort), strconv.Itoa(page))
}

// ParseLeaderboardPageID reverses LeaderboardPageID.
func ParseLeaderboardPageID(args []string) (game.Mode, storage.LeaderboardSort, int, bool) {
	if len(args) != 3 {
		return "", "", 0, false
	}
	mode, err := game.ParseMode(args[0])
	if err != nil {
		return "", "", 0, false
	}
	page, err := strconv.Atoi(args[2])
	if err != nil {
		return "", "", 0, false
	}
	return mode, storage.ParseLeaderboardSort(args[1]), page, true
}

func sortValue(sort storage.LeaderboardSort, r *storage.PostgresRating) string {
	switch sort {
	case storage.SortWins:
		return fmt.Sprintf("%d wins", r.Wins)
	case storage.SortLosses:
		return fmt.Sprintf("%d losses", r.Losses)
	case storage.SortKD:
		return fmt.Sprintf("%.2f K/D", r.KillDeathRatio)
	case storage.SortACS:
		return fmt.Sprintf("%.2f ACS", r.AverageCombatScore)
	default:
		return fmt.Sprintf("%d MMR", r.MMR)
	}
}

func leaderboardEmbed(p LeaderboardPage) *discordgo.MessageEmbed {
	var b strings.Builder
	for i, r := range p.Ratings {
		name := r.Name
		if name == "" {
			name = discord.MentionByUserID(strconv.FormatUint(r.UserID, 10))
		}
		b.WriteString(fmt.Sprintf("**%d.** %s | %s | %d-%d\n",
			p.Page*LeaderboardPageSize+i+1, name, sortValue(p.Sort, r), r.Wins, r.Losses))
	}
	if b.Len() == 0 {
		b.WriteString(locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.leaderboard.empty",
			Other: "No players have a rating yet.",
		}))
	}
	return &discordgo.MessageEmbed{
		Title: locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.leaderboard.title",
			Other: "{{.Mode}} Leaderboard ({{.Sort}})",
		}, map[string]interface{}{
			"Mode": p.Mode.Label(),
			"Sort": strings.ToUpper(string(p.Sort)),
		}),
		Description: b.String(),
		Color:       discord.ColorGold,
		Footer: &discordgo.MessageEmbedFooter{
			Text: locale.LocalizeMessage(&i18n.Message{
				ID:    "commands.leaderboard.footer",
				Other: "Page {{.Page}}/{{.Pages}}",
			}, map[string]interface{}{
				"Page":  p.Page + 1,
				"Pages": p.TotalPages(),
			}),
		},
	}
}

func leaderboardComponents(p LeaderboardPage) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "◀",
					Style:    discordgo.SecondaryButton,
					CustomID: LeaderboardPageID(p.Mode, p.Sort, p.Page-1),
					Disabled: p.Page <= 0,
				},
				discordgo.Button{
					Label:    "▶",
					Style:    discordgo.SecondaryButton,
					CustomID: LeaderboardPageID(p.Mode, p.Sort, p.Page+1),
					Disabled: p.Page >= p.TotalPages()-1,
				},
			},
		},
	}
}

func LeaderboardResponse(p LeaderboardPage) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{leaderboardEmbed(p)},
			Components: leaderboardComponents(p),
		},
	}
}

// LeaderboardPageResponse edits the pager message in place.
func LeaderboardPageResponse(p LeaderboardPage) *discordgo.InteractionResponse {
	resp := LeaderboardResponse(p)
	resp.Type = discordgo.InteractionResponseUpdateMessage
	return resp
}
