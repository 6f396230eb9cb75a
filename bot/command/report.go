package command

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tenmans/tenmans/pkg/discord"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/henrik"
	"github.com/tenmans/tenmans/pkg/ledger"
	"github.com/tenmans/tenmans/pkg/locale"
	"github.com/tenmans/tenmans/pkg/match"
	"github.com/tenmans/tenmans/pkg/season"
	"github.com/tenmans/tenmans/pkg/team"
)

var Report = discordgo.ApplicationCommand{
	Name:        "report",
	Description: "Report the result of the current match from your latest game",
}

func ProcessingResponse() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: locale.LocalizeMessage(&i18n.Message{
				ID:    "commands.report.processing",
				Other: "🔄 Processing match report... Please wait while I fetch the match data.",
			}),
		},
	}
}

// APIErrorMessage explains a HenrikDev failure. notFound overrides the 404 text, which depends on what was looked up.
func APIErrorMessage(err error, notFound string) string {
	kind, ok := henrik.KindOf(err)
	if !ok {
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "henrik.error.network",
			Other: "Network error reaching HenrikDev API: {{.Error}}",
		}, map[string]interface{}{
			"Error": err.Error(),
		})
	}
	switch kind {
	case henrik.KindAuth:
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "henrik.error.auth",
			Other: "HenrikDev API rejected the request (401). Check that your API key is valid.",
		})
	case henrik.KindNotFound:
		return notFound
	case henrik.KindRateLimited:
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "henrik.error.ratelimit",
			Other: "Rate limit hit (429). Try again in a bit.",
		})
	case henrik.KindUnavailable:
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "henrik.error.unavailable",
			Other: "Riot/HenrikDev upstream is temporarily unavailable (503). Try again later.",
		})
	default:
		var se *henrik.StatusError
		code := 0
		if errors.As(err, &se) {
			code = se.Code
		}
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "henrik.error.generic",
			Other: "Unexpected error from API ({{.Code}}).",
		}, map[string]interface{}{
			"Code": code,
		})
	}
}

// ReportErrorMessage is the private reply for a report that was not applied.
func ReportErrorMessage(err error) string {
	var mapErr *match.MapMismatchError
	var missingErr *match.MismatchError
	switch {
	case errors.Is(err, match.ErrNoSession), errors.Is(err, match.ErrNotInProgress):
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.report.nomatch",
			Other: "No match is currently active, use `/signup` to start one.",
		})
	case errors.Is(err, match.ErrNotQueued):
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.report.notqueued",
			Other: "Only players in this match can report it.",
		})
	case errors.Is(err, match.ErrReportInFlight):
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.report.inflight",
			Other: "This match is already being reported.",
		})
	case errors.Is(err, match.ErrAlreadyReported):
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.report.duplicate",
			Other: "Your most recent match has already been counted. Play this match before reporting it.",
		})
	case errors.Is(err, match.ErrNotLinked):
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.report.unlinked",
			Other: "You need to link your Riot account first. Use `/link Name#Tag`.",
		})
	case errors.As(err, &mapErr):
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.report.wrongmap",
			Other: "Map doesn't match your most recent match. Unable to report it. ({{.Error}})",
		}, map[string]interface{}{
			"Error": mapErr.Error(),
		})
	case errors.As(err, &missingErr):
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.report.mismatch",
			Other: "The most recent match did not include every queued player. Missing: {{.Players}}",
		}, map[string]interface{}{
			"Players": strings.Join(missingErr.Missing, ", "),
		})
	case errors.Is(err, match.ErrAmbiguousTeams):
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.report.teams",
			Other: "Could not match the winning team to our teams.",
		})
	case errors.Is(err, match.ErrNoWinner):
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.report.nowinner",
			Other: "Could not determine the winning team.",
		})
	case errors.Is(err, henrik.ErrNoMatches):
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.report.nodata",
			Other: "Could not retrieve match data.",
		})
	}
	var fetchErr *match.FetchError
	if errors.As(err, &fetchErr) {
		return APIErrorMessage(fetchErr.Err, locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.report.notfound",
			Other: "No recent matches found for your Riot ID (404).",
		}))
	}
	return locale.LocalizeMessage(&i18n.Message{
		ID:    "commands.report.error",
		Other: "Couldn't report the match: {{.Error}}",
	}, map[string]interface{}{
		"Error": err.Error(),
	})
}

func ReportEmbed(res *match.ReportResult) *discordgo.MessageEmbed {
	byUser := make(map[string]*ledger.Result, len(res.Players))
	for _, p := range res.Players {
		byUser[p.UserID] = p
	}
	winner, loser := res.Session.Teams.Team1, res.Session.Teams.Team2
	winnerRounds, loserRounds := res.Resolution.Team1Rounds, res.Resolution.Team2Rounds
	if res.Resolution.Winner == 2 {
		winner, loser = loser, winner
		winnerRounds, loserRounds = loserRounds, winnerRounds
	}

	return &discordgo.MessageEmbed{
		Title: locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.report.title",
			Other: "{{.Name}} reported",
		}, map[string]interface{}{
			"Name": res.Session.Name,
		}),
		Description: locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.report.description",
			Other: "Match stats and MMR updated! **Team {{.Winner}}** won on {{.Map}} ({{.WinnerRounds}}-{{.LoserRounds}}).",
		}, map[string]interface{}{
			"Winner":       res.Resolution.Winner,
			"Map":          game.DisplayMapName(res.Session.Map),
			"WinnerRounds": winnerRounds,
			"LoserRounds":  loserRounds,
		}),
		Timestamp: time.Now().Format(ISO8601),
		Color:     discord.ColorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: locale.LocalizeMessage(&i18n.Message{
					ID:    "commands.report.winners",
					Other: "🏆 Winners",
				}),
				Value:  ratingChanges(winner, byUser),
				Inline: true,
			},
			{
				Name: locale.LocalizeMessage(&i18n.Message{
					ID:    "commands.report.losers",
					Other: "Losers",
				}),
				Value:  ratingChanges(loser, byUser),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%s | %s", res.Session.Mode.Label(), res.MatchID),
		},
	}
}

func ratingChanges(players []team.Player, byUser map[string]*ledger.Result) string {
	var b strings.Builder
	for _, p := range players {
		r, ok := byUser[p.UserID]
		if !ok {
			b.WriteString(fmt.Sprintf("%s `%s`\n", discord.MentionByUserID(p.UserID), p.Name))
			continue
		}
		b.WriteString(fmt.Sprintf("%s %d → %d (%+d)\n", discord.MentionByUserID(p.UserID), r.Before.MMR, r.After.MMR, r.Delta))
	}
	if b.Len() == 0 {
		return "\u200B"
	}
	return b.String()
}

func NewTopPlayerMessage(name string) string {
	return locale.LocalizeMessage(&i18n.Message{
		ID:    "commands.report.newtop",
		Other: "{{.Name}} is now supersonic radiant!",
	}, map[string]interface{}{
		"Name": strings.ToLower(name),
	})
}

func SeasonEndedEmbed(t *season.Transition) *discordgo.MessageEmbed {
	next, end := 0, ""
	if t.Opened != nil {
		next, end = t.Opened.SeasonNumber, discordTimestamp(season.End(t.Opened))
	}
	winner := t.Closed.WinnerName
	if t.Closed.WinnerPlayerID != nil {
		winner = fmt.Sprintf("%s (%s)", discord.MentionByUserID(fmt.Sprintf("%d", *t.Closed.WinnerPlayerID)), t.Closed.WinnerName)
	}
	return &discordgo.MessageEmbed{
		Title: locale.LocalizeMessage(&i18n.Message{
			ID:    "season.ended.title",
			Other: "Season {{.Number}} has ended!",
		}, map[string]interface{}{
			"Number": t.Closed.SeasonNumber,
		}),
		Description: locale.LocalizeMessage(&i18n.Message{
			ID:    "season.ended.description",
			Other: "Champion: {{.Winner}} with {{.MMR}} MMR after {{.Matches}} matches. Season {{.Next}} ends {{.End}}.",
		}, map[string]interface{}{
			"Winner":  winner,
			"MMR":     t.Closed.WinnerMMR,
			"Matches": t.Closed.MatchesPlayed,
			"Next":    next,
			"End":     end,
		}),
		Color: discord.ColorPurple,
	}
}

func discordTimestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:f>", t.Unix())
}
