package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tenmans/tenmans/bot/command"
	"github.com/tenmans/tenmans/pkg/discord"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/locale"
	"github.com/tenmans/tenmans/pkg/match"
	"github.com/tenmans/tenmans/pkg/team"
)

const (
	StyleSingle = "single"
	StyleDouble = "double"

	// discord caps select menus at 25 options
	maxSelectOptions = 25
)

func voteTitle(phase string) string {
	switch phase {
	case match.VoteStrategy:
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "responses.vote.strategy",
			Other: "Team formation",
		})
	case match.VoteMapType:
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "responses.vote.maptype",
			Other: "Map pool",
		})
	default:
		return locale.LocalizeMessage(&i18n.Message{
			ID:    "responses.vote.map",
			Other: "Map",
		})
	}
}

func optionLabel(phase, option string) string {
	if phase == match.VoteMap {
		return game.DisplayMapName(option)
	}
	return option
}

func playerLine(p team.Player) string {
	return fmt.Sprintf("%s (%d)", discord.MentionByUserID(p.UserID), p.MMR)
}

func playerList(players []team.Player) string {
	if len(players) == 0 {
		return "-"
	}
	lines := make([]string, len(players))
	for i, p := range players {
		lines[i] = playerLine(p)
	}
	return strings.Join(lines, "\n")
}

// sessionResponse renders the live status message for whatever phase the session is in.
func sessionResponse(snap match.Snapshot) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	switch snap.Phase {
	case game.SigningUp.String():
		return signupEmbed(snap), signupComponents(snap)
	case game.Voting.String():
		return voteEmbed(snap), voteComponents(snap)
	case game.FormingTeams.String():
		if snap.Draft != nil {
			return draftEmbed(snap), draftComponents(snap)
		}
		return teamsEmbed(snap), []discordgo.MessageComponent{}
	default:
		return teamsEmbed(snap), []discordgo.MessageComponent{}
	}
}

func baseEmbed(snap match.Snapshot, title string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("%s | %s", snap.Name, title),
		Timestamp: time.Now().Format(command.ISO8601),
		Color:     color,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%s | %s", snap.Mode.Label(), snap.ID),
		},
	}
}

func signupEmbed(snap match.Snapshot) *discordgo.MessageEmbed {
	embed := baseEmbed(snap, locale.LocalizeMessage(&i18n.Message{
		ID:    "responses.signup.title",
		Other: "Signups",
	}), discord.ColorGreen)
	embed.Description = locale.LocalizeMessage(&i18n.Message{
		ID:    "responses.signup.description",
		Other: "{{.Starter}} started a queue! Press **Join** to play. Link your Riot account first with `/link`.",
	}, map[string]interface{}{
		"Starter": discord.MentionByUserID(snap.StarterID),
	})
	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name: locale.LocalizeMessage(&i18n.Message{
				ID:    "responses.signup.queue",
				Other: "Queue ({{.Count}}/{{.Capacity}})",
			}, map[string]interface{}{
				"Count":    len(snap.Queue),
				"Capacity": snap.Capacity,
			}),
			Value:  playerList(snap.Queue),
			Inline: false,
		},
	}
	return embed
}

func signupComponents(snap match.Snapshot) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label: locale.LocalizeMessage(&i18n.Message{
						ID:    "responses.signup.join",
						Other: "Join",
					}),
					Style:    discordgo.SuccessButton,
					CustomID: discord.CustomID(command.ActionJoin, snap.ID),
				},
				discordgo.Button{
					Label: locale.LocalizeMessage(&i18n.Message{
						ID:    "responses.signup.leave",
						Other: "Leave",
					}),
					Style:    discordgo.DangerButton,
					CustomID: discord.CustomID(command.ActionLeave, snap.ID),
				},
			},
		},
	}
}

// decidedFields lists what earlier votes already settled.
func decidedFields(snap match.Snapshot) []*discordgo.MessageEmbedField {
	fields := make([]*discordgo.MessageEmbedField, 0, 3)
	if snap.Strategy != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   voteTitle(match.VoteStrategy),
			Value:  string(snap.Strategy),
			Inline: true,
		})
	}
	if snap.MapType != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   voteTitle(match.VoteMapType),
			Value:  string(snap.MapType),
			Inline: true,
		})
	}
	if snap.Map != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   voteTitle(match.VoteMap),
			Value:  game.DisplayMapName(snap.Map),
			Inline: true,
		})
	}
	return fields
}

func voteEmbed(snap match.Snapshot) *discordgo.MessageEmbed {
	if snap.Vote == nil {
		embed := baseEmbed(snap, locale.LocalizeMessage(&i18n.Message{
			ID:    "responses.vote.tallying.title",
			Other: "Voting",
		}), discord.ColorPurple)
		embed.Description = locale.LocalizeMessage(&i18n.Message{
			ID:    "responses.vote.tallying",
			Other: "Tallying votes...",
		})
		embed.Fields = decidedFields(snap)
		return embed
	}

	embed := baseEmbed(snap, locale.LocalizeMessage(&i18n.Message{
		ID:    "responses.vote.title",
		Other: "Vote: {{.Phase}}",
	}, map[string]interface{}{
		"Phase": voteTitle(snap.Vote.Name),
	}), discord.ColorPurple)
	embed.Description = locale.LocalizeMessage(&i18n.Message{
		ID:    "responses.vote.description",
		Other: "Queued players, pick an option below. The vote closes once a majority agrees or time runs out.",
	})
	fields := decidedFields(snap)
	for _, option := range snap.Vote.Options {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: optionLabel(snap.Vote.Name, option),
			Value: locale.LocalizeMessage(&i18n.Message{
				ID:    "responses.vote.count",
				One:   "{{.Count}} vote",
				Other: "{{.Count}} votes",
			}, map[string]interface{}{
				"Count": snap.Vote.Tally[option],
			}, snap.Vote.Tally[option]),
			Inline: true,
		})
	}
	embed.Fields = fields
	return embed
}

func voteComponents(snap match.Snapshot) []discordgo.MessageComponent {
	if snap.Vote == nil {
		return []discordgo.MessageComponent{}
	}
	options := make([]discordgo.SelectMenuOption, 0, len(snap.Vote.Options))
	for _, option := range snap.Vote.Options {
		options = append(options, discordgo.SelectMenuOption{
			Label: optionLabel(snap.Vote.Name, option),
			Value: option,
		})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID: discord.CustomID(command.ActionVote, snap.Vote.Name, snap.ID),
					Placeholder: locale.LocalizeMessage(&i18n.Message{
						ID:    "responses.vote.placeholder",
						Other: "Cast your vote",
					}),
					Options: options,
				},
			},
		},
	}
}

func draftEmbed(snap match.Snapshot) *discordgo.MessageEmbed {
	d := snap.Draft
	embed := baseEmbed(snap, locale.LocalizeMessage(&i18n.Message{
		ID:    "responses.draft.title",
		Other: "Captain draft",
	}), discord.ColorGold)
	if !d.StyleChosen {
		embed.Description = locale.LocalizeMessage(&i18n.Message{
			ID:    "responses.draft.style",
			Other: "Captains are {{.Captain1}} and {{.Captain2}}. {{.Captain2}}, choose the pick order.",
		}, map[string]interface{}{
			"Captain1": discord.MentionByUserID(d.Captain1.UserID),
			"Captain2": discord.MentionByUserID(d.Captain2.UserID),
		})
	} else {
		embed.Description = locale.LocalizeMessage(&i18n.Message{
			ID:    "responses.draft.turn",
			Other: "{{.Captain}}, it's your pick!",
		}, map[string]interface{}{
			"Captain": discord.MentionByUserID(d.Current),
		})
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name: locale.LocalizeMessage(&i18n.Message{
				ID:    "responses.draft.team1",
				Other: "Team 1",
			}),
			Value:  playerList(d.Teams.Team1),
			Inline: true,
		},
		{
			Name: locale.LocalizeMessage(&i18n.Message{
				ID:    "responses.draft.team2",
				Other: "Team 2",
			}),
			Value:  playerList(d.Teams.Team2),
			Inline: true,
		},
		{
			Name: locale.LocalizeMessage(&i18n.Message{
				ID:    "responses.draft.pool",
				Other: "Available",
			}),
			Value:  playerList(d.Pool),
			Inline: false,
		},
	}
	return embed
}

func draftComponents(snap match.Snapshot) []discordgo.MessageComponent {
	d := snap.Draft
	if !d.StyleChosen {
		return []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label: locale.LocalizeMessage(&i18n.Message{
							ID:    "responses.draft.single",
							Other: "Single (you pick first)",
						}),
						Style:    discordgo.PrimaryButton,
						CustomID: discord.CustomID(command.ActionDraftStyle, StyleSingle, snap.ID),
					},
					discordgo.Button{
						Label: locale.LocalizeMessage(&i18n.Message{
							ID:    "responses.draft.double",
							Other: "Double (they pick first)",
						}),
						Style:    discordgo.SecondaryButton,
						CustomID: discord.CustomID(command.ActionDraftStyle, StyleDouble, snap.ID),
					},
				},
			},
		}
	}
	if len(d.Pool) == 0 {
		return []discordgo.MessageComponent{}
	}
	options := make([]discordgo.SelectMenuOption, 0, len(d.Pool))
	for _, p := range d.Pool {
		if len(options) == maxSelectOptions {
			break
		}
		name := p.Name
		if name == "" {
			name = p.UserID
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       name,
			Value:       p.UserID,
			Description: fmt.Sprintf("%d MMR", p.MMR),
		})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID: discord.CustomID(command.ActionPick, snap.ID),
					Placeholder: locale.LocalizeMessage(&i18n.Message{
						ID:    "responses.draft.placeholder",
						Other: "Pick a player",
					}),
					Options: options,
				},
			},
		},
	}
}

func teamsEmbed(snap match.Snapshot) *discordgo.MessageEmbed {
	title := locale.LocalizeMessage(&i18n.Message{
		ID:    "responses.teams.title",
		Other: "Teams",
	})
	if snap.Map != "" {
		title = game.DisplayMapName(snap.Map)
	}
	embed := baseEmbed(snap, title, discord.ColorBlue)
	if snap.Phase == game.Reporting.String() {
		embed.Description = locale.LocalizeMessage(&i18n.Message{
			ID:    "responses.teams.reporting",
			Other: "Processing the match report...",
		})
	} else {
		embed.Description = locale.LocalizeMessage(&i18n.Message{
			ID:    "responses.teams.description",
			Other: "Teams are set, good luck! When the match is over, use `/report`.",
		})
	}
	fields := []*discordgo.MessageEmbedField{
		{
			Name: locale.LocalizeMessage(&i18n.Message{
				ID:    "responses.teams.team1",
				Other: "Team 1 ({{.MMR}})",
			}, map[string]interface{}{
				"MMR": team.Sum(snap.Teams.Team1),
			}),
			Value:  playerList(snap.Teams.Team1),
			Inline: true,
		},
		{
			Name: locale.LocalizeMessage(&i18n.Message{
				ID:    "responses.teams.team2",
				Other: "Team 2 ({{.MMR}})",
			}, map[string]interface{}{
				"MMR": team.Sum(snap.Teams.Team2),
			}),
			Value:  playerList(snap.Teams.Team2),
			Inline: true,
		},
	}
	if snap.Strategy != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   voteTitle(match.VoteStrategy),
			Value:  string(snap.Strategy),
			Inline: true,
		})
	}
	embed.Fields = fields
	return embed
}

func voteResolvedMessage(snap match.Snapshot) string {
	var phase, winner string
	switch {
	case snap.Map != "":
		phase, winner = match.VoteMap, game.DisplayMapName(snap.Map)
	case snap.MapType != "":
		phase, winner = match.VoteMapType, string(snap.MapType)
	case snap.Strategy != "":
		phase, winner = match.VoteStrategy, string(snap.Strategy)
	default:
		return ""
	}
	return locale.LocalizeMessage(&i18n.Message{
		ID:    "responses.vote.resolved",
		Other: "**{{.Winner}}** wins the {{.Phase}} vote!",
	}, map[string]interface{}{
		"Winner": winner,
		"Phase":  strings.ToLower(voteTitle(phase)),
	})
}

func teamsFormedMessage(snap match.Snapshot) string {
	return locale.LocalizeMessage(&i18n.Message{
		ID:    "responses.teams.formed",
		Other: "{{.Role}} teams are set! Map: **{{.Map}}**",
	}, map[string]interface{}{
		"Role": discord.MentionByRoleID(snap.Handle.RoleID),
		"Map":  game.DisplayMapName(snap.Map),
	})
}

func draftTimedOutMessage(snap match.Snapshot) string {
	return locale.LocalizeMessage(&i18n.Message{
		ID:    "responses.draft.timeout",
		Other: "The draft for {{.Name}} timed out and the match was cancelled.",
	}, map[string]interface{}{
		"Name": snap.Name,
	})
}

// hasRoleNamed matches the member's role IDs against the guild's roles by name, case-insensitively.
func hasRoleNamed(memberRoles []string, guildRoles []*discordgo.Role, name string) bool {
	for _, role := range guildRoles {
		if role == nil || !strings.EqualFold(role.Name, name) {
			continue
		}
		for _, id := range memberRoles {
			if id == role.ID {
				return true
			}
		}
	}
	return false
}

// announcementChannel prefers a text channel named "announcements" over the fallback.
func announcementChannel(channels []*discordgo.Channel, fallback string) string {
	for _, c := range channels {
		if c != nil && c.Type == discordgo.ChannelTypeGuildText && strings.EqualFold(c.Name, "announcements") {
			return c.ID
		}
	}
	return fallback
}
