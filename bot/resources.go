package bot

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/match"
	"github.com/tenmans/tenmans/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Create makes the match role and a text channel only that role can talk in.
func (bot *Bot) Create(_ context.Context, guildID, name string) (match.Handle, error) {
	s := bot.PrimarySession
	mentionable := true
	role, err := s.GuildRoleCreate(guildID, &discordgo.RoleParams{
		Name:        name,
		Mentionable: &mentionable,
	})
	if err != nil {
		return match.Handle{}, err
	}
	bot.RedisDriver.RecordDiscordRequests(metrics.RoleChange, 1)

	channel, err := s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildText,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				// the @everyone role shares the guild's ID
				ID:   guildID,
				Type: discordgo.PermissionOverwriteTypeRole,
				Deny: discordgo.PermissionSendMessages,
			},
			{
				ID:    role.ID,
				Type:  discordgo.PermissionOverwriteTypeRole,
				Allow: discordgo.PermissionSendMessages | discordgo.PermissionViewChannel,
			},
			{
				ID:    s.State.User.ID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionSendMessages | discordgo.PermissionViewChannel | discordgo.PermissionEmbedLinks,
			},
		},
	})
	if err != nil {
		if delErr := s.GuildRoleDelete(guildID, role.ID); delErr != nil {
			log.Error().Err(delErr).Str("guild", guildID).Str("role", role.ID).Msg("failed to clean up match role")
		}
		return match.Handle{}, err
	}
	bot.RedisDriver.RecordDiscordRequests(metrics.ChannelChange, 1)

	return match.Handle{ChannelID: channel.ID, RoleID: role.ID}, nil
}

func (bot *Bot) Grant(_ context.Context, guildID string, h match.Handle, userID string) error {
	err := bot.PrimarySession.GuildMemberRoleAdd(guildID, userID, h.RoleID)
	if err == nil {
		bot.RedisDriver.RecordDiscordRequests(metrics.RoleChange, 1)
	}
	return err
}

func (bot *Bot) Revoke(_ context.Context, guildID string, h match.Handle, userID string) error {
	err := bot.PrimarySession.GuildMemberRoleRemove(guildID, userID, h.RoleID)
	if err == nil || isNotFound(err) {
		bot.RedisDriver.RecordDiscordRequests(metrics.RoleChange, 1)
		return nil
	}
	return err
}

// Teardown deletes the match channel and role; either already being gone is not an error.
func (bot *Bot) Teardown(_ context.Context, guildID string, h match.Handle) error {
	s := bot.PrimarySession
	var g errgroup.Group
	if h.ChannelID != "" {
		g.Go(func() error {
			if _, err := s.ChannelDelete(h.ChannelID); err != nil && !isNotFound(err) {
				return err
			}
			bot.RedisDriver.RecordDiscordRequests(metrics.ChannelChange, 1)
			return nil
		})
	}
	if h.RoleID != "" {
		g.Go(func() error {
			if err := s.GuildRoleDelete(guildID, h.RoleID); err != nil && !isNotFound(err) {
				return err
			}
			bot.RedisDriver.RecordDiscordRequests(metrics.RoleChange, 1)
			return nil
		})
	}
	return g.Wait()
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
