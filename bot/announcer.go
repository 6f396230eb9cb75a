package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/match"
	"github.com/tenmans/tenmans/pkg/metrics"
)

// Announce keeps the session's status message in step with the controller.
func (bot *Bot) Announce(_ context.Context, snap match.Snapshot, event match.Event) {
	log.Debug().Str("guild", snap.GuildID).Str("session", snap.ID).Str("event", event.String()).Msg("announce")

	switch event {
	case match.EventCancelled, match.EventReported:
		// the match channel is torn down with the session
		bot.messages.Forget(snap.GuildID)
		return
	case match.EventDraftTimedOut:
		bot.messages.Forget(snap.GuildID)
		bot.sendMessage(snap.ChannelID, draftTimedOutMessage(snap))
		return
	case match.EventVoteResolved:
		if msg := voteResolvedMessage(snap); msg != "" {
			bot.sendMessage(snap.Handle.ChannelID, msg)
		}
	case match.EventTeamsFormed:
		bot.sendMessage(snap.Handle.ChannelID, teamsFormedMessage(snap))
	}

	embed, components := sessionResponse(snap)
	if event == match.EventSignupOpened {
		bot.messages.CreateMessage(bot.PrimarySession, snap.GuildID, snap.Handle.ChannelID, snap.ID, embed, components)
		return
	}
	if sm, ok := bot.messages.Get(snap.GuildID); !ok || sm.SessionID != snap.ID {
		bot.messages.CreateMessage(bot.PrimarySession, snap.GuildID, snap.Handle.ChannelID, snap.ID, embed, components)
		return
	}
	bot.messages.DispatchRefreshOrEdit(bot.PrimarySession, snap.GuildID, embed, components)
}

func (bot *Bot) sendMessage(channelID, content string) *discordgo.Message {
	if channelID == "" || content == "" {
		return nil
	}
	msg, err := bot.PrimarySession.ChannelMessageSend(channelID, content)
	if err != nil {
		log.Error().Err(err).Str("channel", channelID).Msg("failed to send message")
		return nil
	}
	bot.RedisDriver.RecordDiscordRequests(metrics.MessageCreateDelete, 1)
	return msg
}

func (bot *Bot) sendEmbed(channelID string, embed *discordgo.MessageEmbed) *discordgo.Message {
	if channelID == "" || embed == nil {
		return nil
	}
	msg, err := bot.PrimarySession.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		log.Error().Err(err).Str("channel", channelID).Msg("failed to send embed")
		return nil
	}
	bot.RedisDriver.RecordDiscordRequests(metrics.MessageCreateDelete, 1)
	return msg
}

// announcementChannelFor looks the guild up in the state cache first.
func (bot *Bot) announcementChannelFor(guildID, fallback string) string {
	if g, err := bot.PrimarySession.State.Guild(guildID); err == nil {
		return announcementChannel(g.Channels, fallback)
	}
	channels, err := bot.PrimarySession.GuildChannels(guildID)
	if err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("failed to list channels")
		return fallback
	}
	return announcementChannel(channels, fallback)
}
