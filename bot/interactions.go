package bot

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/bot/command"
	"github.com/tenmans/tenmans/pkg/discord"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/match"
	"github.com/tenmans/tenmans/pkg/metrics"
	"github.com/tenmans/tenmans/pkg/storage"
	"github.com/tenmans/tenmans/pkg/vote"
)

const (
	commandTimeout = 15 * time.Second
	// a report waits on the stats API and the season rollover
	reportTimeout = 60 * time.Second
)

// per-command cooldowns on top of the general rate limit; these hit the stats API
var commandCooldowns = map[string]time.Duration{
	command.Report.Name: 5 * time.Second,
	command.Link.Name:   5 * time.Second,
}

func (bot *Bot) handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// lock this particular interaction so no other replica tries to process it
	interactionLock := bot.RedisDriver.LockSnowflake(i.ID)
	// couldn't obtain lock; bail bail bail!
	if interactionLock == nil {
		return
	}
	defer interactionLock.Release(context.Background())

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("interaction", i.ID).Msg("recovered while handling interaction")
		}
	}()

	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		bot.respond(s, i, command.PrivateResponse("This bot only works inside a server."))
		return
	}
	userID := i.Member.User.ID
	if bot.RedisDriver.IsUserBanned(userID) {
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		if bot.RedisDriver.IsUserRateLimitedGeneral(userID) || bot.RedisDriver.IsUserRateLimitedSpecific(userID, name) {
			if bot.RedisDriver.IncrementRateLimitExceed(userID) {
				log.Warn().Str("user", userID).Msg("user exceeded the command rate limit and was softbanned")
			}
			bot.respond(s, i, command.RateLimitResponse())
			return
		}
		bot.RedisDriver.MarkUserRateLimit(userID, name, commandCooldowns[name])
		bot.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		bot.handleComponent(s, i)
	}
}

func (bot *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	userID := i.Member.User.ID

	if command.Privileged[data.Name] && !bot.isOwner(s, i) {
		bot.respond(s, i, command.InsufficientPermissionsResponse(bot.ownerRole))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	log.Debug().Str("guild", i.GuildID).Str("user", userID).Str("command", data.Name).Msg("slash command")

	switch data.Name {
	case command.Help.Name:
		bot.respond(s, i, command.HelpResponse(data.Options))

	case command.Info.Name:
		bot.respond(s, i, command.InfoResponse(bot.GetInfo()))

	case command.Signup.Name:
		if _, ok := bot.Controller.Session(i.GuildID); ok {
			// fast path so the rejection stays ephemeral
			snap, err := bot.Controller.StartSignup(ctx, i.GuildID, i.ChannelID, userID, command.GetModeParam(data.Options))
			bot.respond(s, i, command.SignupResponse(command.SignupStatusOf(err), snap, err))
			return
		}
		bot.respond(s, i, command.DeferredResponse(false))
		snap, err := bot.Controller.StartSignup(ctx, i.GuildID, i.ChannelID, userID, command.GetModeParam(data.Options))
		bot.followUp(s, i, command.SignupResponse(command.SignupStatusOf(err), snap, err), false)

	case command.Report.Name:
		bot.handleReport(s, i)

	case command.Link.Name:
		bot.respond(s, i, command.DeferredResponse(true))
		bot.followUp(s, i, bot.link(ctx, userID, command.GetLinkParams(data.Options)), true)

	case command.Stats.Name:
		bot.respond(s, i, bot.stats(ctx, command.GetStatsParams(s, userID, data.Options)))

	case command.Leaderboard.Name:
		mode, sort := command.GetLeaderboardParams(data.Options)
		page, err := bot.leaderboardPage(ctx, mode, sort, 0)
		if err != nil {
			log.Error().Err(err).Msg("failed to load leaderboard")
			bot.respond(s, i, command.PrivateErrorResponse(data.Name, err))
			return
		}
		bot.respond(s, i, command.LeaderboardResponse(page))

	case command.Cancel.Name:
		snap, err := bot.Controller.Cancel(ctx, i.GuildID)
		bot.respond(s, i, command.CancelResponse(snap, err))

	case command.NewSeason.Name:
		if command.GetNewSeasonParams(data.Options) {
			bot.respond(s, i, command.NewSeasonConfirmResponse())
			return
		}
		next, err := bot.Seasons.CreateNewSeason(ctx, false, time.Now())
		if err != nil {
			log.Error().Err(err).Str("guild", i.GuildID).Msg("failed to create new season")
			bot.respond(s, i, command.PrivateErrorResponse(data.Name, err))
			return
		}
		bot.respond(s, i, command.NewSeasonResponse(next, false))

	case command.ToggleDev.Name:
		enabled := !bot.RedisDriver.IsDevMode(ctx, i.GuildID)
		if err := bot.RedisDriver.SetDevMode(ctx, i.GuildID, enabled); err != nil {
			bot.respond(s, i, command.PrivateErrorResponse(data.Name, err))
			return
		}
		log.Info().Str("guild", i.GuildID).Bool("enabled", enabled).Msg("developer mode toggled")
		bot.respond(s, i, command.ToggleDevResponse(enabled))

	case command.ForceDraft.Name:
		if !bot.RedisDriver.IsDevMode(ctx, i.GuildID) {
			bot.respond(s, i, command.ForceDraftDevOnlyResponse())
			return
		}
		snap, err := bot.Controller.ForceDraft(ctx, i.GuildID)
		bot.respond(s, i, command.ForceDraftResponse(snap, err))

	default:
		log.Warn().Str("command", data.Name).Msg("unknown slash command")
	}
}

func (bot *Bot) handleReport(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	bot.respond(s, i, command.ProcessingResponse())
	res, err := bot.Controller.Report(ctx, i.GuildID, i.Member.User.ID)
	if err != nil {
		rl := bot.Henrik.RateLimit()
		log.Info().Err(err).Str("guild", i.GuildID).
			Int("henrik_remaining", rl.Remaining).
			Int("henrik_reset", rl.Reset).
			Msg("report rejected")
		bot.followUp(s, i, command.PrivateResponse(command.ReportErrorMessage(err)), false)
		return
	}
	bot.RedisDriver.RecordDiscordRequests(metrics.MatchReported, 1)
	bot.followUp(s, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{command.ReportEmbed(res)},
		},
	}, false)

	if res.NewTopPlayer == nil && res.Season == nil {
		return
	}
	channelID := bot.announcementChannelFor(i.GuildID, i.ChannelID)
	if res.NewTopPlayer != nil {
		bot.sendMessage(channelID, command.NewTopPlayerMessage(res.NewTopPlayer.Name))
	}
	if res.Season != nil {
		bot.sendEmbed(channelID, command.SeasonEndedEmbed(res.Season))
	}
}

func (bot *Bot) link(ctx context.Context, userID, riotID string) *discordgo.InteractionResponse {
	id, ok := match.ParseRiotID(riotID)
	if !ok {
		return command.LinkResponse(command.LinkBadFormat, riotID, nil)
	}
	account, err := bot.Henrik.Account(ctx, id.Name, id.Tag)
	if err != nil {
		log.Info().Err(err).Str("user", userID).Str("riot_id", riotID).Msg("link lookup failed")
		return command.LinkResponse(command.LinkAPIError, riotID, err)
	}
	uid, err := strconv.ParseUint(userID, 10, 64)
	if err != nil {
		return command.LinkResponse(command.LinkError, riotID, err)
	}
	identity := &storage.PostgresIdentity{
		UserID:   uid,
		Name:     account.Name,
		Tag:      account.Tag,
		PUUID:    account.PUUID,
		LinkedAt: time.Now().UTC(),
	}
	if err := bot.store.UpsertIdentity(ctx, identity); err != nil {
		if errors.Is(err, storage.ErrIdentityTaken) {
			return command.LinkResponse(command.LinkTaken, riotID, err)
		}
		log.Error().Err(err).Str("user", userID).Msg("failed to save identity")
		return command.LinkResponse(command.LinkError, riotID, err)
	}
	if err := bot.store.RenameRatings(ctx, userID, identity.RiotID()); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("failed to rename ratings after link")
	}
	return command.LinkResponse(command.LinkSuccess, identity.RiotID(), nil)
}

func (bot *Bot) stats(ctx context.Context, params command.StatsParams) *discordgo.InteractionResponse {
	info := command.StatsInfo{UserID: params.UserID, Mode: params.Mode}
	if params.RiotID != "" {
		id, ok := match.ParseRiotID(params.RiotID)
		if !ok {
			return command.StatsResponse(command.StatsBadRiotID, info)
		}
		userID, err := bot.store.UserIDByIdentity(ctx, id.Name, id.Tag)
		if err != nil {
			return command.StatsResponse(command.StatsUnknownPlayer, info)
		}
		info.UserID = userID
	}

	r, err := bot.store.FindRating(ctx, info.UserID, info.Mode)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Error().Err(err).Str("user", info.UserID).Msg("failed to load rating")
		}
		return command.StatsResponse(command.StatsNoRating, info)
	}
	info.Rating = r
	if info.Rank, err = bot.store.RankOf(ctx, info.UserID, info.Mode); err != nil {
		log.Error().Err(err).Str("user", info.UserID).Msg("failed to load rank")
	}
	if info.Total, err = bot.store.CountPlayers(ctx, info.Mode); err != nil {
		log.Error().Err(err).Msg("failed to count players")
	}
	return command.StatsResponse(command.StatsSuccess, info)
}

func (bot *Bot) leaderboardPage(ctx context.Context, mode game.Mode, sort storage.LeaderboardSort, page int) (command.LeaderboardPage, error) {
	total, err := bot.store.CountPlayers(ctx, mode)
	if err != nil {
		return command.LeaderboardPage{}, err
	}
	page = command.ClampPage(page, total)
	ratings, err := bot.store.Leaderboard(ctx, mode, sort, command.LeaderboardPageSize, page*command.LeaderboardPageSize)
	if err != nil {
		return command.LeaderboardPage{}, err
	}
	return command.LeaderboardPage{
		Mode:    mode,
		Sort:    sort,
		Page:    page,
		Total:   total,
		Ratings: ratings,
	}, nil
}

func (bot *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	userID := i.Member.User.ID
	action, args := discord.ParseCustomID(data.CustomID)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch action {
	case command.ActionJoin:
		if !bot.currentSession(i.GuildID, lastArg(args)) {
			bot.respond(s, i, command.NoSessionResponse())
			return
		}
		snap, err := bot.Controller.Join(ctx, i.GuildID, userID)
		bot.respond(s, i, command.JoinResponse(command.JoinStatusOf(err), userID, snap, err))

	case command.ActionLeave:
		if !bot.currentSession(i.GuildID, lastArg(args)) {
			bot.respond(s, i, command.NoSessionResponse())
			return
		}
		snap, err := bot.Controller.Leave(ctx, i.GuildID, userID)
		bot.respond(s, i, command.LeaveResponse(command.LeaveStatusOf(err), snap, err))

	case command.ActionVote:
		if len(args) != 2 || len(data.Values) == 0 {
			return
		}
		if !bot.currentSession(i.GuildID, args[1]) {
			bot.respond(s, i, command.VoteResponse(vote.Closed, "", nil))
			return
		}
		option := data.Values[0]
		outcome, err := bot.Controller.CastVote(i.GuildID, args[0], userID, option)
		bot.respond(s, i, command.VoteResponse(outcome, option, err))

	case command.ActionDraftStyle:
		if len(args) != 2 {
			return
		}
		if !bot.currentSession(i.GuildID, args[1]) {
			bot.respond(s, i, command.NoSessionResponse())
			return
		}
		double := args[0] == StyleDouble
		status, err := bot.Controller.ChooseDraftStyle(i.GuildID, userID, double)
		bot.respond(s, i, command.StyleResponse(status, double, err))

	case command.ActionPick:
		if len(data.Values) == 0 {
			return
		}
		if !bot.currentSession(i.GuildID, lastArg(args)) {
			bot.respond(s, i, command.NoSessionResponse())
			return
		}
		status, err := bot.Controller.Pick(i.GuildID, userID, data.Values[0])
		bot.respond(s, i, command.PickResponse(status, err))

	case command.ActionLeaderboard:
		mode, sort, page, ok := command.ParseLeaderboardPageID(args)
		if !ok {
			return
		}
		p, err := bot.leaderboardPage(ctx, mode, sort, page)
		if err != nil {
			log.Error().Err(err).Msg("failed to page leaderboard")
			bot.respond(s, i, command.PrivateErrorResponse(command.Leaderboard.Name, err))
			return
		}
		bot.respond(s, i, command.LeaderboardPageResponse(p))

	case command.ActionSeason:
		if !bot.isOwner(s, i) {
			bot.respond(s, i, command.InsufficientPermissionsResponse(bot.ownerRole))
			return
		}
		if lastArg(args) != command.SeasonConfirm {
			bot.respond(s, i, command.NewSeasonAbortedResponse())
			return
		}
		next, err := bot.Seasons.CreateNewSeason(ctx, true, time.Now())
		if err != nil {
			log.Error().Err(err).Str("guild", i.GuildID).Msg("failed to create new season")
			bot.respond(s, i, command.PrivateErrorResponse(command.NewSeason.Name, err))
			return
		}
		log.Info().Str("guild", i.GuildID).Int("season", next.SeasonNumber).Msg("new season started with a stat reset")
		bot.respond(s, i, command.NewSeasonConfirmedResponse(next))

	default:
		log.Warn().Str("custom_id", data.CustomID).Msg("unknown component")
	}
}

// currentSession rejects buttons left over from an earlier match.
func (bot *Bot) currentSession(guildID, sessionID string) bool {
	snap, ok := bot.Controller.Session(guildID)
	return ok && (sessionID == "" || snap.ID == sessionID)
}

func lastArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[len(args)-1]
}

// isOwner accepts the configured owner role or the administrator permission.
func (bot *Bot) isOwner(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if g, err := s.State.Guild(i.GuildID); err == nil {
		return hasRoleNamed(i.Member.Roles, g.Roles, bot.ownerRole)
	}
	roles, err := s.GuildRoles(i.GuildID)
	if err != nil {
		log.Error().Err(err).Str("guild", i.GuildID).Msg("failed to list roles")
		return false
	}
	return hasRoleNamed(i.Member.Roles, roles, bot.ownerRole)
}

func (bot *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, resp *discordgo.InteractionResponse) {
	if resp == nil {
		return
	}
	if err := s.InteractionRespond(i.Interaction, resp); err != nil {
		log.Error().Err(err).Str("interaction", i.ID).Msg("failed to respond to interaction")
		return
	}
	bot.RedisDriver.RecordDiscordRequests(metrics.InteractionResponse, 1)
}

// followUp completes an interaction that was already acknowledged. Private results on a public
// acknowledgement replace it with an ephemeral followup.
func (bot *Bot) followUp(s *discordgo.Session, i *discordgo.InteractionCreate, resp *discordgo.InteractionResponse, ackPrivate bool) {
	if resp == nil || resp.Data == nil {
		return
	}
	data := resp.Data
	private := data.Flags&discordgo.MessageFlagsEphemeral != 0
	if ackPrivate || !private {
		_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content:    &data.Content,
			Embeds:     &data.Embeds,
			Components: &data.Components,
		})
		if err != nil {
			log.Error().Err(err).Str("interaction", i.ID).Msg("failed to edit interaction response")
			return
		}
		bot.RedisDriver.RecordDiscordRequests(metrics.MessageEdit, 1)
		return
	}

	if err := s.InteractionResponseDelete(i.Interaction); err != nil {
		log.Error().Err(err).Str("interaction", i.ID).Msg("failed to delete interaction response")
	} else {
		bot.RedisDriver.RecordDiscordRequests(metrics.MessageCreateDelete, 1)
	}
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content:    data.Content,
		Embeds:     data.Embeds,
		Components: data.Components,
		Flags:      discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Error().Err(err).Str("interaction", i.ID).Msg("failed to send followup")
		return
	}
	bot.RedisDriver.RecordDiscordRequests(metrics.InteractionResponse, 1)
}
