package bot

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/bot/server"
	"github.com/tenmans/tenmans/pkg"
	"github.com/tenmans/tenmans/pkg/config"
	"github.com/tenmans/tenmans/pkg/discord"
	"github.com/tenmans/tenmans/pkg/henrik"
	"github.com/tenmans/tenmans/pkg/ledger"
	"github.com/tenmans/tenmans/pkg/match"
	"github.com/tenmans/tenmans/pkg/redis"
	"github.com/tenmans/tenmans/pkg/rediskey"
	"github.com/tenmans/tenmans/pkg/season"
	"github.com/tenmans/tenmans/pkg/storage"
)

type Bot struct {
	PrimarySession *discordgo.Session

	RedisDriver *redis.Driver

	PostgresInterface *storage.PsqlInterface

	Henrik *henrik.Client

	Controller *match.Controller

	Seasons *season.Manager

	store cachedStore

	ownerRole string

	messages *SessionMessages
}

// MakeAndStartBot does what it sounds like
func MakeAndStartBot(cfg *config.Config, redisDriver *redis.Driver, psql *storage.PsqlInterface, henrikClient *henrik.Client) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	bot := Bot{
		PrimarySession:    dg,
		RedisDriver:       redisDriver,
		PostgresInterface: psql,
		Henrik:            henrikClient,
		Seasons:           season.NewManager(psql, cfg.SeasonPeriodMonths),
		ownerRole:         cfg.OwnerRole,
		messages:          NewSessionMessages(redisDriver.RecordDiscordRequests),
	}
	bot.store = cachedStore{PsqlInterface: psql, redis: redisDriver}
	bot.Controller = match.NewController(match.Config{
		VoteWindow:    cfg.VoteWindow(),
		PickTimeout:   cfg.PickTimeout(),
		SignupRefresh: cfg.SignupRefresh(),
		TeamCap:       cfg.TeamCap,
		Region:        cfg.HenrikRegion,
	}, match.Deps{
		Announcer: &bot,
		Resources: &bot,
		Fetcher:   henrikClient,
		Store:     bot.store,
		Ledger:    ledger.New(psql, cfg.Formula()),
		Seasons:   bot.Seasons,
		Locker:    redisDriver,
	})
	dg.LogLevel = discordgo.LogWarning

	dg.AddHandler(bot.RedisDriver.RateLimitEventCallback)
	// Slash commands and components
	dg.AddHandler(bot.handleInteractionCreate)

	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("bot is now online according to discord Ready handler")
	})

	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds)

	// Open a websocket connection to Discord and begin listening.
	if err = dg.Open(); err != nil {
		return nil, err
	}

	log.Info().Msg("finished identifying to the Discord API, now ready for incoming events")

	status := &discordgo.UpdateStatusData{
		IdleSince: nil,
		Activities: []*discordgo.Activity{{
			Name: "/signup",
			Type: discordgo.ActivityTypeListening,
		}},
		AFK:    false,
		Status: "",
	}
	if err = dg.UpdateStatusComplex(*status); err != nil {
		log.Error().Err(err).Msg("failed to set bot status")
	}

	return &bot, nil
}

func (bot *Bot) StartMetricsServer(nodeID, port string) error {
	return server.PrometheusMetricsServer(bot.RedisDriver, bot.PostgresInterface, nodeID, port)
}

func (bot *Bot) Close() {
	bot.messages.Stop()
	if err := bot.PrimarySession.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close discord session")
	}
	if err := bot.RedisDriver.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close redis")
	}
	bot.PostgresInterface.Close()
}

func (bot *Bot) GetInfo() discord.BotInfo {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := bot.RedisDriver.Client()
	totalPlayers := rediskey.GetTotalPlayers(ctx, client)
	if totalPlayers == rediskey.NotFound {
		totalPlayers = rediskey.RefreshTotalPlayers(ctx, client, bot.PostgresInterface.Pool)
	}

	totalMatches := rediskey.GetTotalMatches(ctx, client)
	if totalMatches == rediskey.NotFound {
		totalMatches = rediskey.RefreshTotalMatches(ctx, client, bot.PostgresInterface.Pool)
	}

	seasonNumber := 0
	if s, err := bot.Seasons.Current(ctx, time.Now()); err != nil {
		log.Error().Err(err).Msg("failed to load season for info")
	} else {
		seasonNumber = s.SeasonNumber
	}
	return discord.BotInfo{
		Version:        pkg.Version,
		Commit:         pkg.Commit,
		Season:         seasonNumber,
		TotalPlayers:   totalPlayers,
		TotalMatches:   totalMatches,
		ActiveSessions: len(bot.Controller.Sessions()),
	}
}

// cachedStore fronts identity reads with redis; every other query goes straight to postgres.
type cachedStore struct {
	*storage.PsqlInterface
	redis *redis.Driver
}

func (c cachedStore) GetIdentity(ctx context.Context, userID string) (*storage.PostgresIdentity, error) {
	if identity, ok := c.redis.GetCachedIdentity(ctx, userID); ok {
		return identity, nil
	}
	identity, err := c.PsqlInterface.GetIdentity(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.redis.SetCachedIdentity(ctx, identity); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("failed to cache identity")
	}
	return identity, nil
}

func (c cachedStore) UpsertIdentity(ctx context.Context, identity *storage.PostgresIdentity) error {
	err := c.PsqlInterface.UpsertIdentity(ctx, identity)
	c.redis.ForgetCachedIdentity(ctx, strconv.FormatUint(identity.UserID, 10))
	return err
}
