package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/api"
	"github.com/tenmans/tenmans/bot"
	"github.com/tenmans/tenmans/bot/command"
	"github.com/tenmans/tenmans/pkg"
	"github.com/tenmans/tenmans/pkg/config"
	"github.com/tenmans/tenmans/pkg/henrik"
	"github.com/tenmans/tenmans/pkg/locale"
	"github.com/tenmans/tenmans/pkg/redis"
	"github.com/tenmans/tenmans/pkg/storage"
	"golang.org/x/sync/errgroup"
)

type registeredCommand struct {
	GuildID            string
	ApplicationCommand *discordgo.ApplicationCommand
}

func main() {
	if err := discordMainWrapper(); err != nil {
		log.Fatal().Err(err).Msg("program exited with an error")
	}
}

func setupLogging(cfg *config.Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var console io.Writer = os.Stdout
	if cfg.LogPretty {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	writers := []io.Writer{console}
	if !cfg.DisableLogFile {
		file, err := os.Create(path.Join(cfg.LogPath, "logs.txt"))
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return nil
}

func discordMainWrapper() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	log.Info().Str("version", pkg.Version).Str("commit", pkg.Commit).Msg("starting")

	locale.InitLang(cfg.LocalePath, cfg.BotLang)
	log.Info().Int("count", len(locale.GetLanguages())).Msg("loaded languages")

	var psql storage.PsqlInterface
	if err := psql.Init(storage.ConstructPsqlConnectURL(cfg.PostgresAddr, cfg.PostgresUser, cfg.PostgresPass)); err != nil {
		return err
	}
	if err := psql.Migrate(); err != nil {
		return err
	}

	var redisDriver redis.Driver
	if err := redisDriver.Init(redis.Params{
		Addr:     cfg.RedisAddr,
		Username: "",
		Password: cfg.RedisPass,
	}); err != nil {
		return err
	}
	redisDriver.SetVersionAndCommit(pkg.Version, pkg.Commit)

	henrikClient := henrik.NewClient(cfg.HenrikAPIKey, cfg.HenrikBaseURL)

	b, err := bot.MakeAndStartBot(cfg, &redisDriver, &psql, henrikClient)
	if err != nil {
		log.Error().Msg("bot failed to initialize; did you provide a valid Discord Bot Token?")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	apiServer := api.NewApi(cfg.APIAdminPass, b, b.Controller, &psql)
	var g errgroup.Group
	g.Go(func() error {
		return apiServer.StartServer(cfg.APIPort)
	})
	g.Go(func() error {
		return b.StartMetricsServer(cfg.NodeID, cfg.MetricsPort)
	})
	go func() {
		if err := g.Wait(); err != nil {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	// empty string entry = global
	slashCommandGuildIds := []string{""}
	if len(cfg.SlashCommandGuildIDs) > 0 {
		slashCommandGuildIds = cfg.SlashCommandGuildIDs
	}

	var registeredCommands []registeredCommand
	for _, guild := range slashCommandGuildIds {
		for _, v := range command.All {
			if guild == "" {
				log.Info().Str("command", v.Name).Msg("registering command globally")
			} else {
				log.Info().Str("command", v.Name).Str("guild", guild).Msg("registering command in guild")
			}

			id, err := b.PrimarySession.ApplicationCommandCreate(b.PrimarySession.State.User.ID, guild, v)
			if err != nil {
				log.Error().Err(err).Str("command", v.Name).Msg("cannot create command")
				continue
			}
			registeredCommands = append(registeredCommands, registeredCommand{
				GuildID:            guild,
				ApplicationCommand: id,
			})
		}
	}
	log.Info().Int("count", len(registeredCommands)).Msg("finished registering all commands, bot is now running. Press CTRL-C to exit")

	<-ctx.Done()
	log.Info().Msg("received SIGTERM or interrupt, shutting down")

	// sessions only live in memory, so clean up their channels and roles before exiting
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, snap := range b.Controller.Sessions() {
		if _, err := b.Controller.Cancel(shutdownCtx, snap.GuildID); err != nil {
			log.Error().Err(err).Str("guild", snap.GuildID).Msg("failed to cancel session on shutdown")
		}
	}

	log.Info().Msg("deleting slash commands")
	for _, v := range registeredCommands {
		err = b.PrimarySession.ApplicationCommandDelete(v.ApplicationCommand.ApplicationID, v.GuildID, v.ApplicationCommand.ID)
		if err != nil {
			log.Error().Err(err).Str("command", v.ApplicationCommand.Name).Msg("failed to delete command")
		}
	}
	log.Info().Msg("finished deleting all commands")

	b.Close()
	return nil
}
