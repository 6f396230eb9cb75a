package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/rating"
)

type Config struct {
	DiscordToken         string   `env:"DISCORD_BOT_TOKEN"`
	SlashCommandGuildIDs []string `env:"SLASH_COMMAND_GUILD_IDS" envSeparator:","`
	OwnerRole            string   `env:"OWNER_ROLE"              envDefault:"Owner"`

	RedisAddr string `env:"REDIS_ADDR"`
	RedisPass string `env:"REDIS_PASS"`

	PostgresAddr string `env:"POSTGRES_ADDR"`
	PostgresUser string `env:"POSTGRES_USER"`
	PostgresPass string `env:"POSTGRES_PASS"`

	HenrikAPIKey  string `env:"HENRIK_API_KEY"`
	HenrikBaseURL string `env:"HENRIK_BASE_URL"`
	HenrikRegion  string `env:"HENRIK_REGION"   envDefault:"na"`

	LocalePath string `env:"LOCALE_PATH"`
	BotLang    string `env:"BOT_LANG"`

	LogLevel       string `env:"LOG_LEVEL"        envDefault:"info"`
	LogPretty      bool   `env:"LOG_PRETTY"       envDefault:"false"`
	LogPath        string `env:"LOG_PATH"         envDefault:"./"`
	DisableLogFile bool   `env:"DISABLE_LOG_FILE" envDefault:"false"`

	APIPort      string `env:"API_PORT"       envDefault:"5000"`
	MetricsPort  string `env:"METRICS_PORT"   envDefault:"2112"`
	APIAdminPass string `env:"API_ADMIN_PASS"`
	NodeID       string `env:"SCW_NODE_ID"`

	VoteWindowSeconds    int    `env:"VOTE_WINDOW_SECONDS"    envDefault:"25"`
	PickTimeoutSeconds   int    `env:"PICK_TIMEOUT_SECONDS"   envDefault:"60"`
	SignupRefreshSeconds int    `env:"SIGNUP_REFRESH_SECONDS" envDefault:"60"`
	TeamCap              int    `env:"TEAM_CAP"               envDefault:"5"`
	RatingFormula        string `env:"RATING_FORMULA"         envDefault:"extended"`
	SeasonPeriodMonths   int    `env:"SEASON_PERIOD_MONTHS"   envDefault:"2"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, reading the environment only")
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) Validate() error {
	switch {
	case cfg.DiscordToken == "":
		return errors.New("no DISCORD_BOT_TOKEN specified; exiting")
	case cfg.RedisAddr == "":
		return errors.New("no REDIS_ADDR specified; exiting")
	case cfg.PostgresAddr == "":
		return errors.New("no POSTGRES_ADDR specified; exiting")
	case cfg.PostgresUser == "":
		return errors.New("no POSTGRES_USER specified; exiting")
	case cfg.PostgresPass == "":
		return errors.New("no POSTGRES_PASS specified; exiting")
	case cfg.HenrikAPIKey == "":
		return errors.New("no HENRIK_API_KEY specified; exiting")
	}
	if _, err := rating.ParseFormula(cfg.RatingFormula); err != nil {
		return err
	}
	if _, err := game.ParseRegion(cfg.HenrikRegion); err != nil {
		return err
	}
	return nil
}

func (cfg *Config) Formula() rating.Formula {
	f, err := rating.ParseFormula(cfg.RatingFormula)
	if err != nil {
		return rating.Extended
	}
	return f
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

func (cfg *Config) VoteWindow() time.Duration {
	return seconds(cfg.VoteWindowSeconds, 25)
}

func (cfg *Config) PickTimeout() time.Duration {
	return seconds(cfg.PickTimeoutSeconds, 60)
}

func (cfg *Config) SignupRefresh() time.Duration {
	return seconds(cfg.SignupRefreshSeconds, 60)
}
