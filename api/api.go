package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tenmans/tenmans/bot/command"
	"github.com/tenmans/tenmans/pkg/discord"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/match"
	"github.com/tenmans/tenmans/pkg/season"
	"github.com/tenmans/tenmans/pkg/storage"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type HttpError struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
}

type InfoProvider interface {
	GetInfo() discord.BotInfo
}

type SessionProvider interface {
	Session(guildID string) (match.Snapshot, bool)
}

type Store interface {
	Leaderboard(ctx context.Context, mode game.Mode, sort storage.LeaderboardSort, limit, offset int) ([]*storage.PostgresRating, error)
	FindRating(ctx context.Context, userID string, mode game.Mode) (*storage.PostgresRating, error)
	RankOf(ctx context.Context, userID string, mode game.Mode) (int, error)
	GetSeason(ctx context.Context) (*storage.PostgresSeason, error)
}

type Api struct {
	adminPass string
	info      InfoProvider
	sessions  SessionProvider
	store     Store
}

func NewApi(adminPass string, info InfoProvider, sessions SessionProvider, store Store) *Api {
	return &Api{
		adminPass: adminPass,
		info:      info,
		sessions:  sessions,
		store:     store,
	}
}

func (api *Api) Router() *gin.Engine {
	r := gin.Default()

	botGroup := r.Group("/bot")
	botGroup.GET("/info", handleGetInfo(api))
	botGroup.GET("/commands", handleGetCommands())

	r.GET("/leaderboard", handleGetLeaderboard(api))
	r.GET("/players/:userID", handleGetPlayer(api))
	r.GET("/season", handleGetSeason(api))

	// live sessions expose queued user IDs, so they stay behind the admin account
	if api.adminPass != "" {
		sessionGroup := r.Group("/sessions", gin.BasicAuth(gin.Accounts{
			"admin": api.adminPass,
		}))
		sessionGroup.GET("/:guildID", handleGetSession(api))
	}
	return r
}

func (api *Api) StartServer(port string) error {
	return api.Router().Run(":" + port)
}

func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, HttpError{
		StatusCode: code,
		Error:      msg,
	})
}

func queryMode(c *gin.Context) (game.Mode, bool) {
	mode, err := game.ParseMode(c.Query("mode"))
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return "", false
	}
	return mode, true
}

// BotInfo
// @Summary Get Bot Info
// @Router /bot/info [get]
func handleGetInfo(api *Api) func(c *gin.Context) {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, api.info.GetInfo())
	}
}

// BotCommands
// @Summary Get all Discord commands that the bot implements
// @Router /bot/commands [get]
func handleGetCommands() func(c *gin.Context) {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, command.All)
	}
}

// Leaderboard
// @Summary Get a page of the ladder, optionally as CSV
// @Param mode query string false "standard or tdm"
// @Param sort query string false "mmr, wins, losses, kd or acs"
// @Param limit query int false "page size, at most 100"
// @Param offset query int false "rows to skip"
// @Param format query string false "csv"
// @Router /leaderboard [get]
func handleGetLeaderboard(api *Api) func(c *gin.Context) {
	return func(c *gin.Context) {
		mode, ok := queryMode(c)
		if !ok {
			return
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
		if err != nil || limit <= 0 || limit > maxLimit {
			abort(c, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if err != nil || offset < 0 {
			abort(c, http.StatusBadRequest, "invalid offset")
			return
		}
		ratings, err := api.store.Leaderboard(c, mode, storage.ParseLeaderboardSort(c.Query("sort")), limit, offset)
		if err != nil {
			abort(c, http.StatusInternalServerError, err.Error())
			return
		}
		if c.Query("format") == "csv" {
			c.Header("Content-Disposition", "attachment; filename=leaderboard.csv")
			c.Data(http.StatusOK, "text/csv", []byte(storage.RatingsToCSV(ratings)))
			return
		}
		c.JSON(http.StatusOK, ratings)
	}
}

type PlayerResponse struct {
	Rating *storage.PostgresRating `json:"rating"`
	Rank   int                     `json:"rank"`
}

// Player
// @Summary Get one player's rating and rank
// @Param userID path string true "Discord user ID"
// @Param mode query string false "standard or tdm"
// @Router /players/{userID} [get]
func handleGetPlayer(api *Api) func(c *gin.Context) {
	return func(c *gin.Context) {
		userID := c.Param("userID")
		if discord.ValidateSnowflake(userID) != nil {
			abort(c, http.StatusBadRequest, "invalid user ID")
			return
		}
		mode, ok := queryMode(c)
		if !ok {
			return
		}
		r, err := api.store.FindRating(c, userID, mode)
		if errors.Is(err, storage.ErrNotFound) {
			abort(c, http.StatusNotFound, "no rating for that player")
			return
		} else if err != nil {
			abort(c, http.StatusInternalServerError, err.Error())
			return
		}
		rank, err := api.store.RankOf(c, userID, mode)
		if err != nil {
			abort(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, PlayerResponse{Rating: r, Rank: rank})
	}
}

type SeasonResponse struct {
	SeasonNumber  int                 `json:"season_number"`
	StartedAt     time.Time           `json:"started_at"`
	EndsAt        time.Time           `json:"ends_at"`
	MatchesPlayed int                 `json:"matches_played"`
	LastSeason    *storage.LastSeason `json:"last_season,omitempty"`
}

// Season
// @Summary Get the current season
// @Router /season [get]
func handleGetSeason(api *Api) func(c *gin.Context) {
	return func(c *gin.Context) {
		s, err := api.store.GetSeason(c)
		if errors.Is(err, storage.ErrNotFound) {
			abort(c, http.StatusNotFound, "no season has started yet")
			return
		} else if err != nil {
			abort(c, http.StatusInternalServerError, err.Error())
			return
		}
		last, err := s.GetLastSeason()
		if err != nil {
			abort(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, SeasonResponse{
			SeasonNumber:  s.SeasonNumber,
			StartedAt:     s.StartedAt,
			EndsAt:        season.End(s),
			MatchesPlayed: s.MatchesPlayed,
			LastSeason:    last,
		})
	}
}

// Session
// @Summary Get the live match session for a guild
// @Security BasicAuth
// @Param guildID path string true "Guild ID"
// @Router /sessions/{guildID} [get]
func handleGetSession(api *Api) func(c *gin.Context) {
	return func(c *gin.Context) {
		guildID := c.Param("guildID")
		if discord.ValidateSnowflake(guildID) != nil {
			abort(c, http.StatusBadRequest, "invalid guild ID")
			return
		}
		snap, ok := api.sessions.Session(guildID)
		if !ok {
			abort(c, http.StatusNotFound, "no match is running in that guild")
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}
