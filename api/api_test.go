package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenmans/tenmans/pkg/discord"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/match"
	"github.com/tenmans/tenmans/pkg/storage"
)

const (
	testUserID  = "123456789012345678"
	testGuildID = "223456789012345678"
)

type fakeInfo struct{}

func (fakeInfo) GetInfo() discord.BotInfo {
	return discord.BotInfo{Version: "1.0.0", Season: 3, ActiveSessions: 1}
}

type fakeSessions map[string]match.Snapshot

func (f fakeSessions) Session(guildID string) (match.Snapshot, bool) {
	s, ok := f[guildID]
	return s, ok
}

type fakeStore struct {
	ratings   []*storage.PostgresRating
	season    *storage.PostgresSeason
	lastLimit int
	lastSort  storage.LeaderboardSort
	lastMode  game.Mode
}

func (f *fakeStore) Leaderboard(_ context.Context, mode game.Mode, sort storage.LeaderboardSort, limit, _ int) ([]*storage.PostgresRating, error) {
	f.lastMode, f.lastSort, f.lastLimit = mode, sort, limit
	return f.ratings, nil
}

func (f *fakeStore) FindRating(_ context.Context, userID string, mode game.Mode) (*storage.PostgresRating, error) {
	for _, r := range f.ratings {
		if r.Mode == string(mode) && userID == testUserID {
			return r, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) RankOf(context.Context, string, game.Mode) (int, error) {
	return 1, nil
}

func (f *fakeStore) GetSeason(context.Context) (*storage.PostgresSeason, error) {
	if f.season == nil {
		return nil, storage.ErrNotFound
	}
	return f.season, nil
}

func newTestApi(store *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	sessions := fakeSessions{testGuildID: {ID: "sess", GuildID: testGuildID, Name: "10mans-0001"}}
	return NewApi("secret", fakeInfo{}, sessions, store).Router()
}

func get(r *gin.Engine, path string, auth bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth {
		req.SetBasicAuth("admin", "secret")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func testRatings() []*storage.PostgresRating {
	return []*storage.PostgresRating{
		{UserID: 123456789012345678, Mode: "standard", Name: "alpha#na1", MMR: 1200, Wins: 3, Losses: 1},
	}
}

func TestGetInfo(t *testing.T) {
	rec := get(newTestApi(&fakeStore{}), "/bot/info", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var info discord.BotInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, 3, info.Season)
}

func TestGetCommands(t *testing.T) {
	rec := get(newTestApi(&fakeStore{}), "/bot/commands", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"signup"`)
}

func TestGetLeaderboard(t *testing.T) {
	store := &fakeStore{ratings: testRatings()}
	rec := get(newTestApi(store), "/leaderboard?mode=tdm&sort=wins&limit=5", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, game.TDM, store.lastMode)
	assert.Equal(t, storage.SortWins, store.lastSort)
	assert.Equal(t, 5, store.lastLimit)
	assert.Contains(t, rec.Body.String(), "alpha#na1")
}

func TestGetLeaderboard_CSV(t *testing.T) {
	rec := get(newTestApi(&fakeStore{ratings: testRatings()}), "/leaderboard?format=csv", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rec.Body.String(), "123456789012345678,standard,alpha#na1,1200,3,1,")
}

func TestGetLeaderboard_BadParams(t *testing.T) {
	r := newTestApi(&fakeStore{})
	assert.Equal(t, http.StatusBadRequest, get(r, "/leaderboard?limit=500", false).Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/leaderboard?offset=-1", false).Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/leaderboard?mode=ranked", false).Code)
}

func TestGetPlayer(t *testing.T) {
	r := newTestApi(&fakeStore{ratings: testRatings()})

	rec := get(r, "/players/"+testUserID, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp PlayerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Rank)
	assert.Equal(t, 1200, resp.Rating.MMR)

	assert.Equal(t, http.StatusNotFound, get(r, "/players/"+testUserID+"?mode=tdm", false).Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/players/nope", false).Code)
}

func TestGetSeason(t *testing.T) {
	started := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{season: &storage.PostgresSeason{
		ID:                storage.CurrentSeasonID,
		SeasonNumber:      2,
		StartedAt:         started,
		ResetPeriodMonths: 2,
		MatchesPlayed:     7,
	}}
	rec := get(newTestApi(store), "/season", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SeasonResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.SeasonNumber)
	assert.Equal(t, 7, resp.MatchesPlayed)
	assert.True(t, resp.EndsAt.After(started))
	assert.Nil(t, resp.LastSeason)

	assert.Equal(t, http.StatusNotFound, get(newTestApi(&fakeStore{}), "/season", false).Code)
}

func TestGetSession_RequiresAuth(t *testing.T) {
	r := newTestApi(&fakeStore{})
	assert.Equal(t, http.StatusUnauthorized, get(r, "/sessions/"+testGuildID, false).Code)

	rec := get(r, "/sessions/"+testGuildID, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "10mans-0001")

	assert.Equal(t, http.StatusNotFound, get(r, "/sessions/323456789012345678", true).Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/sessions/bad", true).Code)
}
