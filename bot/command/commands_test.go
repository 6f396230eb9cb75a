package command

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/henrik"
	"github.com/tenmans/tenmans/pkg/ledger"
	"github.com/tenmans/tenmans/pkg/match"
	"github.com/tenmans/tenmans/pkg/storage"
	"github.com/tenmans/tenmans/pkg/team"
)

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func TestAllCommands(t *testing.T) {
	seen := map[string]bool{}
	for _, cmd := range All {
		assert.False(t, seen[cmd.Name], "duplicate command %s", cmd.Name)
		seen[cmd.Name] = true
		assert.NotEmpty(t, cmd.Description)
		assert.LessOrEqual(t, len(cmd.Description), 100, cmd.Name)
		assert.Equal(t, cmd, getCommand(cmd.Name))
	}
	for name := range Privileged {
		assert.True(t, seen[name], name)
	}
	assert.Nil(t, getCommand("nope"))
	assert.Len(t, Help.Options[0].Choices, len(All))
}

func TestHelpResponse(t *testing.T) {
	resp := HelpResponse(nil)
	require.Len(t, resp.Data.Embeds, 1)
	assert.Len(t, resp.Data.Embeds[0].Fields, len(All))
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)

	resp = HelpResponse([]*discordgo.ApplicationCommandInteractionDataOption{stringOption("command", "leaderboard")})
	assert.Equal(t, "`/leaderboard`", resp.Data.Embeds[0].Title)
	assert.Equal(t, "[sort]", resp.Data.Embeds[0].Fields[0].Name)
}

func TestGetModeParam(t *testing.T) {
	assert.Equal(t, game.Standard, GetModeParam(nil))
	assert.Equal(t, game.TDM, GetModeParam([]*discordgo.ApplicationCommandInteractionDataOption{stringOption("mode", "tdm")}))
	assert.Equal(t, game.Standard, GetModeParam([]*discordgo.ApplicationCommandInteractionDataOption{stringOption("mode", "bogus")}))
}

func TestStatusOf(t *testing.T) {
	wrapped := fmt.Errorf("join: %w", match.ErrQueueFull)
	assert.Equal(t, JoinSuccess, JoinStatusOf(nil))
	assert.Equal(t, JoinQueueFull, JoinStatusOf(wrapped))
	assert.Equal(t, JoinNotLinked, JoinStatusOf(match.ErrNotLinked))
	assert.Equal(t, JoinAlreadyQueued, JoinStatusOf(match.ErrAlreadyQueued))
	assert.Equal(t, JoinError, JoinStatusOf(errors.New("boom")))

	assert.Equal(t, SignupActive, SignupStatusOf(match.ErrSessionActive))
	assert.Equal(t, SignupUnreported, SignupStatusOf(match.ErrUnreported))
	assert.Equal(t, SignupError, SignupStatusOf(errors.New("no permission to create channels")))

	assert.Equal(t, LeaveNotQueued, LeaveStatusOf(match.ErrNotQueued))
	assert.Equal(t, LeaveNotSigningUp, LeaveStatusOf(match.ErrNotSigningUp))
}

func TestJoinResponse(t *testing.T) {
	snap := match.Snapshot{Capacity: 10, Queue: []team.Player{{UserID: "1"}, {UserID: "2"}, {UserID: "3"}}}
	resp := JoinResponse(JoinSuccess, "3", snap, nil)
	assert.Equal(t, "<@3> joined the queue! (3/10)", resp.Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)

	resp = JoinResponse(JoinError, "3", snap, errors.New("boom"))
	assert.Equal(t, "Couldn't add you to the queue: boom", resp.Data.Content)
}

func TestSignupResponse(t *testing.T) {
	resp := SignupResponse(SignupSuccess, match.Snapshot{Handle: match.Handle{ChannelID: "55"}}, nil)
	assert.Equal(t, "Queue started! Signup: <#55>", resp.Data.Content)
	assert.Zero(t, resp.Data.Flags)

	resp = SignupResponse(SignupUnreported, match.Snapshot{}, match.ErrUnreported)
	assert.Equal(t, "Report the last match before starting another one.", resp.Data.Content)
}

func TestReportErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "wrong map",
			err:  &match.MapMismatchError{Expected: "bind", Played: "split"},
			want: "Map doesn't match your most recent match. Unable to report it. (match was played on Split but the session selected Bind)",
		},
		{
			name: "missing players",
			err:  &match.MismatchError{Missing: []string{"a#1", "b#2"}},
			want: "The most recent match did not include every queued player. Missing: a#1, b#2",
		},
		{
			name: "not found",
			err:  &match.FetchError{RiotID: "a#1", Err: &henrik.StatusError{Code: 404}},
			want: "No recent matches found for your Riot ID (404).",
		},
		{
			name: "rate limited",
			err:  &match.FetchError{RiotID: "a#1", Err: &henrik.StatusError{Code: 429}},
			want: "Rate limit hit (429). Try again in a bit.",
		},
		{
			name: "forbidden",
			err:  &match.FetchError{RiotID: "a#1", Err: &henrik.StatusError{Code: 403}},
			want: "HenrikDev API rejected the request (401). Check that your API key is valid.",
		},
		{
			name: "unexpected status",
			err:  &match.FetchError{RiotID: "a#1", Err: &henrik.StatusError{Code: 500}},
			want: "Unexpected error from API (500).",
		},
		{
			name: "network",
			err:  &match.FetchError{RiotID: "a#1", Err: errors.New("dial tcp: timeout")},
			want: "Network error reaching HenrikDev API: dial tcp: timeout",
		},
		{
			name: "empty history",
			err:  &match.FetchError{RiotID: "a#1", Err: henrik.ErrNoMatches},
			want: "Could not retrieve match data.",
		},
		{
			name: "in flight",
			err:  match.ErrReportInFlight,
			want: "This match is already being reported.",
		},
		{
			name: "already counted",
			err:  match.ErrAlreadyReported,
			want: "Your most recent match has already been counted. Play this match before reporting it.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReportErrorMessage(tt.err))
		})
	}
}

func TestReportEmbed_TeamTwoWins(t *testing.T) {
	res := &match.ReportResult{
		Session: match.Snapshot{
			Name: "match-0042",
			Mode: game.Standard,
			Map:  "ascent",
			Teams: team.Teams{
				Team1: []team.Player{{UserID: "1", Name: "a#1"}},
				Team2: []team.Player{{UserID: "2", Name: "b#2"}},
			},
		},
		MatchID:    "m1",
		Resolution: match.Resolution{Winner: 2, Team1Rounds: 9, Team2Rounds: 13},
		Players: []*ledger.Result{
			{UserID: "1", Before: storage.PostgresRating{MMR: 1000}, After: storage.PostgresRating{MMR: 980}, Delta: -20},
			{UserID: "2", Before: storage.PostgresRating{MMR: 1000}, After: storage.PostgresRating{MMR: 1020}, Delta: 20},
		},
	}
	embed := ReportEmbed(res)
	assert.Equal(t, "match-0042 reported", embed.Title)
	assert.Contains(t, embed.Description, "**Team 2** won on Ascent (13-9)")
	assert.Equal(t, "<@2> 1000 → 1020 (+20)\n", embed.Fields[0].Value)
	assert.Equal(t, "<@1> 1000 → 980 (-20)\n", embed.Fields[1].Value)
	assert.Equal(t, "10-Mans | m1", embed.Footer.Text)
}

func TestNewTopPlayerMessage(t *testing.T) {
	assert.Equal(t, "alpha#na1 is now supersonic radiant!", NewTopPlayerMessage("Alpha#NA1"))
}

func TestRankLine(t *testing.T) {
	assert.Equal(t, "*Supersonic Radiant!* (Rank 1)", rankLine(1, 40))
	assert.Equal(t, "7/40", rankLine(7, 40))
	assert.Equal(t, "-", rankLine(0, 40))
}

func TestStatsResponse(t *testing.T) {
	r := storage.NewRating(5, string(game.Standard))
	r.Name = "alpha#na1"
	r.Wins, r.Losses, r.MatchesPlayed = 3, 1, 4
	resp := StatsResponse(StatsSuccess, StatsInfo{UserID: "5", Mode: game.Standard, Rating: r, Rank: 1, Total: 9})
	require.Len(t, resp.Data.Embeds, 1)
	embed := resp.Data.Embeds[0]
	assert.Equal(t, "alpha#na1's Stats", embed.Title)
	assert.Equal(t, "*Supersonic Radiant!* (Rank 1)", embed.Fields[1].Value)
	assert.Equal(t, "75.00%", embed.Fields[5].Value)

	resp = StatsResponse(StatsNoRating, StatsInfo{UserID: "5"})
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
}

func TestGetStatsParams(t *testing.T) {
	params := GetStatsParams(nil, "10", []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "user", Type: discordgo.ApplicationCommandOptionUser, Value: "20"},
		stringOption("mode", "tdm"),
	})
	assert.Equal(t, StatsParams{UserID: "20", Mode: game.TDM}, params)

	params = GetStatsParams(nil, "10", nil)
	assert.Equal(t, "10", params.UserID)

	params = GetStatsParams(nil, "10", []*discordgo.ApplicationCommandInteractionDataOption{
		stringOption("riot_id", "Player#NA1"),
	})
	assert.Equal(t, StatsParams{UserID: "10", RiotID: "Player#NA1", Mode: game.Standard}, params)

	params = GetStatsParams(nil, "10", []*discordgo.ApplicationCommandInteractionDataOption{
		stringOption("riot_id", "<@!141101495071408128>"),
	})
	assert.Equal(t, "141101495071408128", params.UserID)
	assert.Empty(t, params.RiotID)
}

func TestGetNewSeasonParams(t *testing.T) {
	tests := []struct {
		value string
		reset bool
	}{
		{"", true},
		{"noreset", false},
		{"KEEP", false},
		{"false", false},
		{"0", false},
		{"yes", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			var opts []*discordgo.ApplicationCommandInteractionDataOption
			if tt.value != "" {
				opts = append(opts, stringOption("reset", tt.value))
			}
			assert.Equal(t, tt.reset, GetNewSeasonParams(opts))
		})
	}
}

func TestLeaderboardPaging(t *testing.T) {
	assert.Equal(t, 1, LeaderboardPage{Total: 0}.TotalPages())
	assert.Equal(t, 1, LeaderboardPage{Total: 10}.TotalPages())
	assert.Equal(t, 3, LeaderboardPage{Total: 21}.TotalPages())
	assert.Equal(t, 0, ClampPage(-1, 21))
	assert.Equal(t, 2, ClampPage(9, 21))

	id := LeaderboardPageID(game.TDM, storage.SortKD, 2)
	assert.Equal(t, "leaderboard:tdm:kd:2", id)
	mode, sort, page, ok := ParseLeaderboardPageID([]string{"tdm", "kd", "2"})
	require.True(t, ok)
	assert.Equal(t, game.TDM, mode)
	assert.Equal(t, storage.SortKD, sort)
	assert.Equal(t, 2, page)

	_, _, _, ok = ParseLeaderboardPageID([]string{"tdm", "kd"})
	assert.False(t, ok)
}

func TestLeaderboardResponse(t *testing.T) {
	ratings := []*storage.PostgresRating{
		{UserID: 1, Name: "a#1", MMR: 1300, Wins: 9, Losses: 1},
		{UserID: 2, MMR: 1200, Wins: 5, Losses: 5},
	}
	resp := LeaderboardResponse(LeaderboardPage{Mode: game.Standard, Sort: storage.SortMMR, Page: 1, Total: 12, Ratings: ratings})
	embed := resp.Data.Embeds[0]
	assert.Equal(t, "**11.** a#1 | 1300 MMR | 9-1\n**12.** <@2> | 1200 MMR | 5-5\n", embed.Description)
	assert.Equal(t, "Page 2/2", embed.Footer.Text)

	row := resp.Data.Components[0].(discordgo.ActionsRow)
	prev := row.Components[0].(discordgo.Button)
	next := row.Components[1].(discordgo.Button)
	assert.False(t, prev.Disabled)
	assert.True(t, next.Disabled)
	assert.Equal(t, "leaderboard:standard:mmr:0", prev.CustomID)

	update := LeaderboardPageResponse(LeaderboardPage{Mode: game.Standard, Sort: storage.SortMMR})
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, update.Type)
}

func TestAPIErrorMessage_LinkNotFound(t *testing.T) {
	resp := LinkResponse(LinkAPIError, "a#1", &henrik.StatusError{Code: 404})
	assert.Equal(t, "Could not find that Riot account. Double-check the name and tag.", resp.Data.Content)
}
