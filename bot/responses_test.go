package bot

import (
	"strconv"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/match"
	"github.com/tenmans/tenmans/pkg/team"
	"github.com/tenmans/tenmans/pkg/vote"
)

func players(n int) []team.Player {
	out := make([]team.Player, n)
	for i := range out {
		out[i] = team.Player{UserID: strconv.Itoa(i + 1), Name: "p" + strconv.Itoa(i) + "#na1", MMR: 1000 + i}
	}
	return out
}

func baseSnapshot(phase game.Phase) match.Snapshot {
	return match.Snapshot{
		ID:        "sess",
		GuildID:   "guild",
		ChannelID: "origin",
		StarterID: "1",
		Name:      "10mans-1234",
		Mode:      game.Standard,
		Phase:     phase.String(),
		Capacity:  game.StandardCapacity,
		Handle:    match.Handle{ChannelID: "chan", RoleID: "role"},
	}
}

func firstRow(t *testing.T, components []discordgo.MessageComponent) discordgo.ActionsRow {
	require.NotEmpty(t, components)
	row, ok := components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	return row
}

func TestSessionResponse_Signup(t *testing.T) {
	snap := baseSnapshot(game.SigningUp)
	snap.Queue = players(3)

	embed, components := sessionResponse(snap)
	require.True(t, ValidFields(embed))
	assert.Contains(t, embed.Fields[0].Name, "3/10")
	assert.Contains(t, embed.Fields[0].Value, "<@1> (1000)")

	row := firstRow(t, components)
	require.Len(t, row.Components, 2)
	join := row.Components[0].(discordgo.Button)
	leave := row.Components[1].(discordgo.Button)
	assert.Equal(t, "join:sess", join.CustomID)
	assert.Equal(t, "leave:sess", leave.CustomID)
}

func TestSessionResponse_EmptyQueueStillValid(t *testing.T) {
	embed, _ := sessionResponse(baseSnapshot(game.SigningUp))
	assert.True(t, ValidFields(embed))
	assert.Equal(t, "-", embed.Fields[0].Value)
}

func TestSessionResponse_Vote(t *testing.T) {
	snap := baseSnapshot(game.Voting)
	snap.Strategy = game.Balanced
	snap.MapType = game.Competitive
	snap.Vote = &match.VoteSnapshot{
		Name:    match.VoteMap,
		Options: []string{"ascent", "bind", "haven"},
		Tally:   vote.Tally{"bind": 2},
	}

	embed, components := sessionResponse(snap)
	require.True(t, ValidFields(embed))
	// two decided fields then one per option
	require.Len(t, embed.Fields, 5)
	assert.Equal(t, "Bind", embed.Fields[3].Name)
	assert.Equal(t, "2 votes", embed.Fields[3].Value)
	assert.Equal(t, "0 votes", embed.Fields[2].Value)

	menu := firstRow(t, components).Components[0].(discordgo.SelectMenu)
	assert.Equal(t, "vote:map:sess", menu.CustomID)
	require.Len(t, menu.Options, 3)
	assert.Equal(t, "ascent", menu.Options[0].Value)
	assert.Equal(t, "Ascent", menu.Options[0].Label)
}

func TestSessionResponse_VoteBetweenPhases(t *testing.T) {
	snap := baseSnapshot(game.Voting)
	snap.Strategy = game.Captains

	embed, components := sessionResponse(snap)
	assert.True(t, ValidFields(embed))
	assert.Empty(t, components)
	require.Len(t, embed.Fields, 1)
	assert.Equal(t, "Captains", embed.Fields[0].Value)
}

func TestSessionResponse_DraftStyle(t *testing.T) {
	ps := players(10)
	snap := baseSnapshot(game.FormingTeams)
	snap.Draft = &match.DraftSnapshot{
		Captain1: ps[0],
		Captain2: ps[1],
		Pool:     ps[2:],
		Teams:    team.Teams{Team1: ps[:1], Team2: ps[1:2]},
	}

	embed, components := sessionResponse(snap)
	require.True(t, ValidFields(embed))
	assert.Contains(t, embed.Description, "<@2>, choose the pick order")

	row := firstRow(t, components)
	require.Len(t, row.Components, 2)
	assert.Equal(t, "draftstyle:single:sess", row.Components[0].(discordgo.Button).CustomID)
	assert.Equal(t, "draftstyle:double:sess", row.Components[1].(discordgo.Button).CustomID)
}

func TestSessionResponse_DraftPick(t *testing.T) {
	ps := players(10)
	snap := baseSnapshot(game.FormingTeams)
	snap.Draft = &match.DraftSnapshot{
		Captain1:    ps[0],
		Captain2:    ps[1],
		StyleChosen: true,
		Current:     ps[1].UserID,
		Pool:        ps[2:],
		Teams:       team.Teams{Team1: ps[:1], Team2: ps[1:2]},
	}

	embed, components := sessionResponse(snap)
	assert.Contains(t, embed.Description, "<@2>, it's your pick!")

	menu := firstRow(t, components).Components[0].(discordgo.SelectMenu)
	assert.Equal(t, "pick:sess", menu.CustomID)
	require.Len(t, menu.Options, 8)
	assert.Equal(t, ps[2].UserID, menu.Options[0].Value)
	assert.Equal(t, "1002 MMR", menu.Options[0].Description)
}

func TestSessionResponse_InProgress(t *testing.T) {
	ps := players(4)
	snap := baseSnapshot(game.InProgress)
	snap.Map = "lotus"
	snap.Strategy = game.Balanced
	snap.Teams = team.Teams{Team1: []team.Player{ps[0], ps[3]}, Team2: []team.Player{ps[1], ps[2]}}

	embed, components := sessionResponse(snap)
	require.True(t, ValidFields(embed))
	assert.Empty(t, components)
	assert.Contains(t, embed.Title, "Lotus")
	assert.Equal(t, "Team 1 (2003)", embed.Fields[0].Name)
	assert.Equal(t, "Team 2 (2003)", embed.Fields[1].Name)
	assert.Contains(t, embed.Description, "/report")
}

func TestVoteResolvedMessage(t *testing.T) {
	snap := baseSnapshot(game.Voting)
	assert.Equal(t, "", voteResolvedMessage(snap))

	snap.Strategy = game.Captains
	assert.Equal(t, "**Captains** wins the team formation vote!", voteResolvedMessage(snap))

	snap.MapType = game.AllMaps
	snap.Map = "icebox"
	assert.Equal(t, "**Icebox** wins the map vote!", voteResolvedMessage(snap))
}

func TestHasRoleNamed(t *testing.T) {
	roles := []*discordgo.Role{
		{ID: "10", Name: "Member"},
		{ID: "20", Name: "owner"},
		nil,
	}
	assert.True(t, hasRoleNamed([]string{"10", "20"}, roles, "Owner"))
	assert.False(t, hasRoleNamed([]string{"10"}, roles, "Owner"))
	assert.False(t, hasRoleNamed(nil, roles, "Owner"))
}

func TestAnnouncementChannel(t *testing.T) {
	channels := []*discordgo.Channel{
		{ID: "1", Name: "general", Type: discordgo.ChannelTypeGuildText},
		{ID: "2", Name: "announcements", Type: discordgo.ChannelTypeGuildVoice},
	}
	assert.Equal(t, "fallback", announcementChannel(channels, "fallback"))

	channels = append(channels, &discordgo.Channel{ID: "3", Name: "Announcements", Type: discordgo.ChannelTypeGuildText})
	assert.Equal(t, "3", announcementChannel(channels, "fallback"))
}

func TestValidFields(t *testing.T) {
	assert.False(t, ValidFields(nil))
	assert.True(t, ValidFields(&discordgo.MessageEmbed{}))
	assert.False(t, ValidFields(&discordgo.MessageEmbed{Fields: []*discordgo.MessageEmbedField{{Name: "a"}}}))
}

func TestSessionMessages_Bookkeeping(t *testing.T) {
	sms := NewSessionMessages(nil)
	_, ok := sms.Get("guild")
	assert.False(t, ok)

	sms.set("guild", &SessionMessage{MessageID: "m", MessageChannelID: "c", SessionID: "sess"})
	sms.deferred["m"] = &sessionRender{}

	sm, ok := sms.Get("guild")
	require.True(t, ok)
	assert.True(t, sm.Exists())
	assert.True(t, sm.shouldRefresh())

	sms.Forget("guild")
	_, ok = sms.Get("guild")
	assert.False(t, ok)
	assert.Nil(t, sms.takePendingEdit("m"))
}

func TestLastArg(t *testing.T) {
	assert.Equal(t, "", lastArg(nil))
	assert.Equal(t, "b", lastArg([]string{"a", "b"}))
}
