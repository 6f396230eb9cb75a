package discord

import (
	"testing"
	"time"
)

func TestExtractUserIDFromText(t *testing.T) {
	_, err := ExtractUserIDFromText("invalid")
	if err == nil {
		t.Error("Expected error for invalid user ID string")
	}

	_, err = ExtractUserIDFromText("<@123>")
	if err == nil {
		t.Error("Expected error for invalid user ID string")
	}

	_, err = ExtractUserIDFromText("<@141101495071408128")
	if err == nil {
		t.Error("Expected error for invalid user ID string")
	}

	_, err = ExtractUserIDFromText("<@-141101495071408128>")
	if err == nil {
		t.Error("Expected error for invalid user ID string")
	}

	_, err = ExtractUserIDFromText("<@&141101495071408128>")
	if err == nil {
		t.Error("Expected error for a role mention")
	}

	id, err := ExtractUserIDFromText("<@141101495071408128>")
	if err != nil {
		t.Error("Expected nil error from valid user ID string <@141101495071408128>")
	}
	if id != "141101495071408128" {
		t.Error("ID was not extracted correctly")
	}

	id, err = ExtractUserIDFromText("<@!141101495071408128>")
	if err != nil {
		t.Error("Expected nil error from valid user ID string <@!141101495071408128>")
	}
	if id != "141101495071408128" {
		t.Error("ID was not extracted correctly")
	}

	id, err = ExtractUserIDFromText(" 141101495071408128 ")
	if err != nil || id != "141101495071408128" {
		t.Error("A bare ID should be accepted")
	}
}

func TestMentions(t *testing.T) {
	if MentionByUserID("1") != "<@1>" {
		t.Error("user mention")
	}
	if MentionByRoleID("2") != "<@&2>" {
		t.Error("role mention")
	}
	if MentionByChannelID("3") != "<#3>" {
		t.Error("channel mention")
	}
}

func TestCustomID(t *testing.T) {
	id := CustomID("vote", "map", "session-1")
	if id != "vote:map:session-1" {
		t.Errorf("unexpected custom id %s", id)
	}
	action, args := ParseCustomID(id)
	if action != "vote" || len(args) != 2 || args[0] != "map" || args[1] != "session-1" {
		t.Errorf("unexpected parse %s %v", action, args)
	}
	action, args = ParseCustomID("join")
	if action != "join" || len(args) != 0 {
		t.Errorf("unexpected parse %s %v", action, args)
	}
}

func TestSnowflakeTime(t *testing.T) {
	ts, err := SnowflakeTime("175928847299117063")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2016, 4, 30, 11, 18, 25, 796000000, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("expected %s, got %s", want, ts)
	}
	if _, err := SnowflakeTime("12"); err == nil {
		t.Error("Expected error for a pre-epoch snowflake")
	}
}
