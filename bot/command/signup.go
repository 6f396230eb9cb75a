package command

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tenmans/tenmans/pkg/discord"
	"github.com/tenmans/tenmans/pkg/locale"
	"github.com/tenmans/tenmans/pkg/match"
)

type SignupStatus int

const (
	SignupSuccess SignupStatus = iota
	SignupActive
	SignupUnreported
	SignupCancelled
	SignupError
)

var Signup = discordgo.ApplicationCommand{
	Name:        "signup",
	Description: "Start a new queue for a match",
	Options: []*discordgo.ApplicationCommandOption{
		modeOption("Queue type (10-Mans or TDM)"),
	},
}

func SignupStatusOf(err error) SignupStatus {
	switch {
	case err == nil:
		return SignupSuccess
	case errors.Is(err, match.ErrSessionActive):
		return SignupActive
	case errors.Is(err, match.ErrUnreported):
		return SignupUnreported
	case errors.Is(err, match.ErrNoSession):
		return SignupCancelled
	default:
		return SignupError
	}
}

func SignupResponse(status SignupStatus, snap match.Snapshot, err error) *discordgo.InteractionResponse {
	switch status {
	case SignupSuccess:
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: locale.LocalizeMessage(&i18n.Message{
					ID:    "commands.signup.success",
					Other: "Queue started! Signup: {{.Channel}}",
				}, map[string]interface{}{
					"Channel": discord.MentionByChannelID(snap.Handle.ChannelID),
				}),
			},
		}
	case SignupActive:
		return PrivateResponse(locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.signup.active",
			Other: "A signup is already in progress.",
		}))
	case SignupUnreported:
		return PrivateResponse(locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.signup.unreported",
			Other: "Report the last match before starting another one.",
		}))
	case SignupCancelled:
		return PrivateResponse(locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.signup.cancelled",
			Other: "The signup was cancelled while it was being set up.",
		}))
	default:
		return PrivateResponse(locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.signup.error",
			Other: "Error setting up queue: {{.Error}}",
		}, map[string]interface{}{
			"Error": errorText(err),
		}))
	}
}

type JoinStatus int

const (
	JoinSuccess JoinStatus = iota
	JoinNoSession
	JoinNotSigningUp
	JoinNotLinked
	JoinAlreadyQueued
	JoinQueueFull
	JoinError
)

func JoinStatusOf(err error) JoinStatus {
	switch {
	case err == nil:
		return JoinSuccess
	case errors.Is(err, match.ErrNoSession):
		return JoinNoSession
	case errors.Is(err, match.ErrNotSigningUp):
		return JoinNotSigningUp
	case errors.Is(err, match.ErrNotLinked):
		return JoinNotLinked
	case errors.Is(err, match.ErrAlreadyQueued):
		return JoinAlreadyQueued
	case errors.Is(err, match.ErrQueueFull):
		return JoinQueueFull
	default:
		return JoinError
	}
}

func JoinResponse(status JoinStatus, userID string, snap match.Snapshot, err error) *discordgo.InteractionResponse {
	var content string
	switch status {
	case JoinSuccess:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.signup.join.success",
			Other: "{{.User}} joined the queue! ({{.Count}}/{{.Capacity}})",
		}, map[string]interface{}{
			"User":     discord.MentionByUserID(userID),
			"Count":    len(snap.Queue),
			"Capacity": snap.Capacity,
		})
	case JoinNoSession:
		return NoSessionResponse()
	case JoinNotSigningUp:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.signup.join.closed",
			Other: "Signups for this match are closed.",
		})
	case JoinNotLinked:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.signup.join.unlinked",
			Other: "You need to link your Riot account first. Use `/link Name#Tag`.",
		})
	case JoinAlreadyQueued:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.signup.join.duplicate",
			Other: "You're already in the queue!",
		})
	case JoinQueueFull:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.signup.join.full",
			Other: "The queue is full.",
		})
	default:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.signup.join.error",
			Other: "Couldn't add you to the queue: {{.Error}}",
		}, map[string]interface{}{
			"Error": errorText(err),
		})
	}
	return PrivateResponse(content)
}

type LeaveStatus int

const (
	LeaveSuccess LeaveStatus = iota
	LeaveNoSession
	LeaveNotSigningUp
	LeaveNotQueued
	LeaveError
)

func LeaveStatusOf(err error) LeaveStatus {
	switch {
	case err == nil:
		return LeaveSuccess
	case errors.Is(err, match.ErrNoSession):
		return LeaveNoSession
	case errors.Is(err, match.ErrNotSigningUp):
		return LeaveNotSigningUp
	case errors.Is(err, match.ErrNotQueued):
		return LeaveNotQueued
	default:
		return LeaveError
	}
}

func LeaveResponse(status LeaveStatus, snap match.Snapshot, err error) *discordgo.InteractionResponse {
	var content string
	switch status {
	case LeaveSuccess:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.signup.leave.success",
			Other: "You left the queue. ({{.Count}}/{{.Capacity}})",
		}, map[string]interface{}{
			"Count":    len(snap.Queue),
			"Capacity": snap.Capacity,
		})
	case LeaveNoSession:
		return NoSessionResponse()
	case LeaveNotSigningUp:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.signup.leave.closed",
			Other: "You can only leave while the signup is open.",
		})
	case LeaveNotQueued:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.signup.leave.notqueued",
			Other: "You're not in the queue.",
		})
	default:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "commands.signup.leave.error",
			Other: "Couldn't remove you from the queue: {{.Error}}",
		}, map[string]interface{}{
			"Error": errorText(err),
		})
	}
	return PrivateResponse(content)
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
