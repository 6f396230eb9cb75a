package command

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tenmans/tenmans/pkg/game"
	"github.com/tenmans/tenmans/pkg/locale"
	"github.com/tenmans/tenmans/pkg/match"
	"github.com/tenmans/tenmans/pkg/team"
	"github.com/tenmans/tenmans/pkg/vote"
)

// Component custom_id actions
const (
	ActionJoin        = "join"
	ActionLeave       = "leave"
	ActionVote        = "vote"
	ActionDraftStyle  = "draftstyle"
	ActionPick        = "pick"
	ActionLeaderboard = "leaderboard"
	ActionSeason      = "season"
)

func VoteResponse(outcome vote.Outcome, option string, err error) *discordgo.InteractionResponse {
	if errors.Is(err, match.ErrNoSession) {
		return NoSessionResponse()
	}
	var content string
	switch outcome {
	case vote.Accepted:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "components.vote.accepted",
			Other: "You voted for **{{.Option}}**.",
		}, map[string]interface{}{
			"Option": game.DisplayMapName(option),
		})
	case vote.NotEligible:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "components.vote.noteligible",
			Other: "Only queued players can vote.",
		})
	case vote.AlreadyVoted:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "components.vote.duplicate",
			Other: "You already voted!",
		})
	case vote.InvalidOption:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "components.vote.invalid",
			Other: "That isn't one of the options.",
		})
	default:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "components.vote.closed",
			Other: "This vote has already closed.",
		})
	}
	return PrivateResponse(content)
}

func StyleResponse(status team.StyleStatus, double bool, err error) *discordgo.InteractionResponse {
	if err != nil {
		return draftErrorResponse(err)
	}
	var content string
	switch status {
	case team.StyleAccepted:
		if double {
			content = locale.LocalizeMessage(&i18n.Message{
				ID:    "components.draft.style.double",
				Other: "Pick order set to **double**. The first captain picks first.",
			})
		} else {
			content = locale.LocalizeMessage(&i18n.Message{
				ID:    "components.draft.style.single",
				Other: "Pick order set to **single**. The second captain picks first.",
			})
		}
	case team.StyleNotSecondCaptain:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "components.draft.style.notcaptain",
			Other: "Only the second captain can choose the pick order.",
		})
	default:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "components.draft.style.chosen",
			Other: "The pick order has already been chosen.",
		})
	}
	return PrivateResponse(content)
}

func PickResponse(status team.PickStatus, err error) *discordgo.InteractionResponse {
	if err != nil {
		return draftErrorResponse(err)
	}
	var content string
	switch status {
	case team.PickAccepted:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "components.draft.pick.accepted",
			Other: "Pick locked in.",
		})
	case team.PickNotYourTurn:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "components.draft.pick.turn",
			Other: "It's not your turn to pick.",
		})
	case team.PickUnavailable:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "components.draft.pick.unavailable",
			Other: "That player has already been picked.",
		})
	case team.PickStyleNotChosen:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "components.draft.pick.nostyle",
			Other: "Wait for the second captain to choose the pick order.",
		})
	default:
		content = locale.LocalizeMessage(&i18n.Message{
			ID:    "components.draft.pick.over",
			Other: "The draft is over.",
		})
	}
	return PrivateResponse(content)
}

func draftErrorResponse(err error) *discordgo.InteractionResponse {
	if errors.Is(err, match.ErrNoSession) {
		return NoSessionResponse()
	}
	return PrivateResponse(locale.LocalizeMessage(&i18n.Message{
		ID:    "components.draft.inactive",
		Other: "There is no draft running right now.",
	}))
}
