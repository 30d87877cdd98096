package chat

import "github.com/nextch/chat-engine/internal/types"

// Banner texts shown around the message list. Derived, never persisted.
const (
	bannerDraftIntro       = "This conversation is a draft. Messages stay on this device until you send it."
	bannerAwaitingAnswer   = "Sent. Waiting for their answer."
	bannerAnswerRequested  = "Waiting for your answer."
	bannerTheyAnswered     = "They answered. You can continue the conversation."
	bannerAnswerSent       = "Your answer was sent. Waiting for them to continue."
	bannerClosed           = "This conversation is closed."
)

// ApplyBanners decorates a message list with the synthetic system messages
// for the given status and viewer role. It is a pure function of its
// inputs and is recomputed whenever status or the list changes.
func ApplyBanners(msgs []types.Message, status types.Status, viewer types.ParticipantRole) []types.Message {
	out := make([]types.Message, 0, len(msgs)+1)

	if status == types.StatusDraft {
		out = append(out, types.NewSystemMessage(bannerDraftIntro))
	}
	out = append(out, msgs...)

	switch status {
	case types.StatusPendingRecipient:
		if viewer == types.RoleStarter {
			out = append(out, types.NewSystemMessage(bannerAwaitingAnswer))
		} else {
			out = append(out, types.NewSystemMessage(bannerAnswerRequested))
		}
	case types.StatusPendingSender:
		if viewer == types.RoleStarter {
			out = append(out, types.NewSystemMessage(bannerTheyAnswered))
		} else {
			out = append(out, types.NewSystemMessage(bannerAnswerSent))
		}
	case types.StatusClosed:
		out = append(out, types.NewSystemMessage(bannerClosed))
	}
	return out
}
