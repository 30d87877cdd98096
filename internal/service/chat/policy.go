package chat

import "github.com/nextch/chat-engine/internal/types"

// CanSend is the single authority for composition permission: both the
// lifecycle transitions and the UI compose-surface gating go through it.
// A participant may send only when
//   - they are the starter and the conversation is a draft,
//   - they are the recipient and it is pending_recipient, or
//   - they are the starter and it is pending_sender.
func CanSend(status types.Status, role types.ParticipantRole) bool {
	switch role {
	case types.RoleStarter:
		return status == types.StatusDraft || status == types.StatusPendingSender
	case types.RoleRecipient:
		return status == types.StatusPendingRecipient
	default:
		return false
	}
}

// nextStatus returns the status a conversation moves to after a message is
// accepted by the backend. Draft appends do not change status; the draft →
// pending_recipient move happens on finalize, not on append.
func nextStatus(status types.Status, role types.ParticipantRole) types.Status {
	switch {
	case status == types.StatusDraft && role == types.RoleStarter:
		return types.StatusDraft
	case status == types.StatusPendingRecipient && role == types.RoleRecipient:
		return types.StatusPendingSender
	case status == types.StatusPendingSender && role == types.RoleStarter:
		return types.StatusPendingRecipient
	default:
		return status
	}
}
