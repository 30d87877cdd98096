package chat

import (
	"context"

	"github.com/nextch/chat-engine/internal/remote"
	"github.com/nextch/chat-engine/internal/types"
)

// Remote is the slice of the backend API the lifecycle needs.
type Remote interface {
	GetConversation(ctx context.Context, id string) (*remote.Conversation, error)
	AppendDraft(ctx context.Context, req remote.DraftAppendRequest) (string, error)
	Answer(ctx context.Context, convID string, msg remote.NewMessage) error
	Continue(ctx context.Context, convID string, msg remote.NewMessage) error
	Send(ctx context.Context, convID string) error
}

// Identity resolves the current user from the held session token.
type Identity interface {
	UserID() (string, error)
	Validate() error
}

// OpenRequest resolves a conversation for display. Either ConversationID
// or Recipient must be set.
type OpenRequest struct {
	ConversationID string          `json:"conversation_id,omitempty"`
	Recipient      types.Recipient `json:"recipient,omitempty"`
}

// OpenResponse is the resolved conversation ready for rendering: messages
// include the derived system banners.
type OpenResponse struct {
	Conversation types.Conversation    `json:"conversation"`
	Messages     []types.Message       `json:"messages"`
	Role         types.ParticipantRole `json:"role"`
	CanSend      bool                  `json:"can_send"`
}

// SendResult reports the outcome of the two-phase send: the locally
// applied message, and whether the remote sync succeeded. On sync failure
// the message stays applied locally and the status is unchanged.
// ConversationID may differ from the requested id when the backend assigns
// its own id to a first-synced draft; callers must use it from then on.
type SendResult struct {
	ConversationID string        `json:"conversation_id"`
	Message        types.Message `json:"message"`
	Status         types.Status  `json:"status"`
	Synced         bool          `json:"synced"`
	SyncError      string        `json:"sync_error,omitempty"`
}

// FinalizeResult reports the outcome of finalizing a draft.
type FinalizeResult struct {
	Status    types.Status `json:"status"`
	Synced    bool         `json:"synced"`
	SyncError string       `json:"sync_error,omitempty"`
}
