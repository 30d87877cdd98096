package types

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a conversation.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusPendingRecipient Status = "pending_recipient"
	StatusPendingSender    Status = "pending_sender"
	StatusClosed           Status = "closed"
)

// ParticipantRole is a user's role relative to a conversation.
type ParticipantRole string

const (
	RoleStarter   ParticipantRole = "starter"
	RoleRecipient ParticipantRole = "recipient"
	RoleNone      ParticipantRole = "none"
)

// Recipient is cached display info for the counterpart, shown before any
// message exists.
type Recipient struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Handle string `json:"handle,omitempty"`
}

// Conversation is a two-party conversation. StarterID and RecipientID are
// fixed at creation; Status only moves along the lifecycle transitions.
type Conversation struct {
	ID            string    `json:"id"`
	StarterID     string    `json:"starter_id"`
	RecipientID   string    `json:"recipient_id"`
	RecipientData Recipient `json:"recipient_data"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewDraftConversation creates a local draft with a client-generated id.
// Drafts live in the local store until the starter finalizes them.
func NewDraftConversation(starterID string, recipient Recipient) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:            uuid.NewString(),
		StarterID:     starterID,
		RecipientID:   recipient.ID,
		RecipientData: recipient,
		Status:        StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RoleOf returns the participant role of userID in the conversation.
func (c *Conversation) RoleOf(userID string) ParticipantRole {
	switch userID {
	case c.StarterID:
		return RoleStarter
	case c.RecipientID:
		return RoleRecipient
	default:
		return RoleNone
	}
}
