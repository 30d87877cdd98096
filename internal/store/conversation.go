package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nextch/chat-engine/internal/types"
)

// ConversationRepository handles local persistence of conversations.
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Save writes a conversation, overwriting any previous record, and keeps
// the by-recipient index current. Only one draft per counterpart exists at
// a time, so the index maps a recipient to at most one conversation.
func (r *ConversationRepository) Save(conv *types.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	if err := r.db.set(convKey(conv.ID), data); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	if err := r.db.set(convRecipientKey(conv.RecipientID), []byte(conv.ID)); err != nil {
		return fmt.Errorf("index conversation: %w", err)
	}
	return nil
}

// GetByID returns a conversation by id, or ErrNotFound.
func (r *ConversationRepository) GetByID(id string) (*types.Conversation, error) {
	data, err := r.db.get(convKey(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	var conv types.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	return &conv, nil
}

// GetByRecipient returns the conversation indexed for the counterpart, or
// ErrNotFound. Used to resolve an existing draft before creating a new one.
func (r *ConversationRepository) GetByRecipient(recipientID string) (*types.Conversation, error) {
	id, err := r.db.get(convRecipientKey(recipientID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup conversation by recipient: %w", err)
	}
	return r.GetByID(string(id))
}

// List returns all locally stored conversations.
func (r *ConversationRepository) List() ([]types.Conversation, error) {
	iter, err := r.db.newIter()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	prefix := []byte("conv:")
	var out []types.Conversation
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var conv types.Conversation
		if err := json.Unmarshal(iter.Value(), &conv); err != nil {
			return nil, fmt.Errorf("unmarshal conversation: %w", err)
		}
		out = append(out, conv)
	}
	return out, iter.Error()
}

// Delete removes a conversation, its recipient index entry and all of its
// messages.
func (r *ConversationRepository) Delete(id string) error {
	conv, err := r.GetByID(id)
	if err != nil {
		return err
	}
	msgs := NewMessageRepository(r.db)
	if err := msgs.DeleteByConversation(id); err != nil {
		return fmt.Errorf("delete conversation messages: %w", err)
	}
	if err := r.db.delete(convRecipientKey(conv.RecipientID)); err != nil {
		return fmt.Errorf("delete conversation index: %w", err)
	}
	if err := r.db.delete(convKey(id)); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}
