package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nextch/chat-engine/internal/types"
)

// MessageRepository handles local persistence of messages.
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append stores a message under its conversation with a sortable timestamp
// key, so a prefix scan yields messages in append order. An id index entry
// is written alongside for later deletion.
func (r *MessageRepository) Append(msg *types.Message) error {
	if msg.ConversationID == "" {
		return errors.New("message missing conversation id")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	key := msgKey(msg.ConversationID, time.Now().UTC().UnixNano(), r.db.nextSeq())
	if err := r.db.set(key, data); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	if err := r.db.set(msgIDKey(msg.ID), []byte(key)); err != nil {
		return fmt.Errorf("index message: %w", err)
	}
	return nil
}

// ListByConversation returns all messages for a conversation sorted by
// creation time.
func (r *MessageRepository) ListByConversation(convID string) ([]types.Message, error) {
	iter, err := r.db.newIter()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	prefix := []byte(msgPrefix(convID))
	var out []types.Message
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var msg types.Message
		if err := json.Unmarshal(iter.Value(), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		out = append(out, msg)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// MarkAllRead sets the read flag on every counterpart message in a
// conversation. The read flag is the only field a stored message ever
// changes; records are rewritten in place under their original keys.
func (r *MessageRepository) MarkAllRead(convID string) error {
	iter, err := r.db.newIter()
	if err != nil {
		return err
	}

	prefix := []byte(msgPrefix(convID))
	updates := make(map[string][]byte)
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var msg types.Message
		if err := json.Unmarshal(iter.Value(), &msg); err != nil {
			iter.Close()
			return fmt.Errorf("unmarshal message: %w", err)
		}
		if msg.From != types.SenderThem || msg.IsRead {
			continue
		}
		msg.IsRead = true
		data, err := json.Marshal(msg)
		if err != nil {
			iter.Close()
			return fmt.Errorf("marshal message: %w", err)
		}
		updates[string(iter.Key())] = data
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return err
	}
	iter.Close()

	for k, v := range updates {
		if err := r.db.set(k, v); err != nil {
			return fmt.Errorf("mark message read: %w", err)
		}
	}
	return nil
}

// Delete removes a single message by id, or ErrNotFound.
func (r *MessageRepository) Delete(messageID string) error {
	key, err := r.db.get(msgIDKey(messageID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup message: %w", err)
	}
	if err := r.db.delete(string(key)); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if err := r.db.delete(msgIDKey(messageID)); err != nil {
		return fmt.Errorf("delete message index: %w", err)
	}
	return nil
}

// DeleteByConversation removes every message belonging to a conversation.
// Used when the local cache is overwritten by authoritative server data and
// by the conversation delete cascade.
func (r *MessageRepository) DeleteByConversation(convID string) error {
	iter, err := r.db.newIter()
	if err != nil {
		return err
	}
	defer iter.Close()

	prefix := []byte(msgPrefix(convID))
	var keys []string
	var ids []string
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		keys = append(keys, string(iter.Key()))
		var msg types.Message
		if err := json.Unmarshal(iter.Value(), &msg); err == nil && msg.ID != "" {
			ids = append(ids, msg.ID)
		}
	}
	if err := iter.Error(); err != nil {
		return err
	}
	for _, k := range keys {
		if err := r.db.delete(k); err != nil {
			return fmt.Errorf("delete message: %w", err)
		}
	}
	for _, id := range ids {
		if err := r.db.delete(msgIDKey(id)); err != nil {
			return fmt.Errorf("delete message index: %w", err)
		}
	}
	return nil
}

// Replace atomically swaps the locally cached messages of a conversation
// with the given authoritative list, preserving the given order.
func (r *MessageRepository) Replace(convID string, msgs []types.Message) error {
	if err := r.DeleteByConversation(convID); err != nil {
		return err
	}
	for i := range msgs {
		if err := r.Append(&msgs[i]); err != nil {
			return err
		}
	}
	return nil
}
