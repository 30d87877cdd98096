package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nextch/chat-engine/internal/remote"
	"github.com/nextch/chat-engine/internal/store"
	"github.com/nextch/chat-engine/internal/types"
)

// ErrSendNotAllowed is returned when the viewer may not compose in the
// conversation's current state.
var ErrSendNotAllowed = errors.New("sending not allowed in this state")

// ErrConversationNotFound is returned when a conversation exists neither
// remotely nor in the local cache.
var ErrConversationNotFound = errors.New("conversation not found")

// Service drives the conversation lifecycle: resolution on open, the
// permission authority, the optimistic local-then-remote send protocol and
// local cache reconciliation.
type Service struct {
	convRepo *store.ConversationRepository
	msgRepo  *store.MessageRepository
	remote   Remote
	identity Identity
	logger   *logrus.Logger

	// Reconciliation and sends for the same conversation are serialized so
	// a remote refetch cannot overwrite a concurrently appended message.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a new lifecycle service.
func NewService(convRepo *store.ConversationRepository, msgRepo *store.MessageRepository, rem Remote, identity Identity, logger *logrus.Logger) *Service {
	return &Service{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		remote:   rem,
		identity: identity,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Service) lock(convID string) func() {
	s.mu.Lock()
	l, ok := s.locks[convID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[convID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Open resolves a conversation for display: by id from the backend (local
// cache as fallback), else by counterpart from the local draft index, else
// a fresh draft. For non-draft conversations the backend's message list is
// authoritative and overwrites the local cache.
func (s *Service) Open(ctx context.Context, req OpenRequest) (*OpenResponse, error) {
	userID, err := s.identity.UserID()
	if err != nil {
		return nil, err
	}

	var conv *types.Conversation
	var fetched *remote.Conversation

	switch {
	case req.ConversationID != "":
		rc, err := s.remote.GetConversation(ctx, req.ConversationID)
		if err != nil {
			s.logger.WithError(err).WithField("conversation_id", req.ConversationID).
				Warn("remote fetch failed, falling back to local cache")
			cached, cerr := s.convRepo.GetByID(req.ConversationID)
			if cerr != nil {
				if errors.Is(cerr, store.ErrNotFound) {
					return nil, ErrConversationNotFound
				}
				return nil, cerr
			}
			conv = cached
		} else {
			conv = conversationFromRemote(rc)
			fetched = rc
		}
	case req.Recipient.ID != "":
		cached, err := s.convRepo.GetByRecipient(req.Recipient.ID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			conv = types.NewDraftConversation(userID, req.Recipient)
			if err := s.convRepo.Save(conv); err != nil {
				return nil, err
			}
		} else {
			conv = cached
		}
	default:
		return nil, errors.New("conversation id or recipient required")
	}

	unlock := s.lock(conv.ID)
	defer unlock()

	if fetched != nil {
		if err := s.overwriteCache(conv, fetched.Messages, userID); err != nil {
			return nil, err
		}
	}

	msgs, err := s.msgRepo.ListByConversation(conv.ID)
	if err != nil {
		return nil, err
	}

	// A known non-draft conversation with nothing cached means the cache
	// went stale; refetch the authoritative list.
	if fetched == nil && conv.Status != types.StatusDraft && len(msgs) == 0 {
		rc, err := s.remote.GetConversation(ctx, conv.ID)
		if err != nil {
			s.logger.WithError(err).WithField("conversation_id", conv.ID).
				Warn("authoritative refetch failed, showing cached state")
		} else {
			conv = conversationFromRemote(rc)
			if err := s.overwriteCache(conv, rc.Messages, userID); err != nil {
				return nil, err
			}
			msgs, err = s.msgRepo.ListByConversation(conv.ID)
			if err != nil {
				return nil, err
			}
		}
	}

	role := conv.RoleOf(userID)
	return &OpenResponse{
		Conversation: *conv,
		Messages:     ApplyBanners(msgs, conv.Status, role),
		Role:         role,
		CanSend:      CanSend(conv.Status, role),
	}, nil
}

// Send runs the two-phase send protocol: validate against the permission
// authority, apply the message locally, then invoke the matching remote
// operation. Remote failure never rolls back the local apply.
func (s *Service) Send(ctx context.Context, convID string, msg types.Message) (*SendResult, error) {
	userID, err := s.identity.UserID()
	if err != nil {
		return nil, err
	}

	unlock := s.lock(convID)
	defer unlock()

	conv, err := s.convRepo.GetByID(convID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	role := conv.RoleOf(userID)
	if !CanSend(conv.Status, role) {
		return nil, ErrSendNotAllowed
	}

	// Phase one: the sender sees the message immediately.
	msg.ConversationID = conv.ID
	msg.From = types.SenderMe
	msg.IsRead = true
	if err := s.msgRepo.Append(&msg); err != nil {
		return nil, err
	}
	conv.UpdatedAt = time.Now().UTC()
	if err := s.convRepo.Save(conv); err != nil {
		return nil, err
	}

	result := &SendResult{ConversationID: conv.ID, Message: msg, Status: conv.Status, Synced: true}

	// Phase two: remote sync. Failures are reported, not retried, and the
	// optimistic state stays.
	if err := s.syncRemote(ctx, conv, role, userID, msg); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"conversation_id": conv.ID,
			"message_id":      msg.ID,
		}).Error("remote sync failed, message kept locally")
		result.Synced = false
		result.SyncError = err.Error()
		return result, nil
	}

	// The sync may have adopted a backend-assigned conversation id.
	result.ConversationID = conv.ID
	result.Message.ConversationID = conv.ID

	next := nextStatus(conv.Status, role)
	if next != conv.Status {
		conv.Status = next
		conv.UpdatedAt = time.Now().UTC()
		if err := s.convRepo.Save(conv); err != nil {
			return nil, err
		}
	}
	result.Status = conv.Status
	return result, nil
}

func (s *Service) syncRemote(ctx context.Context, conv *types.Conversation, role types.ParticipantRole, userID string, msg types.Message) error {
	if err := s.identity.Validate(); err != nil {
		return err
	}

	wire := remote.NewMessage{Type: string(msg.Type), Body: wireBody(msg)}

	switch {
	case conv.Status == types.StatusDraft && role == types.RoleStarter:
		wire.SenderID = userID
		serverID, err := s.remote.AppendDraft(ctx, remote.DraftAppendRequest{
			ConversationID: conv.ID,
			StarterID:      conv.StarterID,
			RecipientID:    conv.RecipientID,
			RecipientData:  conv.RecipientData,
			Message:        wire,
		})
		if err != nil {
			return err
		}
		if serverID != "" && serverID != conv.ID {
			return s.adoptServerID(conv, serverID)
		}
		return nil
	case conv.Status == types.StatusPendingRecipient && role == types.RoleRecipient:
		return s.remote.Answer(ctx, conv.ID, wire)
	case conv.Status == types.StatusPendingSender && role == types.RoleStarter:
		return s.remote.Continue(ctx, conv.ID, wire)
	default:
		return ErrSendNotAllowed
	}
}

// adoptServerID rekeys the local conversation and its messages when the
// backend assigns its own conversation id to a first-synced draft.
func (s *Service) adoptServerID(conv *types.Conversation, serverID string) error {
	msgs, err := s.msgRepo.ListByConversation(conv.ID)
	if err != nil {
		return err
	}
	if err := s.convRepo.Delete(conv.ID); err != nil {
		return err
	}
	conv.ID = serverID
	for i := range msgs {
		msgs[i].ConversationID = serverID
	}
	if err := s.convRepo.Save(conv); err != nil {
		return err
	}
	return s.msgRepo.Replace(serverID, msgs)
}

// Finalize submits a draft, moving it to pending_recipient. Finalizing a
// conversation already in pending_recipient is a no-op.
func (s *Service) Finalize(ctx context.Context, convID string) (*FinalizeResult, error) {
	userID, err := s.identity.UserID()
	if err != nil {
		return nil, err
	}

	unlock := s.lock(convID)
	defer unlock()

	conv, err := s.convRepo.GetByID(convID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	if conv.Status == types.StatusPendingRecipient {
		return &FinalizeResult{Status: conv.Status, Synced: true}, nil
	}
	if conv.Status != types.StatusDraft || conv.RoleOf(userID) != types.RoleStarter {
		return nil, ErrSendNotAllowed
	}

	syncErr := s.identity.Validate()
	if syncErr == nil {
		syncErr = s.remote.Send(ctx, conv.ID)
	}
	if syncErr != nil {
		s.logger.WithError(syncErr).WithField("conversation_id", conv.ID).Error("finalize sync failed")
		return &FinalizeResult{Status: conv.Status, Synced: false, SyncError: syncErr.Error()}, nil
	}

	conv.Status = types.StatusPendingRecipient
	conv.UpdatedAt = time.Now().UTC()
	if err := s.convRepo.Save(conv); err != nil {
		return nil, err
	}
	return &FinalizeResult{Status: conv.Status, Synced: true}, nil
}

// Close administratively closes a conversation from any state. Closed is
// terminal: the compose surface stays disabled for both parties.
func (s *Service) Close(convID string) (*types.Conversation, error) {
	unlock := s.lock(convID)
	defer unlock()

	conv, err := s.convRepo.GetByID(convID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if conv.Status == types.StatusClosed {
		return conv, nil
	}
	conv.Status = types.StatusClosed
	conv.UpdatedAt = time.Now().UTC()
	if err := s.convRepo.Save(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// MarkRead flags all counterpart messages in a conversation as read.
func (s *Service) MarkRead(convID string) error {
	unlock := s.lock(convID)
	defer unlock()
	return s.msgRepo.MarkAllRead(convID)
}

// DeleteMessages removes explicitly selected messages from the local store.
func (s *Service) DeleteMessages(convID string, messageIDs []string) error {
	unlock := s.lock(convID)
	defer unlock()
	for _, id := range messageIDs {
		if err := s.msgRepo.Delete(id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete message %s: %w", id, err)
		}
	}
	return nil
}

// Conversations lists all locally known conversations, most recently
// updated first, for the conversation list screen.
func (s *Service) Conversations() ([]types.Conversation, error) {
	convs, err := s.convRepo.List()
	if err != nil {
		return nil, err
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
	return convs, nil
}

// DeleteConversation removes a conversation and all of its messages from
// the local store.
func (s *Service) DeleteConversation(convID string) error {
	unlock := s.lock(convID)
	defer unlock()
	if err := s.convRepo.Delete(convID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// overwriteCache replaces the locally cached conversation and messages
// with authoritative server data. Server order fully replaces local order.
func (s *Service) overwriteCache(conv *types.Conversation, msgs []remote.Message, userID string) error {
	if err := s.convRepo.Save(conv); err != nil {
		return err
	}
	formatted := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		formatted = append(formatted, messageFromRemote(m, conv.ID, userID))
	}
	return s.msgRepo.Replace(conv.ID, formatted)
}

func conversationFromRemote(rc *remote.Conversation) *types.Conversation {
	return &types.Conversation{
		ID:            rc.ID,
		StarterID:     rc.StarterID,
		RecipientID:   rc.RecipientID,
		RecipientData: rc.RecipientData,
		Status:        types.Status(rc.Status),
		CreatedAt:     rc.CreatedAt,
		UpdatedAt:     rc.UpdatedAt,
	}
}

func messageFromRemote(m remote.Message, convID, userID string) types.Message {
	from := types.SenderThem
	if m.SenderID == userID {
		from = types.SenderMe
	}
	msg := types.Message{
		ID:             m.ID,
		ConversationID: convID,
		From:           from,
		Type:           types.MessageType(m.Type),
		IsRead:         from == types.SenderMe,
		CreatedAt:      m.CreatedAt,
	}

	switch msg.Type {
	case types.TypeText, types.TypeSystem:
		msg.Content = m.Body
		return msg
	}
	var payload wirePayload
	if err := json.Unmarshal([]byte(m.Body), &payload); err != nil {
		// A body that is not a payload document is treated as plain content.
		msg.Content = m.Body
		return msg
	}
	msg.Content = payload.Content
	msg.MediaID = payload.MediaID
	msg.Images = payload.Images
	msg.Caption = payload.Caption
	msg.FileName = payload.FileName
	msg.FileSize = payload.FileSize
	msg.MimeType = payload.MimeType
	msg.Width = payload.Width
	msg.Height = payload.Height
	msg.Duration = payload.Duration
	return msg
}

// wirePayload carries a non-text message's content fields through the
// backend's body string so the variant survives a round trip.
type wirePayload struct {
	Content  string            `json:"content,omitempty"`
	MediaID  string            `json:"media_id,omitempty"`
	Images   []types.ImageMeta `json:"images,omitempty"`
	Caption  string            `json:"caption,omitempty"`
	FileName string            `json:"file_name,omitempty"`
	FileSize int64             `json:"file_size,omitempty"`
	MimeType string            `json:"mime_type,omitempty"`
	Width    int               `json:"width,omitempty"`
	Height   int               `json:"height,omitempty"`
	Duration int               `json:"duration,omitempty"`
}

// wireBody serializes a message's payload for the backend. Text goes as
// plain text; every other variant encodes its content fields as JSON.
func wireBody(msg types.Message) string {
	switch msg.Type {
	case types.TypeText, types.TypeSystem:
		return msg.Content
	}
	data, err := json.Marshal(wirePayload{
		Content:  msg.Content,
		MediaID:  msg.MediaID,
		Images:   msg.Images,
		Caption:  msg.Caption,
		FileName: msg.FileName,
		FileSize: msg.FileSize,
		MimeType: msg.MimeType,
		Width:    msg.Width,
		Height:   msg.Height,
		Duration: msg.Duration,
	})
	if err != nil {
		return msg.Content
	}
	return string(data)
}
