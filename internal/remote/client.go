package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nextch/chat-engine/internal/types"
)

var (
	// ErrUnauthorized is returned on a 401; the auth collaborator treats
	// it as session expiry.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when the backend does not know the resource.
	ErrNotFound = errors.New("not found")
)

// TokenSource provides the bearer token for backend calls.
type TokenSource interface {
	Token() (string, error)
}

// Client is a client for the nextch backend conversation API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a new backend client.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Message is a message as the backend represents it.
type Message struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Type      string    `json:"type"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is a conversation as the backend represents it.
type Conversation struct {
	ID            string          `json:"id"`
	StarterID     string          `json:"starter_id"`
	RecipientID   string          `json:"recipient_id"`
	RecipientData types.Recipient `json:"recipient_data"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Messages      []Message       `json:"messages"`
}

// NewMessage is the wire shape for a message being sent.
type NewMessage struct {
	Type     string `json:"type"`
	Body     string `json:"body"`
	SenderID string `json:"sender_id,omitempty"`
}

// DraftAppendRequest appends a message to a draft conversation, creating
// the conversation server-side on first append.
type DraftAppendRequest struct {
	ConversationID string          `json:"conversation_id"`
	StarterID      string          `json:"starter_id"`
	RecipientID    string          `json:"recipient_id"`
	RecipientData  types.Recipient `json:"recipient_data"`
	Message        NewMessage      `json:"message"`
}

type draftAppendResponse struct {
	ConversationID string `json:"conversation_id"`
}

type messageRequest struct {
	ConversationID string     `json:"conversation_id"`
	Message        NewMessage `json:"message"`
}

type sendRequest struct {
	ConversationID string `json:"conversation_id"`
}

// GetConversation fetches a conversation with its messages.
func (c *Client) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	if err := c.do(ctx, http.MethodGet, "/conversation/"+id, nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// AppendDraft appends a draft message and returns the backend's id for the
// conversation (the client-generated id unless the backend reassigns it).
func (c *Client) AppendDraft(ctx context.Context, req DraftAppendRequest) (string, error) {
	var resp draftAppendResponse
	if err := c.do(ctx, http.MethodPost, "/conversation/message/draft", req, &resp); err != nil {
		return "", err
	}
	if resp.ConversationID == "" {
		return req.ConversationID, nil
	}
	return resp.ConversationID, nil
}

// Answer posts the recipient's answer; the backend transitions the
// conversation to pending_sender.
func (c *Client) Answer(ctx context.Context, convID string, msg NewMessage) error {
	return c.do(ctx, http.MethodPost, "/conversation/answer", messageRequest{ConversationID: convID, Message: msg}, nil)
}

// Continue posts the starter's follow-up; the backend transitions the
// conversation to pending_recipient.
func (c *Client) Continue(ctx context.Context, convID string, msg NewMessage) error {
	return c.do(ctx, http.MethodPost, "/conversation/continue", messageRequest{ConversationID: convID, Message: msg}, nil)
}

// Send finalizes a draft into pending_recipient.
func (c *Client) Send(ctx context.Context, convID string) error {
	return c.do(ctx, http.MethodPost, "/conversation/send", sendRequest{ConversationID: convID}, nil)
}

// GetUser fetches a user's display profile for the conversation header and
// recipient_data caching.
func (c *Client) GetUser(ctx context.Context, userID string) (*types.Recipient, error) {
	var rec types.Recipient
	if err := c.do(ctx, http.MethodGet, "/user/"+userID, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("resolve token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
