package types

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

// SenderRole identifies who a message is from, relative to the viewer.
type SenderRole string

const (
	SenderMe     SenderRole = "me"
	SenderThem   SenderRole = "them"
	SenderSystem SenderRole = "system"
)

// MessageType discriminates the message content variants.
type MessageType string

const (
	TypeText       MessageType = "text"
	TypeImage      MessageType = "image"
	TypeImageGroup MessageType = "image_group"
	TypeAudio      MessageType = "audio"
	TypeVideo      MessageType = "video"
	TypeFile       MessageType = "file"
	TypeSystem     MessageType = "system"
)

// ImageMeta describes a single image inside an image or image_group message.
type ImageMeta struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Message is a single chat message. Messages are immutable after
// construction except for the IsRead flag.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id,omitempty"`
	From           SenderRole  `json:"from"`
	Type           MessageType `json:"type"`
	Content        string      `json:"content,omitempty"`
	MediaID        string      `json:"media_id,omitempty"`
	Images         []ImageMeta `json:"images,omitempty"`
	Caption        string      `json:"caption,omitempty"`
	FileName       string      `json:"file_name,omitempty"`
	FileSize       int64       `json:"file_size,omitempty"`
	MimeType       string      `json:"mime_type,omitempty"`
	Width          int         `json:"width,omitempty"`
	Height         int         `json:"height,omitempty"`
	Duration       int         `json:"duration,omitempty"`
	IsRead         bool        `json:"is_read"`
	CreatedAt      time.Time   `json:"created_at"`
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewMessageID returns a locally unique message identifier: unix millis
// plus a short random suffix to break same-millisecond ties.
func NewMessageID() string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + string(suffix)
}

func newMessage(typ MessageType, from SenderRole) Message {
	return Message{
		ID:        NewMessageID(),
		From:      from,
		Type:      typ,
		// Own messages never show an unread marker.
		IsRead:    from == SenderMe,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTextMessage builds a text message.
func NewTextMessage(from SenderRole, text string) (Message, error) {
	if text == "" {
		return Message{}, errors.New("text message requires content")
	}
	m := newMessage(TypeText, from)
	m.Content = text
	return m, nil
}

// NewImageMessage builds a single-image message. Width and height may be
// zero when unknown at construction time.
func NewImageMessage(from SenderRole, img ImageMeta, caption string) (Message, error) {
	if img.URL == "" {
		return Message{}, errors.New("image message requires a url")
	}
	m := newMessage(TypeImage, from)
	m.Content = img.URL
	m.Width = img.Width
	m.Height = img.Height
	m.Caption = caption
	return m, nil
}

// NewImageGroupMessage builds an image_group message from one or more images.
func NewImageGroupMessage(from SenderRole, images []ImageMeta, caption string) (Message, error) {
	if len(images) == 0 {
		return Message{}, errors.New("image group requires at least one image")
	}
	for i, img := range images {
		if img.URL == "" {
			return Message{}, fmt.Errorf("image group entry %d missing url", i)
		}
	}
	m := newMessage(TypeImageGroup, from)
	m.Images = images
	m.Caption = caption
	return m, nil
}

// NewAudioMessage builds an audio message. Exactly one of url or mediaID
// must be set: url for already-uploaded audio, mediaID for a blob in the
// local media store that the UI resolves lazily.
func NewAudioMessage(from SenderRole, url, mediaID string, duration int) (Message, error) {
	if (url == "") == (mediaID == "") {
		return Message{}, errors.New("audio message requires exactly one of url or media id")
	}
	m := newMessage(TypeAudio, from)
	m.Content = url
	m.MediaID = mediaID
	m.Duration = duration
	return m, nil
}

// NewVideoMessage builds a video message; same url/mediaID rule as audio.
func NewVideoMessage(from SenderRole, url, mediaID string, duration, width, height int) (Message, error) {
	if (url == "") == (mediaID == "") {
		return Message{}, errors.New("video message requires exactly one of url or media id")
	}
	m := newMessage(TypeVideo, from)
	m.Content = url
	m.MediaID = mediaID
	m.Duration = duration
	m.Width = width
	m.Height = height
	return m, nil
}

// NewFileMessage builds a generic file attachment message.
func NewFileMessage(from SenderRole, url, name string, size int64, mimeType, caption string) (Message, error) {
	if name == "" {
		return Message{}, errors.New("file message requires a name")
	}
	if size <= 0 {
		return Message{}, errors.New("file message requires a positive size")
	}
	if mimeType == "" {
		return Message{}, errors.New("file message requires a mime type")
	}
	m := newMessage(TypeFile, from)
	m.Content = url
	m.FileName = name
	m.FileSize = size
	m.MimeType = mimeType
	m.Caption = caption
	return m, nil
}

// NewSystemMessage builds a synthetic system message. System messages are
// derived for display and never persisted as conversation messages.
func NewSystemMessage(text string) Message {
	m := newMessage(TypeSystem, SenderSystem)
	m.Content = text
	return m
}
