package types

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageID(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{13}-[0-9a-z]{6}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewMessageID()
		assert.Regexp(t, pattern, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNewTextMessage(t *testing.T) {
	msg, err := NewTextMessage(SenderMe, "hello")
	require.NoError(t, err)
	assert.Equal(t, TypeText, msg.Type)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, SenderMe, msg.From)
	assert.True(t, msg.IsRead, "own messages are read on creation")
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())

	_, err = NewTextMessage(SenderMe, "")
	assert.Error(t, err)
}

func TestNewTextMessageFromThem(t *testing.T) {
	msg, err := NewTextMessage(SenderThem, "hi")
	require.NoError(t, err)
	assert.False(t, msg.IsRead, "counterpart messages start unread")
}

func TestNewImageMessage(t *testing.T) {
	msg, err := NewImageMessage(SenderMe, ImageMeta{URL: "https://cdn/x.jpg", Width: 640, Height: 480}, "look")
	require.NoError(t, err)
	assert.Equal(t, TypeImage, msg.Type)
	assert.Equal(t, "https://cdn/x.jpg", msg.Content)
	assert.Equal(t, 640, msg.Width)
	assert.Equal(t, 480, msg.Height)
	assert.Equal(t, "look", msg.Caption)

	_, err = NewImageMessage(SenderMe, ImageMeta{}, "")
	assert.Error(t, err)
}

func TestNewImageGroupMessage(t *testing.T) {
	images := []ImageMeta{
		{URL: "https://cdn/a.jpg"},
		{URL: "https://cdn/b.jpg"},
	}
	msg, err := NewImageGroupMessage(SenderMe, images, "trip")
	require.NoError(t, err)
	assert.Equal(t, TypeImageGroup, msg.Type)
	assert.Len(t, msg.Images, 2)
	assert.Equal(t, "trip", msg.Caption)

	_, err = NewImageGroupMessage(SenderMe, nil, "")
	assert.Error(t, err)

	_, err = NewImageGroupMessage(SenderMe, []ImageMeta{{URL: "https://cdn/a.jpg"}, {}}, "")
	assert.Error(t, err, "every entry needs a url")
}

func TestNewAudioMessage(t *testing.T) {
	msg, err := NewAudioMessage(SenderMe, "", "1700000000000-abc123", 12)
	require.NoError(t, err)
	assert.Equal(t, TypeAudio, msg.Type)
	assert.Equal(t, "1700000000000-abc123", msg.MediaID)
	assert.Equal(t, 12, msg.Duration)

	msg, err = NewAudioMessage(SenderMe, "https://cdn/voice.webm", "", 5)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/voice.webm", msg.Content)

	_, err = NewAudioMessage(SenderMe, "", "", 5)
	assert.Error(t, err, "needs a url or a media id")

	_, err = NewAudioMessage(SenderMe, "https://cdn/voice.webm", "1700000000000-abc123", 5)
	assert.Error(t, err, "url and media id are mutually exclusive")
}

func TestNewVideoMessage(t *testing.T) {
	msg, err := NewVideoMessage(SenderMe, "", "1700000000000-xyz789", 30, 1280, 720)
	require.NoError(t, err)
	assert.Equal(t, TypeVideo, msg.Type)
	assert.Equal(t, 30, msg.Duration)
	assert.Equal(t, 1280, msg.Width)
	assert.Equal(t, 720, msg.Height)

	_, err = NewVideoMessage(SenderMe, "", "", 30, 0, 0)
	assert.Error(t, err)

	_, err = NewVideoMessage(SenderMe, "https://cdn/clip.webm", "1700000000000-xyz789", 30, 0, 0)
	assert.Error(t, err, "url and media id are mutually exclusive")
}

func TestNewFileMessage(t *testing.T) {
	msg, err := NewFileMessage(SenderMe, "https://cdn/doc.pdf", "doc.pdf", 2048, "application/pdf", "")
	require.NoError(t, err)
	assert.Equal(t, TypeFile, msg.Type)
	assert.Equal(t, "doc.pdf", msg.FileName)
	assert.Equal(t, int64(2048), msg.FileSize)
	assert.Equal(t, "application/pdf", msg.MimeType)

	_, err = NewFileMessage(SenderMe, "", "", 2048, "application/pdf", "")
	assert.Error(t, err, "name required")

	_, err = NewFileMessage(SenderMe, "", "doc.pdf", 0, "application/pdf", "")
	assert.Error(t, err, "size required")

	_, err = NewFileMessage(SenderMe, "", "doc.pdf", 2048, "", "")
	assert.Error(t, err, "mime type required")
}

func TestNewSystemMessage(t *testing.T) {
	msg := NewSystemMessage("conversation closed")
	assert.Equal(t, TypeSystem, msg.Type)
	assert.Equal(t, SenderSystem, msg.From)
	assert.Equal(t, "conversation closed", msg.Content)
}

func TestRoleOf(t *testing.T) {
	conv := NewDraftConversation("alice", Recipient{ID: "bob", Name: "Bob"})
	assert.Equal(t, RoleStarter, conv.RoleOf("alice"))
	assert.Equal(t, RoleRecipient, conv.RoleOf("bob"))
	assert.Equal(t, RoleNone, conv.RoleOf("carol"))
}

func TestNewDraftConversation(t *testing.T) {
	conv := NewDraftConversation("alice", Recipient{ID: "bob", Name: "Bob", Handle: "@bob"})
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "alice", conv.StarterID)
	assert.Equal(t, "bob", conv.RecipientID)
	assert.Equal(t, "Bob", conv.RecipientData.Name)
	assert.Equal(t, StatusDraft, conv.Status)
	assert.Equal(t, conv.CreatedAt, conv.UpdatedAt)
}
