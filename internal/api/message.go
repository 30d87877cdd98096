package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nextch/chat-engine/internal/service/chat"
	"github.com/nextch/chat-engine/internal/types"
)

// SendMessageRequest carries one outgoing message of any variant; Type
// selects which fields are read.
type SendMessageRequest struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	Caption  string            `json:"caption,omitempty"`
	Image    types.ImageMeta   `json:"image,omitempty"`
	Images   []types.ImageMeta `json:"images,omitempty"`
	URL      string            `json:"url,omitempty"`
	MediaID  string            `json:"media_id,omitempty"`
	Duration int               `json:"duration,omitempty"`
	Width    int               `json:"width,omitempty"`
	Height   int               `json:"height,omitempty"`
	FileName string            `json:"file_name,omitempty"`
	FileSize int64             `json:"file_size,omitempty"`
	MimeType string            `json:"mime_type,omitempty"`
}

func (r *SendMessageRequest) build() (types.Message, error) {
	switch types.MessageType(r.Type) {
	case types.TypeText:
		return types.NewTextMessage(types.SenderMe, r.Text)
	case types.TypeImage:
		return types.NewImageMessage(types.SenderMe, r.Image, r.Caption)
	case types.TypeImageGroup:
		return types.NewImageGroupMessage(types.SenderMe, r.Images, r.Caption)
	case types.TypeAudio:
		return types.NewAudioMessage(types.SenderMe, r.URL, r.MediaID, r.Duration)
	case types.TypeVideo:
		return types.NewVideoMessage(types.SenderMe, r.URL, r.MediaID, r.Duration, r.Width, r.Height)
	case types.TypeFile:
		return types.NewFileMessage(types.SenderMe, r.URL, r.FileName, r.FileSize, r.MimeType, r.Caption)
	default:
		return types.Message{}, errors.New("unknown message type")
	}
}

// SendMessage handles POST /chat/:id/messages.
func (s *Server) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	msg, err := req.build()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	result, err := s.chatService.Send(c.Request().Context(), c.Param("id"), msg)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrConversationNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		case errors.Is(err, chat.ErrSendNotAllowed):
			return c.JSON(http.StatusForbidden, ErrorResponse{Error: "sending not allowed in this state"})
		}
		s.logger.WithError(err).Error("failed to send message")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to send message"})
	}
	return c.JSON(http.StatusOK, result)
}
