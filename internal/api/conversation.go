package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nextch/chat-engine/internal/service/chat"
	"github.com/nextch/chat-engine/internal/types"
)

// DeleteMessagesRequest selects messages for deletion.
type DeleteMessagesRequest struct {
	MessageIDs []string `json:"message_ids"`
}

// OpenChat resolves a conversation for display: by id, by counterpart, or
// by creating a fresh local draft.
func (s *Server) OpenChat(c echo.Context) error {
	var req chat.OpenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.ConversationID == "" && req.Recipient.ID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "conversation_id or recipient is required"})
	}

	resp, err := s.chatService.Open(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		}
		s.logger.WithError(err).Error("failed to open chat")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to open chat"})
	}
	return c.JSON(http.StatusOK, resp)
}

// ListConversations returns all locally known conversations, most recently
// updated first.
func (s *Server) ListConversations(c echo.Context) error {
	convs, err := s.chatService.Conversations()
	if err != nil {
		s.logger.WithError(err).Error("failed to list conversations")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list conversations"})
	}
	if convs == nil {
		convs = []types.Conversation{}
	}
	return c.JSON(http.StatusOK, convs)
}

// FinalizeConversation submits a draft to the counterpart.
func (s *Server) FinalizeConversation(c echo.Context) error {
	result, err := s.chatService.Finalize(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrConversationNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		case errors.Is(err, chat.ErrSendNotAllowed):
			return c.JSON(http.StatusForbidden, ErrorResponse{Error: "finalize not allowed in this state"})
		}
		s.logger.WithError(err).Error("failed to finalize conversation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to finalize conversation"})
	}
	return c.JSON(http.StatusOK, result)
}

// CloseConversation administratively closes a conversation.
func (s *Server) CloseConversation(c echo.Context) error {
	conv, err := s.chatService.Close(c.Param("id"))
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		}
		s.logger.WithError(err).Error("failed to close conversation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to close conversation"})
	}
	return c.JSON(http.StatusOK, conv)
}

// MarkConversationRead flags all counterpart messages as read.
func (s *Server) MarkConversationRead(c echo.Context) error {
	if err := s.chatService.MarkRead(c.Param("id")); err != nil {
		s.logger.WithError(err).Error("failed to mark conversation read")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to mark conversation read"})
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// DeleteConversation removes a conversation and its messages locally.
func (s *Server) DeleteConversation(c echo.Context) error {
	if err := s.chatService.DeleteConversation(c.Param("id")); err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		}
		s.logger.WithError(err).Error("failed to delete conversation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete conversation"})
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// DeleteMessages removes explicitly selected messages.
func (s *Server) DeleteMessages(c echo.Context) error {
	var req DeleteMessagesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if len(req.MessageIDs) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message_ids is required"})
	}
	if err := s.chatService.DeleteMessages(c.Param("id"), req.MessageIDs); err != nil {
		s.logger.WithError(err).Error("failed to delete messages")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete messages"})
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// GetProfile returns a counterpart's cached display profile.
func (s *Server) GetProfile(c echo.Context) error {
	rec, err := s.profiles.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch profile")
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "failed to fetch profile"})
	}
	return c.JSON(http.StatusOK, rec)
}
