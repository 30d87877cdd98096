package api

import (
	"github.com/sirupsen/logrus"

	"github.com/nextch/chat-engine/internal/service"
	"github.com/nextch/chat-engine/internal/service/chat"
	"github.com/nextch/chat-engine/internal/service/profile"
	"github.com/nextch/chat-engine/internal/store"
)

// Server holds the local gateway's dependencies.
type Server struct {
	chatService *chat.Service
	mediaRepo   *store.MediaRepository
	profiles    *profile.Service
	tokens      *service.TokenService
	maxUpload   int64
	logger      *logrus.Logger
}

// NewServer creates a new gateway API server.
func NewServer(chatService *chat.Service, mediaRepo *store.MediaRepository, profiles *profile.Service, tokens *service.TokenService, maxUpload int64, logger *logrus.Logger) *Server {
	return &Server{
		chatService: chatService,
		mediaRepo:   mediaRepo,
		profiles:    profiles,
		tokens:      tokens,
		maxUpload:   maxUpload,
		logger:      logger,
	}
}
