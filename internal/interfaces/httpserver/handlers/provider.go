package handlers

import (
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"fridgewiz/server/internal/config"
	"fridgewiz/server/internal/domain/chat"
	"fridgewiz/server/internal/domain/conversation"
	"fridgewiz/server/internal/domain/media"
	"fridgewiz/server/internal/domain/user"
)

// Provider wires HTTP handlers.
type Provider struct {
	Chat         *ChatHandler
	Conversation *ConversationHandler
	Image        *ImageHandler
	Webhook      *WebhookHandler
	Health       *HealthHandler
}

func NewProvider(
	cfg *config.Config,
	db *gorm.DB,
	orchestrator *chat.Orchestrator,
	conversations *conversation.Service,
	mediaService *media.Service,
	users *user.Service,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Chat:         NewChatHandler(cfg, orchestrator, log),
		Conversation: NewConversationHandler(conversations, log),
		Image:        NewImageHandler(mediaService, log),
		Webhook:      NewWebhookHandler(cfg, users, log),
		Health:       NewHealthHandler(cfg, db, log),
	}
}
