package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fridgewiz/server/internal/domain/user"
	"fridgewiz/server/internal/infrastructure/auth"
	"fridgewiz/server/internal/interfaces/httpserver/handlers"
	"fridgewiz/server/internal/interfaces/httpserver/middlewares"
)

// Routes encapsulates API route registration.
type Routes struct {
	handlers  *handlers.Provider
	validator *auth.Validator
	users     *user.Service
	log       zerolog.Logger
}

func NewRoutes(provider *handlers.Provider, validator *auth.Validator, users *user.Service, log zerolog.Logger) *Routes {
	return &Routes{
		handlers:  provider,
		validator: validator,
		users:     users,
		log:       log,
	}
}

// Register attaches all routes under the /api prefix. The webhook, image
// delete, and health endpoints sit outside the authenticated group: the
// webhook authenticates by signature, health is public, and image delete
// matches the original client contract.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/api")

	group.GET("/health", r.handlers.Health.Check)
	group.POST("/webhooks/clerk", r.handlers.Webhook.HandleClerk)
	group.DELETE("/images/:id", r.handlers.Image.Delete)

	authed := group.Group("")
	authed.Use(r.validator.Middleware(), middlewares.RequireUser(r.users, r.log))

	authed.POST("/chat", r.handlers.Chat.Send)
	authed.GET("/chat", r.handlers.Chat.History)

	authed.POST("/conversations", r.handlers.Conversation.Create)
	authed.GET("/conversations", r.handlers.Conversation.List)
	authed.GET("/conversations/:id", r.handlers.Conversation.Get)
	authed.PATCH("/conversations/:id", r.handlers.Conversation.Rename)
	authed.DELETE("/conversations/:id", r.handlers.Conversation.Delete)
}
