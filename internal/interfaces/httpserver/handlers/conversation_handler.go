package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fridgewiz/server/internal/domain/conversation"
	"fridgewiz/server/internal/interfaces/httpserver/middlewares"
	"fridgewiz/server/internal/interfaces/httpserver/responses"
	"fridgewiz/server/internal/utils/platformerrors"
)

// ConversationHandler exposes conversation CRUD endpoints.
type ConversationHandler struct {
	conversations *conversation.Service
	log           zerolog.Logger
}

func NewConversationHandler(conversations *conversation.Service, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		log:           log.With().Str("component", "conversation-handler").Logger(),
	}
}

type createConversationRequest struct {
	Title string `json:"title"`
}

type renameConversationRequest struct {
	Title string `json:"title"`
}

// Create handles POST /api/conversations.
func (h *ConversationHandler) Create(c *gin.Context) {
	usr := middlewares.CurrentUser(c)
	if usr == nil {
		platformerrors.WriteUnauthorized(c, "Authentication required")
		return
	}

	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "Invalid request body")
		return
	}

	conv, err := h.conversations.Create(c.Request.Context(), usr.ID, req.Title)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusCreated, responses.NewConversationDetail(conv, usr))
}

// List handles GET /api/conversations?limit=10&offset=0.
func (h *ConversationHandler) List(c *gin.Context) {
	usr := middlewares.CurrentUser(c)
	if usr == nil {
		platformerrors.WriteUnauthorized(c, "Authentication required")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	summaries, err := h.conversations.List(c.Request.Context(), usr.ID, limit, offset)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	out := make([]responses.ConversationSummary, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, responses.NewConversationSummary(summary, usr))
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /api/conversations/:id.
func (h *ConversationHandler) Get(c *gin.Context) {
	usr := middlewares.CurrentUser(c)
	if usr == nil {
		platformerrors.WriteUnauthorized(c, "Authentication required")
		return
	}

	conv, err := h.conversations.Get(c.Request.Context(), c.Param("id"), usr.ID)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.NewConversationDetail(conv, usr))
}

// Rename handles PATCH /api/conversations/:id.
func (h *ConversationHandler) Rename(c *gin.Context) {
	usr := middlewares.CurrentUser(c)
	if usr == nil {
		platformerrors.WriteUnauthorized(c, "Authentication required")
		return
	}

	var req renameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "Invalid request body")
		return
	}

	conv, err := h.conversations.Rename(c.Request.Context(), c.Param("id"), usr.ID, req.Title)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.NewConversationDetail(conv, usr))
}

// Delete handles DELETE /api/conversations/:id.
func (h *ConversationHandler) Delete(c *gin.Context) {
	usr := middlewares.CurrentUser(c)
	if usr == nil {
		platformerrors.WriteUnauthorized(c, "Authentication required")
		return
	}

	if err := h.conversations.Delete(c.Request.Context(), c.Param("id"), usr.ID); err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{Success: true})
}
