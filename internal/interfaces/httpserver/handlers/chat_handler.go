package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fridgewiz/server/internal/config"
	"fridgewiz/server/internal/domain/chat"
	"fridgewiz/server/internal/domain/media"
	"fridgewiz/server/internal/interfaces/httpserver/middlewares"
	"fridgewiz/server/internal/interfaces/httpserver/responses"
	"fridgewiz/server/internal/utils/platformerrors"
)

// ChatHandler exposes the chat turn endpoints.
type ChatHandler struct {
	cfg          *config.Config
	orchestrator *chat.Orchestrator
	log          zerolog.Logger
}

func NewChatHandler(cfg *config.Config, orchestrator *chat.Orchestrator, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		cfg:          cfg,
		orchestrator: orchestrator,
		log:          log.With().Str("component", "chat-handler").Logger(),
	}
}

// Send handles POST /api/chat. Multipart form: message (required),
// conversationId (optional, empty starts a new conversation), images
// (zero or more files).
func (h *ChatHandler) Send(c *gin.Context) {
	usr := middlewares.CurrentUser(c)
	if usr == nil {
		platformerrors.WriteUnauthorized(c, "Authentication required")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		platformerrors.WriteValidationError(c, "Invalid form data")
		return
	}

	message := c.PostForm("message")
	if message == "" {
		platformerrors.WriteValidationError(c, "Message is required")
		return
	}

	uploads, err := readUploads(form.File["images"])
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read uploaded files")
		platformerrors.WriteValidationError(c, "Invalid form data")
		return
	}

	result, err := h.orchestrator.SendTurn(c.Request.Context(), usr.ID, chat.TurnRequest{
		ConversationID: c.PostForm("conversationId"),
		Message:        message,
		Uploads:        uploads,
	})
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.TurnResponse{
		UserMessage:      result.UserMessage,
		AssistantMessage: result.AssistantMessage,
		Conversation: responses.TurnConversation{
			ID:        result.ConversationID,
			Title:     result.Title,
			UpdatedAt: result.UpdatedAt,
		},
	})
}

// History handles GET /api/chat?conversationId=...
func (h *ChatHandler) History(c *gin.Context) {
	usr := middlewares.CurrentUser(c)
	if usr == nil {
		platformerrors.WriteUnauthorized(c, "Authentication required")
		return
	}

	conversationID := c.Query("conversationId")
	if conversationID == "" {
		platformerrors.WriteValidationError(c, "conversationId is required")
		return
	}

	messages, err := h.orchestrator.History(c.Request.Context(), usr.ID, conversationID)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.MessagesResponse{Messages: messages})
}

func readUploads(files []*multipart.FileHeader) ([]media.Upload, error) {
	uploads := make([]media.Upload, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, media.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}
