// Package chat orchestrates a full chat turn: image ingestion, message
// persistence, recipe generation, and the assistant reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"fridgewiz/server/internal/config"
	"fridgewiz/server/internal/domain/conversation"
	"fridgewiz/server/internal/domain/media"
	"fridgewiz/server/internal/infrastructure/metrics"
	"fridgewiz/server/internal/utils/platformerrors"
)

// Turn is one prior exchange passed to the generator as context.
type Turn struct {
	Role    conversation.Role
	Content string
}

// Generator produces a recipe suggestion from the user's message, the
// conversation history, and any attached image URLs.
type Generator interface {
	GenerateRecipe(ctx context.Context, message string, history []Turn, imageURLs []string) (string, error)
}

// TurnRequest is a user's chat turn. An empty ConversationID starts a new
// conversation implicitly.
type TurnRequest struct {
	ConversationID string
	Message        string
	Uploads        []media.Upload
}

// TurnResult is everything a turn produced.
type TurnResult struct {
	ConversationID   string
	Title            string
	UpdatedAt        time.Time
	UserMessage      conversation.Message
	AssistantMessage conversation.Message
}

// Orchestrator runs chat turns end to end.
type Orchestrator struct {
	cfg           *config.Config
	conversations *conversation.Service
	media         *media.Service
	generator     Generator
	log           zerolog.Logger
}

// NewOrchestrator constructs an Orchestrator with required dependencies.
func NewOrchestrator(cfg *config.Config, conversations *conversation.Service, mediaSvc *media.Service, generator Generator, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:           cfg,
		conversations: conversations,
		media:         mediaSvc,
		generator:     generator,
		log:           log.With().Str("component", "chat-orchestrator").Logger(),
	}
}

// SendTurn runs a full turn for userID. The user message is committed
// before generation, so a failed or timed-out generation leaves the user's
// side of the exchange intact and retryable.
func (o *Orchestrator) SendTurn(ctx context.Context, userID string, req TurnRequest) (*TurnResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"Message is required", nil, "f2a9c6e1-48d3-4b07-95ea-d1c08b3f7264")
	}

	conv, err := o.resolveConversation(ctx, userID, req.ConversationID)
	if err != nil {
		return nil, err
	}

	images, err := o.ingestUploads(ctx, req.Uploads)
	if err != nil {
		return nil, err
	}

	userMsg, err := o.conversations.AppendMessage(ctx, conv.ID, conversation.RoleUser, req.Message, images)
	if err != nil {
		for _, img := range images {
			o.media.DeleteBlob(ctx, img.S3Key)
		}
		return nil, err
	}

	history := historyFrom(conv.Messages)
	imageURLs := make([]string, 0, len(images))
	for _, img := range images {
		imageURLs = append(imageURLs, img.URL)
	}

	reply, err := o.generate(ctx, req.Message, history, imageURLs)
	if err != nil {
		return nil, err
	}

	assistantMsg, err := o.conversations.AppendMessage(ctx, conv.ID, conversation.RoleAssistant, reply, nil)
	if err != nil {
		return nil, err
	}

	updatedAt, err := o.conversations.Touch(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	return &TurnResult{
		ConversationID:   conv.ID,
		Title:            conv.Title,
		UpdatedAt:        updatedAt,
		UserMessage:      *userMsg,
		AssistantMessage: *assistantMsg,
	}, nil
}

// History returns the ordered messages of a conversation for the polling
// GET endpoint, enforcing ownership.
func (o *Orchestrator) History(ctx context.Context, userID, conversationID string) ([]conversation.Message, error) {
	return o.conversations.Messages(ctx, conversationID, userID)
}

func (o *Orchestrator) resolveConversation(ctx context.Context, userID, conversationID string) (*conversation.Conversation, error) {
	if conversationID == "" {
		return o.conversations.Create(ctx, userID, "")
	}
	return o.conversations.Get(ctx, conversationID, userID)
}

// ingestUploads stores every upload concurrently. On any failure the blobs
// that did make it are best-effort removed and the turn is rejected, naming
// the first file that failed.
func (o *Orchestrator) ingestUploads(ctx context.Context, uploads []media.Upload) ([]conversation.Image, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	images := make([]conversation.Image, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	for i, up := range uploads {
		i, up := i, up
		g.Go(func() error {
			img, err := o.media.Ingest(gctx, up)
			if err != nil {
				return platformerrors.AsError(gctx, platformerrors.LayerDomain, err,
					fmt.Sprintf("Failed to upload image: %s", up.Filename))
			}
			images[i] = *img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, img := range images {
			if img.S3Key != "" {
				o.media.DeleteBlob(ctx, img.S3Key)
			}
		}
		return nil, err
	}
	return images, nil
}

// generate calls the generator under the configured timeout and classifies
// failures: a deadline hit maps to a timeout error, everything else to an
// upstream provider error.
func (o *Orchestrator) generate(ctx context.Context, message string, history []Turn, imageURLs []string) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, o.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	reply, err := o.generator.GenerateRecipe(genCtx, message, history, imageURLs)
	metrics.RecordGeneration(statusFor(err), time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeTimeout,
				"Recipe generation timed out", err, "0d7f3a92-6c15-4e8b-a240-b95d1c6e8f37")
		}
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"Failed to generate response", err, "3e6b9d40-17f8-4a2c-8c53-72a0e4f1b9d6")
	}
	return reply, nil
}

func statusFor(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// historyFrom converts the pre-turn messages into generator turns, dropping
// anything that is not a plain user or assistant exchange.
func historyFrom(msgs []conversation.Message) []Turn {
	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != conversation.RoleUser && m.Role != conversation.RoleAssistant {
			continue
		}
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}
	return turns
}
