package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fridgewiz/server/internal/utils/idgen"
	"fridgewiz/server/internal/utils/platformerrors"
)

// BlobDeleter releases stored blobs when a conversation cascade removes
// their image rows.
type BlobDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Service handles ownership-scoped conversation operations. Every read or
// mutation is filtered by both the conversation id and the caller's user id;
// a conversation that exists but belongs to someone else is reported as not
// found, never as forbidden.
type Service struct {
	repo  Repository
	blobs BlobDeleter
	log   zerolog.Logger
}

// NewService constructs a Service with required dependencies.
func NewService(repo Repository, blobs BlobDeleter, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		blobs: blobs,
		log:   log.With().Str("component", "conversation-service").Logger(),
	}
}

// Create creates a conversation owned by userID. An empty title falls back
// to the default.
func (s *Service) Create(ctx context.Context, userID, title string) (*Conversation, error) {
	id, err := idgen.GenerateSecureID("conv", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate conversation ID")
	}

	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	now := time.Now()
	conv := &Conversation{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create conversation")
	}

	return conv, nil
}

// Get returns the conversation with its messages oldest-first, enforcing
// ownership. This is the single authorization-checked accessor used by all
// conversation-scoped operations.
func (s *Service) Get(ctx context.Context, id, userID string) (*Conversation, error) {
	conv, err := s.repo.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load conversation")
	}
	if conv == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"Conversation not found", nil, "7d2e9f4a-1b6c-4e83-9a5d-c20f8b3e6a17")
	}
	return conv, nil
}

// List returns a newest-updated-first page of the user's conversations,
// each annotated with its latest message and total message count. Limit and
// offset are caller-supplied and not bounded server-side.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]*Summary, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	summaries, err := s.repo.FindSummariesByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	return summaries, nil
}

// Rename updates the conversation title after an ownership check and
// returns the refreshed record.
func (s *Service) Rename(ctx context.Context, id, userID, title string) (*Conversation, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTitle(ctx, id, title); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update conversation")
	}

	return s.Get(ctx, id, userID)
}

// Delete removes the conversation with its messages and images, then
// best-effort releases every attached blob. Blob deletion failures are
// logged, not surfaced: the database rows are already gone and the provider
// may retry key cleanup out of band.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}

	keys, err := s.repo.ImageKeys(ctx, id)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to collect image keys")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete conversation")
	}

	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("conversation_id", id).Str("s3_key", key).Msg("orphaned blob: delete failed after cascade")
		}
	}

	return nil
}

// Messages returns the conversation's messages oldest-first, enforcing
// ownership of the parent conversation.
func (s *Service) Messages(ctx context.Context, id, userID string) ([]Message, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}

	msgs, err := s.repo.MessagesByConversation(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load messages")
	}
	return msgs, nil
}

// AppendMessage persists a new message (with any attached images) at the
// end of the conversation. Ownership is the caller's responsibility: the
// orchestrator appends only to conversations it has already authorized.
func (s *Service) AppendMessage(ctx context.Context, conversationID string, role Role, content string, images []Image) (*Message, error) {
	id, err := idgen.GenerateSecureID("msg", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate message ID")
	}

	msg := &Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Images:         images,
		CreatedAt:      time.Now(),
	}
	for i := range msg.Images {
		msg.Images[i].MessageID = id
	}

	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist message")
	}

	return msg, nil
}

// Touch bumps the conversation's updatedAt to now.
func (s *Service) Touch(ctx context.Context, conversationID string) (time.Time, error) {
	now := time.Now()
	if err := s.repo.Touch(ctx, conversationID, now); err != nil {
		return time.Time{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to touch conversation")
	}
	return now, nil
}
