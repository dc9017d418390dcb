package chat_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"fridgewiz/server/internal/config"
	"fridgewiz/server/internal/domain/chat"
	"fridgewiz/server/internal/domain/conversation"
	"fridgewiz/server/internal/domain/media"
	"fridgewiz/server/internal/utils/platformerrors"
)

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

// memoryRepo is an in-memory conversation.Repository.
type memoryRepo struct {
	mu            sync.Mutex
	conversations map[string]*conversation.Conversation
	messages      map[string][]conversation.Message
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		conversations: make(map[string]*conversation.Conversation),
		messages:      make(map[string][]conversation.Message),
	}
}

func (m *memoryRepo) Create(ctx context.Context, conv *conversation.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *conv
	m.conversations[conv.ID] = &clone
	return nil
}

func (m *memoryRepo) FindByIDAndUser(ctx context.Context, id, userID string) (*conversation.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[id]
	if !ok || conv.UserID != userID {
		return nil, nil
	}
	out := *conv
	out.Messages = m.orderedMessagesLocked(id)
	return &out, nil
}

func (m *memoryRepo) FindSummariesByUser(ctx context.Context, userID string, limit, offset int) ([]*conversation.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var summaries []*conversation.Summary
	for _, conv := range m.conversations {
		if conv.UserID != userID {
			continue
		}
		summary := &conversation.Summary{Conversation: *conv}
		msgs := m.orderedMessagesLocked(conv.ID)
		summary.MessageCount = int64(len(msgs))
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			summary.LastMessage = &last
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	if offset > len(summaries) {
		offset = len(summaries)
	}
	summaries = summaries[offset:]
	if limit < len(summaries) {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func (m *memoryRepo) UpdateTitle(ctx context.Context, id, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conv, ok := m.conversations[id]; ok {
		conv.Title = title
		conv.UpdatedAt = time.Now()
	}
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, id)
	delete(m.messages, id)
	return nil
}

func (m *memoryRepo) ImageKeys(ctx context.Context, conversationID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for _, msg := range m.messages[conversationID] {
		for _, img := range msg.Images {
			keys = append(keys, img.S3Key)
		}
	}
	return keys, nil
}

func (m *memoryRepo) AddMessage(ctx context.Context, msg *conversation.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], *msg)
	return nil
}

func (m *memoryRepo) MessagesByConversation(ctx context.Context, conversationID string) ([]conversation.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orderedMessagesLocked(conversationID), nil
}

func (m *memoryRepo) Touch(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conv, ok := m.conversations[id]; ok {
		conv.UpdatedAt = at
	}
	return nil
}

func (m *memoryRepo) CountMessages(ctx context.Context, conversationID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.messages[conversationID])), nil
}

func (m *memoryRepo) orderedMessagesLocked(conversationID string) []conversation.Message {
	msgs := append([]conversation.Message(nil), m.messages[conversationID]...)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs
}

type fakeStorage struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	failAfter int // fail uploads once this many blobs exist, -1 to never fail
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: make(map[string][]byte), failAfter: -1}
}

func (f *fakeStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType, originalName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter >= 0 && len(f.blobs) >= f.failAfter {
		return errors.New("s3 down")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.blobs[key] = data
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	return nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return fmt.Sprintf("https://cdn.example.com/%s", key)
}

func (f *fakeStorage) Health(ctx context.Context) error { return nil }

type fakeImageRepo struct{}

func (fakeImageRepo) FindByID(ctx context.Context, id string) (*conversation.Image, error) {
	return nil, nil
}
func (fakeImageRepo) DeleteRow(ctx context.Context, id string) error { return nil }

type fakeGenerator struct {
	mu        sync.Mutex
	reply     string
	err       error
	histories [][]chat.Turn
	imageURLs [][]string
}

func (f *fakeGenerator) GenerateRecipe(ctx context.Context, message string, history []chat.Turn, imageURLs []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histories = append(f.histories, append([]chat.Turn(nil), history...))
	f.imageURLs = append(f.imageURLs, append([]string(nil), imageURLs...))
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fixture struct {
	orchestrator  *chat.Orchestrator
	conversations *conversation.Service
	repo          *memoryRepo
	storage       *fakeStorage
	generator     *fakeGenerator
}

func newFixture() *fixture {
	cfg := &config.Config{
		MaxFileSize:       1 << 20,
		AllowedImageTypes: []string{"image/jpeg", "image/png"},
		ImageFolder:       "recipe-images",
		GenerationTimeout: 5 * time.Second,
	}
	repo := newMemoryRepo()
	storage := newFakeStorage()
	generator := &fakeGenerator{reply: "Try a frittata."}
	log := zerolog.Nop()

	conversations := conversation.NewService(repo, storage, log)
	mediaService := media.NewService(cfg, storage, fakeImageRepo{}, log)
	return &fixture{
		orchestrator:  chat.NewOrchestrator(cfg, conversations, mediaService, generator, log),
		conversations: conversations,
		repo:          repo,
		storage:       storage,
		generator:     generator,
	}
}

func TestSendTurn_ImplicitConversation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.orchestrator.SendTurn(ctx, "user_1", chat.TurnRequest{
		Message: "What can I cook with eggs and spinach?",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.ConversationID)
	require.Equal(t, conversation.DefaultTitle, result.Title)
	require.Equal(t, conversation.RoleUser, result.UserMessage.Role)
	require.Equal(t, conversation.RoleAssistant, result.AssistantMessage.Role)
	require.Equal(t, "Try a frittata.", result.AssistantMessage.Content)

	conv, err := f.conversations.Get(ctx, result.ConversationID, "user_1")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	require.Equal(t, "What can I cook with eggs and spinach?", conv.Messages[0].Content)
	require.Equal(t, "Try a frittata.", conv.Messages[1].Content)
}

func TestSendTurn_HistoryAlternatesAcrossTurns(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.orchestrator.SendTurn(ctx, "user_1", chat.TurnRequest{Message: "turn one"})
	require.NoError(t, err)

	for i := 2; i <= 3; i++ {
		_, err := f.orchestrator.SendTurn(ctx, "user_1", chat.TurnRequest{
			ConversationID: first.ConversationID,
			Message:        fmt.Sprintf("turn %d", i),
		})
		require.NoError(t, err)
	}

	conv, err := f.conversations.Get(ctx, first.ConversationID, "user_1")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 6)
	for i, msg := range conv.Messages {
		if i%2 == 0 {
			require.Equal(t, conversation.RoleUser, msg.Role)
		} else {
			require.Equal(t, conversation.RoleAssistant, msg.Role)
		}
	}

	// The third call saw the first two exchanges as history
	lastHistory := f.generator.histories[len(f.generator.histories)-1]
	require.Len(t, lastHistory, 4)
	require.Equal(t, "turn one", lastHistory[0].Content)
	require.Equal(t, conversation.RoleAssistant, lastHistory[1].Role)
}

func TestSendTurn_RejectsEmptyMessage(t *testing.T) {
	f := newFixture()

	_, err := f.orchestrator.SendTurn(context.Background(), "user_1", chat.TurnRequest{Message: "   "})
	require.Error(t, err)
	require.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestSendTurn_OtherUsersConversationIsNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	owned, err := f.orchestrator.SendTurn(ctx, "user_1", chat.TurnRequest{Message: "mine"})
	require.NoError(t, err)

	_, err = f.orchestrator.SendTurn(ctx, "user_2", chat.TurnRequest{
		ConversationID: owned.ConversationID,
		Message:        "not mine",
	})
	require.Error(t, err)
	require.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestSendTurn_ImageTurn(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.orchestrator.SendTurn(ctx, "user_1", chat.TurnRequest{
		Message: "What is in my fridge?",
		Uploads: []media.Upload{
			{Filename: "fridge.jpg", Data: jpegHeader},
			{Filename: "shelf.jpg", Data: jpegHeader},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.UserMessage.Images, 2)
	require.Len(t, f.storage.blobs, 2)

	sentURLs := f.generator.imageURLs[0]
	require.Len(t, sentURLs, 2)
	for _, img := range result.UserMessage.Images {
		require.Contains(t, sentURLs, img.URL)
	}
}

func TestSendTurn_UploadFailureCleansUpBlobs(t *testing.T) {
	f := newFixture()
	f.storage.failAfter = 1
	ctx := context.Background()

	_, err := f.orchestrator.SendTurn(ctx, "user_1", chat.TurnRequest{
		Message: "two images, one fails",
		Uploads: []media.Upload{
			{Filename: "a.jpg", Data: jpegHeader},
			{Filename: "b.jpg", Data: jpegHeader},
		},
	})
	require.Error(t, err)
	require.Empty(t, f.storage.blobs)

	// No messages were committed
	summaries, err := f.conversations.List(ctx, "user_1", 10, 0)
	require.NoError(t, err)
	for _, s := range summaries {
		require.Equal(t, int64(0), s.MessageCount)
	}
}

func TestSendTurn_GenerationFailureKeepsUserMessage(t *testing.T) {
	f := newFixture()
	f.generator.err = errors.New("provider exploded")
	ctx := context.Background()

	first, err := f.orchestrator.SendTurn(ctx, "user_1", chat.TurnRequest{Message: "hello"})
	require.Error(t, err)
	require.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
	require.Nil(t, first)

	// The user message survives for retry
	summaries, err := f.conversations.List(ctx, "user_1", 10, 0)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, int64(1), summaries[0].MessageCount)
	require.Equal(t, conversation.RoleUser, summaries[0].LastMessage.Role)
}

func TestSendTurn_RetrySucceedsAfterGenerationFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.orchestrator.SendTurn(ctx, "user_1", chat.TurnRequest{Message: "turn one"})
	require.NoError(t, err)

	f.generator.err = errors.New("provider exploded")
	_, err = f.orchestrator.SendTurn(ctx, "user_1", chat.TurnRequest{
		ConversationID: first.ConversationID,
		Message:        "failed turn",
	})
	require.Error(t, err)

	f.generator.err = nil
	retry, err := f.orchestrator.SendTurn(ctx, "user_1", chat.TurnRequest{
		ConversationID: first.ConversationID,
		Message:        "retry",
	})
	require.NoError(t, err)
	require.Equal(t, first.ConversationID, retry.ConversationID)

	// The failed turn's user message stays in place and the retry pair
	// appends after it, with nothing duplicated or skipped.
	conv, err := f.conversations.Get(ctx, first.ConversationID, "user_1")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 5)

	wantRoles := []conversation.Role{
		conversation.RoleUser, conversation.RoleAssistant,
		conversation.RoleUser,
		conversation.RoleUser, conversation.RoleAssistant,
	}
	wantContent := []string{"turn one", "Try a frittata.", "failed turn", "retry", "Try a frittata."}
	for i, msg := range conv.Messages {
		require.Equal(t, wantRoles[i], msg.Role, "message %d", i)
		require.Equal(t, wantContent[i], msg.Content, "message %d", i)
	}
}

func TestSendTurn_GenerationTimeout(t *testing.T) {
	f := newFixture()
	f.generator.err = context.DeadlineExceeded

	_, err := f.orchestrator.SendTurn(context.Background(), "user_1", chat.TurnRequest{Message: "slow"})
	require.Error(t, err)
	require.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeTimeout))
}
