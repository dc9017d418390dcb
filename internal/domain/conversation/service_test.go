package conversation_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"fridgewiz/server/internal/domain/conversation"
	"fridgewiz/server/internal/utils/platformerrors"
)

type fakeRepo struct {
	conversations map[string]*conversation.Conversation
	messages      map[string][]conversation.Message
	imageKeys     map[string][]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		conversations: make(map[string]*conversation.Conversation),
		messages:      make(map[string][]conversation.Message),
		imageKeys:     make(map[string][]string),
	}
}

func (f *fakeRepo) Create(ctx context.Context, conv *conversation.Conversation) error {
	clone := *conv
	f.conversations[conv.ID] = &clone
	return nil
}

func (f *fakeRepo) FindByIDAndUser(ctx context.Context, id, userID string) (*conversation.Conversation, error) {
	conv, ok := f.conversations[id]
	if !ok || conv.UserID != userID {
		return nil, nil
	}
	out := *conv
	out.Messages = append([]conversation.Message(nil), f.messages[id]...)
	return &out, nil
}

func (f *fakeRepo) FindSummariesByUser(ctx context.Context, userID string, limit, offset int) ([]*conversation.Summary, error) {
	var summaries []*conversation.Summary
	for _, conv := range f.conversations {
		if conv.UserID == userID {
			summaries = append(summaries, &conversation.Summary{Conversation: *conv})
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

func (f *fakeRepo) UpdateTitle(ctx context.Context, id, title string) error {
	if conv, ok := f.conversations[id]; ok {
		conv.Title = title
	}
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	delete(f.conversations, id)
	delete(f.messages, id)
	return nil
}

func (f *fakeRepo) ImageKeys(ctx context.Context, conversationID string) ([]string, error) {
	return f.imageKeys[conversationID], nil
}

func (f *fakeRepo) AddMessage(ctx context.Context, msg *conversation.Message) error {
	f.messages[msg.ConversationID] = append(f.messages[msg.ConversationID], *msg)
	return nil
}

func (f *fakeRepo) MessagesByConversation(ctx context.Context, conversationID string) ([]conversation.Message, error) {
	return f.messages[conversationID], nil
}

func (f *fakeRepo) Touch(ctx context.Context, id string, at time.Time) error {
	if conv, ok := f.conversations[id]; ok {
		conv.UpdatedAt = at
	}
	return nil
}

func (f *fakeRepo) CountMessages(ctx context.Context, conversationID string) (int64, error) {
	return int64(len(f.messages[conversationID])), nil
}

type fakeBlobs struct {
	deleted []string
	err     error
}

func (f *fakeBlobs) Delete(ctx context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func TestCreate_DefaultsTitle(t *testing.T) {
	svc := conversation.NewService(newFakeRepo(), &fakeBlobs{}, zerolog.Nop())

	conv, err := svc.Create(context.Background(), "user_1", "  ")
	require.NoError(t, err)
	require.Equal(t, conversation.DefaultTitle, conv.Title)
	require.Contains(t, conv.ID, "conv_")

	named, err := svc.Create(context.Background(), "user_1", "Taco ideas")
	require.NoError(t, err)
	require.Equal(t, "Taco ideas", named.Title)
	require.NotEqual(t, conv.ID, named.ID)
}

func TestGet_WrongOwnerIsNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := conversation.NewService(repo, &fakeBlobs{}, zerolog.Nop())
	ctx := context.Background()

	conv, err := svc.Create(ctx, "user_1", "")
	require.NoError(t, err)

	_, err = svc.Get(ctx, conv.ID, "user_2")
	require.Error(t, err)
	require.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	platformErr := platformerrors.GetPlatformError(err)
	require.NotNil(t, platformErr)
	require.Equal(t, "Conversation not found", platformErr.Message)
}

func TestDelete_ReleasesBlobs(t *testing.T) {
	repo := newFakeRepo()
	blobs := &fakeBlobs{}
	svc := conversation.NewService(repo, blobs, zerolog.Nop())
	ctx := context.Background()

	conv, err := svc.Create(ctx, "user_1", "")
	require.NoError(t, err)
	repo.imageKeys[conv.ID] = []string{"recipe-images/a.jpg", "recipe-images/b.png"}

	require.NoError(t, svc.Delete(ctx, conv.ID, "user_1"))
	require.ElementsMatch(t, []string{"recipe-images/a.jpg", "recipe-images/b.png"}, blobs.deleted)

	_, err = svc.Get(ctx, conv.ID, "user_1")
	require.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestDelete_BlobFailureDoesNotSurface(t *testing.T) {
	repo := newFakeRepo()
	blobs := &fakeBlobs{err: errors.New("s3 down")}
	svc := conversation.NewService(repo, blobs, zerolog.Nop())
	ctx := context.Background()

	conv, err := svc.Create(ctx, "user_1", "")
	require.NoError(t, err)
	repo.imageKeys[conv.ID] = []string{"recipe-images/a.jpg"}

	// Rows are gone even though the blob delete failed
	require.NoError(t, svc.Delete(ctx, conv.ID, "user_1"))
	require.NotContains(t, repo.conversations, conv.ID)
}

func TestAppendMessage_StampsIDs(t *testing.T) {
	repo := newFakeRepo()
	svc := conversation.NewService(repo, &fakeBlobs{}, zerolog.Nop())
	ctx := context.Background()

	conv, err := svc.Create(ctx, "user_1", "")
	require.NoError(t, err)

	msg, err := svc.AppendMessage(ctx, conv.ID, conversation.RoleUser, "hi", []conversation.Image{
		{ID: "img_1", S3Key: "recipe-images/a.jpg"},
	})
	require.NoError(t, err)
	require.Contains(t, msg.ID, "msg_")
	require.Equal(t, msg.ID, msg.Images[0].MessageID)
	require.Equal(t, conv.ID, msg.ConversationID)
}
