package conversationrepo_test

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fridgewiz/server/internal/domain/conversation"
	"fridgewiz/server/internal/infrastructure/database"
	_ "fridgewiz/server/internal/infrastructure/database/dbschema"
	"fridgewiz/server/internal/infrastructure/database/repository/conversationrepo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named in-memory database keeps every pooled connection on the same
	// store while isolating tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", url.QueryEscape(t.Name()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, zerolog.Nop()))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newConversation(id, userID string, at time.Time) *conversation.Conversation {
	return &conversation.Conversation{
		ID:        id,
		UserID:    userID,
		Title:     conversation.DefaultTitle,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func addMessage(t *testing.T, repo conversation.Repository, id, convID string, role conversation.Role, content string, at time.Time, images ...conversation.Image) {
	t.Helper()
	for i := range images {
		images[i].MessageID = id
	}
	err := repo.AddMessage(context.Background(), &conversation.Message{
		ID:             id,
		ConversationID: convID,
		Role:           role,
		Content:        content,
		Images:         images,
		CreatedAt:      at,
	})
	require.NoError(t, err)
}

func TestFindByIDAndUser_OwnershipIsolation(t *testing.T) {
	db := newTestDB(t)
	repo := conversationrepo.NewConversationGormRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newConversation("conv_1", "user_a", time.Now())))

	found, err := repo.FindByIDAndUser(ctx, "conv_1", "user_a")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "conv_1", found.ID)

	// Same id, wrong owner: indistinguishable from missing
	other, err := repo.FindByIDAndUser(ctx, "conv_1", "user_b")
	require.NoError(t, err)
	require.Nil(t, other)

	missing, err := repo.FindByIDAndUser(ctx, "conv_nope", "user_a")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestFindByIDAndUser_MessagesOrderedOldestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := conversationrepo.NewConversationGormRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, newConversation("conv_1", "user_a", base)))

	addMessage(t, repo, "msg_2", "conv_1", conversation.RoleAssistant, "second", base.Add(2*time.Minute))
	addMessage(t, repo, "msg_1", "conv_1", conversation.RoleUser, "first", base.Add(time.Minute))
	addMessage(t, repo, "msg_3", "conv_1", conversation.RoleUser, "third", base.Add(3*time.Minute))

	found, err := repo.FindByIDAndUser(ctx, "conv_1", "user_a")
	require.NoError(t, err)
	require.Len(t, found.Messages, 3)
	require.Equal(t, "msg_1", found.Messages[0].ID)
	require.Equal(t, "msg_2", found.Messages[1].ID)
	require.Equal(t, "msg_3", found.Messages[2].ID)
}

func TestFindSummariesByUser(t *testing.T) {
	db := newTestDB(t)
	repo := conversationrepo.NewConversationGormRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, newConversation("conv_old", "user_a", base)))
	require.NoError(t, repo.Create(ctx, newConversation("conv_new", "user_a", base)))
	require.NoError(t, repo.Create(ctx, newConversation("conv_other", "user_b", base)))

	addMessage(t, repo, "msg_1", "conv_new", conversation.RoleUser, "hello", base.Add(time.Minute))
	addMessage(t, repo, "msg_2", "conv_new", conversation.RoleAssistant, "latest reply", base.Add(2*time.Minute))

	require.NoError(t, repo.Touch(ctx, "conv_old", base.Add(time.Minute)))
	require.NoError(t, repo.Touch(ctx, "conv_new", base.Add(5*time.Minute)))

	summaries, err := repo.FindSummariesByUser(ctx, "user_a", 10, 0)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Newest-updated first
	require.Equal(t, "conv_new", summaries[0].ID)
	require.Equal(t, "conv_old", summaries[1].ID)

	require.NotNil(t, summaries[0].LastMessage)
	require.Equal(t, "msg_2", summaries[0].LastMessage.ID)
	require.Equal(t, int64(2), summaries[0].MessageCount)

	require.Nil(t, summaries[1].LastMessage)
	require.Equal(t, int64(0), summaries[1].MessageCount)
}

func TestFindSummariesByUser_Paging(t *testing.T) {
	db := newTestDB(t)
	repo := conversationrepo.NewConversationGormRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	ids := []string{"conv_1", "conv_2", "conv_3"}
	for i, id := range ids {
		require.NoError(t, repo.Create(ctx, newConversation(id, "user_a", base)))
		require.NoError(t, repo.Touch(ctx, id, base.Add(time.Duration(i)*time.Minute)))
	}

	page, err := repo.FindSummariesByUser(ctx, "user_a", 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "conv_2", page[0].ID)
	require.Equal(t, "conv_1", page[1].ID)
}

func TestDelete_CascadesMessagesAndImages(t *testing.T) {
	db := newTestDB(t)
	repo := conversationrepo.NewConversationGormRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, newConversation("conv_1", "user_a", base)))
	require.NoError(t, repo.Create(ctx, newConversation("conv_keep", "user_a", base)))

	addMessage(t, repo, "msg_1", "conv_1", conversation.RoleUser, "with image", base.Add(time.Minute),
		conversation.Image{ID: "img_1", Filename: "fridge.jpg", MimeType: "image/jpeg", S3Key: "recipe-images/a.jpg", URL: "https://cdn/a.jpg", Size: 10, CreatedAt: base},
		conversation.Image{ID: "img_2", Filename: "shelf.png", MimeType: "image/png", S3Key: "recipe-images/b.png", URL: "https://cdn/b.png", Size: 20, CreatedAt: base},
	)
	addMessage(t, repo, "msg_2", "conv_1", conversation.RoleAssistant, "reply", base.Add(2*time.Minute))
	addMessage(t, repo, "msg_keep", "conv_keep", conversation.RoleUser, "survives", base.Add(time.Minute),
		conversation.Image{ID: "img_keep", Filename: "keep.jpg", MimeType: "image/jpeg", S3Key: "recipe-images/keep.jpg", URL: "https://cdn/keep.jpg", Size: 5, CreatedAt: base},
	)

	keys, err := repo.ImageKeys(ctx, "conv_1")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"recipe-images/a.jpg", "recipe-images/b.png"}, keys)

	require.NoError(t, repo.Delete(ctx, "conv_1"))

	gone, err := repo.FindByIDAndUser(ctx, "conv_1", "user_a")
	require.NoError(t, err)
	require.Nil(t, gone)

	msgs, err := repo.MessagesByConversation(ctx, "conv_1")
	require.NoError(t, err)
	require.Empty(t, msgs)

	orphanKeys, err := repo.ImageKeys(ctx, "conv_1")
	require.NoError(t, err)
	require.Empty(t, orphanKeys)

	// Unrelated conversation untouched
	kept, err := repo.FindByIDAndUser(ctx, "conv_keep", "user_a")
	require.NoError(t, err)
	require.NotNil(t, kept)
	require.Len(t, kept.Messages, 1)
	require.Len(t, kept.Messages[0].Images, 1)
}

func TestUpdateTitleAndTouch(t *testing.T) {
	db := newTestDB(t)
	repo := conversationrepo.NewConversationGormRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, newConversation("conv_1", "user_a", base)))

	require.NoError(t, repo.UpdateTitle(ctx, "conv_1", "Pasta night"))

	found, err := repo.FindByIDAndUser(ctx, "conv_1", "user_a")
	require.NoError(t, err)
	require.Equal(t, "Pasta night", found.Title)
	require.True(t, found.UpdatedAt.After(base))

	at := base.Add(30 * time.Minute)
	require.NoError(t, repo.Touch(ctx, "conv_1", at))

	found, err = repo.FindByIDAndUser(ctx, "conv_1", "user_a")
	require.NoError(t, err)
	require.WithinDuration(t, at, found.UpdatedAt, time.Second)
}
