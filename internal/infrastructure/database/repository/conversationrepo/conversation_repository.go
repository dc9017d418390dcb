package conversationrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fridgewiz/server/internal/domain/conversation"
	"fridgewiz/server/internal/infrastructure/database/dbschema"
	"fridgewiz/server/internal/utils/platformerrors"
)

type ConversationGormRepository struct {
	db *gorm.DB
}

var _ conversation.Repository = (*ConversationGormRepository)(nil)

func NewConversationGormRepository(db *gorm.DB) conversation.Repository {
	return &ConversationGormRepository{db: db}
}

func (repo *ConversationGormRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	entity := dbschema.NewSchemaConversation(conv)
	if err := repo.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create conversation",
			err,
			"be50d2c8-9137-4fa6-8d42-6c0a91e5f7d3",
		)
	}
	return nil
}

func (repo *ConversationGormRepository) FindByIDAndUser(ctx context.Context, id, userID string) (*conversation.Conversation, error) {
	var entity dbschema.Conversation
	err := repo.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.created_at ASC")
		}).
		Preload("Messages.Images").
		Where("id = ? AND user_id = ?", id, userID).
		First(&entity).
		Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find conversation",
			err,
			"04f7e1b9-6a82-4d35-bc90-58d3a7f2e6c1",
		)
	}
	return entity.EtoD(), nil
}

func (repo *ConversationGormRepository) FindSummariesByUser(ctx context.Context, userID string, limit, offset int) ([]*conversation.Summary, error) {
	var entities []dbschema.Conversation
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entities).
		Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list conversations",
			err,
			"72c9e5d1-f048-4b6a-93d7-a1e60b8f4c25",
		)
	}

	summaries := make([]*conversation.Summary, 0, len(entities))
	for _, entity := range entities {
		summary := &conversation.Summary{Conversation: *entity.EtoD()}

		var last dbschema.Message
		err := repo.db.WithContext(ctx).
			Preload("Images").
			Where("conversation_id = ?", entity.ID).
			Order("created_at DESC").
			First(&last).
			Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeDatabaseError,
				"failed to load last message",
				err,
				"9d15b8a3-4e70-42cf-86b9-f37c0a2d5e81",
			)
		}
		if err == nil {
			summary.LastMessage = last.EtoD()
		}

		count, err := repo.CountMessages(ctx, entity.ID)
		if err != nil {
			return nil, err
		}
		summary.MessageCount = count

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (repo *ConversationGormRepository) UpdateTitle(ctx context.Context, id, title string) error {
	err := repo.db.WithContext(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":      title,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update conversation title",
			err,
			"e8a2d607-1c59-4f3b-ba84-02d7f6c1e935",
		)
	}
	return nil
}

// Delete removes the conversation, its messages, and their image rows in
// one transaction. The cascade is explicit rather than left to database
// foreign keys.
func (repo *ConversationGormRepository) Delete(ctx context.Context, id string) error {
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var messageIDs []string
		if err := tx.Model(&dbschema.Message{}).
			Where("conversation_id = ?", id).
			Pluck("id", &messageIDs).Error; err != nil {
			return err
		}

		if len(messageIDs) > 0 {
			if err := tx.Where("message_id IN ?", messageIDs).
				Delete(&dbschema.Image{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("conversation_id = ?", id).
			Delete(&dbschema.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).
			Delete(&dbschema.Conversation{}).Error
	})
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete conversation",
			err,
			"ab3c7f90-d246-4e18-85b3-6f1e0a9d2c74",
		)
	}
	return nil
}

func (repo *ConversationGormRepository) ImageKeys(ctx context.Context, conversationID string) ([]string, error) {
	var keys []string
	err := repo.db.WithContext(ctx).
		Model(&dbschema.Image{}).
		Joins("JOIN messages ON messages.id = images.message_id").
		Where("messages.conversation_id = ?", conversationID).
		Pluck("images.s3_key", &keys).
		Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to collect image keys",
			err,
			"f50b8d1e-397a-4c62-a0d5-84e1c2b9f637",
		)
	}
	return keys, nil
}

func (repo *ConversationGormRepository) AddMessage(ctx context.Context, msg *conversation.Message) error {
	entity := dbschema.NewSchemaMessage(msg)
	if err := repo.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create message",
			err,
			"2c84f6a1-e9d0-4753-b18c-d60a5e3f9b27",
		)
	}
	return nil
}

func (repo *ConversationGormRepository) MessagesByConversation(ctx context.Context, conversationID string) ([]conversation.Message, error) {
	var entities []dbschema.Message
	err := repo.db.WithContext(ctx).
		Preload("Images").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to load messages",
			err,
			"6e29a4c7-05b8-4df1-92e6-c83f1d7a0b54",
		)
	}

	msgs := make([]conversation.Message, 0, len(entities))
	for _, entity := range entities {
		msgs = append(msgs, *entity.EtoD())
	}
	return msgs, nil
}

func (repo *ConversationGormRepository) Touch(ctx context.Context, id string, at time.Time) error {
	err := repo.db.WithContext(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", at).
		Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to touch conversation",
			err,
			"31d5e8f2-a76c-4904-bd21-e9c0846a3f5d",
		)
	}
	return nil
}

func (repo *ConversationGormRepository) CountMessages(ctx context.Context, conversationID string) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&dbschema.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).
		Error
	if err != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count messages",
			err,
			"c02a9f57-8e14-4b6d-a3c8-175d0e6b2f49",
		)
	}
	return count, nil
}
