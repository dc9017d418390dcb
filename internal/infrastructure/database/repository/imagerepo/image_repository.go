package imagerepo

import (
	"context"

	"gorm.io/gorm"

	"fridgewiz/server/internal/domain/conversation"
	"fridgewiz/server/internal/domain/media"
	"fridgewiz/server/internal/infrastructure/database/dbschema"
	"fridgewiz/server/internal/utils/platformerrors"
)

type ImageGormRepository struct {
	db *gorm.DB
}

var _ media.ImageRepository = (*ImageGormRepository)(nil)

func NewImageGormRepository(db *gorm.DB) media.ImageRepository {
	return &ImageGormRepository{db: db}
}

func (repo *ImageGormRepository) FindByID(ctx context.Context, id string) (*conversation.Image, error) {
	var entity dbschema.Image
	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
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
			"failed to find image by ID",
			err,
			"48b6d0f3-e1a9-4c27-8b50-92f7c4e6a1d8",
		)
	}
	return entity.EtoD(), nil
}

func (repo *ImageGormRepository) DeleteRow(ctx context.Context, id string) error {
	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&dbschema.Image{}).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete image row",
			err,
			"7f3e2a95-c60d-48b1-a472-e85d9c1f0b36",
		)
	}
	return nil
}
