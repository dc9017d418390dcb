package userrepo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fridgewiz/server/internal/domain/user"
	"fridgewiz/server/internal/infrastructure/database/dbschema"
	"fridgewiz/server/internal/utils/platformerrors"
)

type UserGormRepository struct {
	db *gorm.DB
}

var _ user.Repository = (*UserGormRepository)(nil)

func NewUserGormRepository(db *gorm.DB) user.Repository {
	return &UserGormRepository{db: db}
}

func (repo *UserGormRepository) FindByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	var entity dbschema.User
	err := repo.db.WithContext(ctx).
		Where("clerk_id = ?", clerkID).
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
			"failed to find user by clerk ID",
			err,
			"5a91c3e7-2d46-48f0-b83a-e6d07c19f524",
		)
	}
	return entity.EtoD(), nil
}

func (repo *UserGormRepository) Upsert(ctx context.Context, newID string, profile user.Profile) (*user.User, error) {
	now := time.Now()
	entity := &dbschema.User{
		ID:        newID,
		ClerkID:   profile.ClerkID,
		Email:     profile.Email,
		Name:      profile.Name,
		Avatar:    profile.Avatar,
		CreatedAt: now,
		UpdatedAt: now,
	}

	assignments := map[string]any{
		"email":      entity.Email,
		"name":       entity.Name,
		"avatar":     entity.Avatar,
		"updated_at": now,
	}

	if err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "clerk_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(entity).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to upsert user",
			err,
			"c7f0d5a2-84e1-4b39-9d67-30a8e2f6c1b5",
		)
	}

	// Reload to capture the surviving row on conflict
	var persisted dbschema.User
	if err := repo.db.WithContext(ctx).
		Where("clerk_id = ?", profile.ClerkID).
		First(&persisted).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to reload upserted user",
			err,
			"d9b84f61-0c27-4a5e-8f13-b5a0c6e94d72",
		)
	}

	return persisted.EtoD(), nil
}

func (repo *UserGormRepository) DeleteByClerkID(ctx context.Context, clerkID string) error {
	if err := repo.db.WithContext(ctx).
		Where("clerk_id = ?", clerkID).
		Delete(&dbschema.User{}).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete user by clerk ID",
			err,
			"1e63a9d0-7b5f-4c28-9a04-f2d81c7e6b39",
		)
	}
	return nil
}
