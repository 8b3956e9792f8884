package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflow/domain/apperrors"
	"taskflow/domain/models"
	"taskflow/domain/repositories"
)

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repositories.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", id.String())
		}
		return nil, apperrors.Database("get user", err)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) GetManager(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ManagerID == nil {
		return nil, apperrors.NotFound("manager of user", userID.String())
	}
	return r.GetByID(ctx, *user.ManagerID)
}
