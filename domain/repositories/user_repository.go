package repositories

import (
	"context"

	"github.com/google/uuid"

	"taskflow/domain/models"
)

// UserRepository is read-only; users are managed by the session service.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// GetManager returns the manager of the given user, or a NotFound error
	// when the user has none.
	GetManager(ctx context.Context, userID uuid.UUID) (*models.User, error)
}
