package repositories

import (
	"context"

	"stokvel/internal/models"
)

// StokvelRepository defines the interface for stokvel data access.
type StokvelRepository interface {
	Create(ctx context.Context, stokvel *models.Stokvel) error
	GetByID(ctx context.Context, id uint) (*models.Stokvel, error)
	GetByJoinCode(ctx context.Context, code string) (*models.Stokvel, error)
	JoinCodeExists(ctx context.Context, code string) (bool, error)
	// ListByOwner returns the stokvels created by ownerID, oldest first.
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Stokvel, error)
	// ListByMember returns the stokvels userID joined through a membership.
	ListByMember(ctx context.Context, userID uint) ([]models.Stokvel, error)
}
