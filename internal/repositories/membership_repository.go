package repositories

import (
	"context"

	"stokvel/internal/models"
)

// MembershipRepository defines the interface for stokvel membership data access.
type MembershipRepository interface {
	// AddMember atomically checks the stokvel's capacity and any existing
	// membership, inserts the row and bumps the stokvel's member count.
	AddMember(ctx context.Context, userID, stokvelID uint) (*models.Membership, error)
	ListByStokvel(ctx context.Context, stokvelID uint) ([]models.Membership, error)
}
