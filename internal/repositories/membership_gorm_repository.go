package repositories

import (
	"context"
	"errors"
	"fmt"

	"stokvel/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrAlreadyMember is returned when the user already belongs to the stokvel.
	ErrAlreadyMember = errors.New("user is already a member")
	// ErrCapacityReached is returned when the stokvel has max_members members.
	ErrCapacityReached = errors.New("stokvel has reached its member limit")
)

// GORMMembershipRepository is a GORM implementation of MembershipRepository.
type GORMMembershipRepository struct {
	db *gorm.DB
}

// NewGORMMembershipRepository creates a new instance of GORMMembershipRepository.
func NewGORMMembershipRepository(db *gorm.DB) *GORMMembershipRepository {
	return &GORMMembershipRepository{
		db: db,
	}
}

// AddMember runs in a single transaction. The stokvel row is locked for update
// on engines that support it; SQLite serialises writers instead.
func (r *GORMMembershipRepository) AddMember(ctx context.Context, userID, stokvelID uint) (*models.Membership, error) {
	var membership *models.Membership

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stokvel models.Stokvel
		q := tx
		if tx.Dialector.Name() != "sqlite" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&stokvel, "id = ?", stokvelID).Error; err != nil {
			return fmt.Errorf("failed to load stokvel %d: %w", stokvelID, translate(err))
		}

		var existing int64
		if err := tx.Model(&models.Membership{}).
			Where("user_id = ? AND stokvel_id = ?", userID, stokvelID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if existing > 0 {
			return ErrAlreadyMember
		}
		if stokvel.CurrentMembers >= stokvel.MaxMembers {
			return ErrCapacityReached
		}

		m := &models.Membership{UserID: userID, StokvelID: stokvelID}
		if err := tx.Create(m).Error; err != nil {
			if errors.Is(translate(err), ErrDuplicateKey) {
				return ErrAlreadyMember
			}
			return fmt.Errorf("failed to insert membership: %w", err)
		}

		if err := tx.Model(&models.Stokvel{}).
			Where("id = ?", stokvelID).
			UpdateColumn("current_members", gorm.Expr("current_members + ?", 1)).Error; err != nil {
			return fmt.Errorf("failed to update member count: %w", err)
		}

		membership = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// ListByStokvel returns the memberships of a stokvel with their users loaded.
func (r *GORMMembershipRepository) ListByStokvel(ctx context.Context, stokvelID uint) ([]models.Membership, error) {
	var memberships []models.Membership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("stokvel_id = ?", stokvelID).
		Order("joined_at, id").
		Find(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list members of stokvel %d: %w", stokvelID, err)
	}
	return memberships, nil
}
