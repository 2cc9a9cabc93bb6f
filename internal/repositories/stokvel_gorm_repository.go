package repositories

import (
	"context"
	"fmt"

	"stokvel/internal/models"

	"gorm.io/gorm"
)

// GORMStokvelRepository is a GORM implementation of StokvelRepository.
type GORMStokvelRepository struct {
	db *gorm.DB
}

// NewGORMStokvelRepository creates a new instance of GORMStokvelRepository.
func NewGORMStokvelRepository(db *gorm.DB) *GORMStokvelRepository {
	return &GORMStokvelRepository{
		db: db,
	}
}

// Create inserts a stokvel. A join code collision yields ErrDuplicateKey.
func (r *GORMStokvelRepository) Create(ctx context.Context, stokvel *models.Stokvel) error {
	if err := r.db.WithContext(ctx).Create(stokvel).Error; err != nil {
		return fmt.Errorf("failed to create stokvel: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a single stokvel by its ID.
func (r *GORMStokvelRepository) GetByID(ctx context.Context, id uint) (*models.Stokvel, error) {
	var stokvel models.Stokvel
	if err := r.db.WithContext(ctx).First(&stokvel, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get stokvel by ID %d: %w", id, translate(err))
	}
	return &stokvel, nil
}

// GetByJoinCode retrieves the stokvel handed out under code.
func (r *GORMStokvelRepository) GetByJoinCode(ctx context.Context, code string) (*models.Stokvel, error) {
	var stokvel models.Stokvel
	if err := r.db.WithContext(ctx).First(&stokvel, "join_code = ?", code).Error; err != nil {
		return nil, fmt.Errorf("failed to get stokvel by join code: %w", translate(err))
	}
	return &stokvel, nil
}

// JoinCodeExists reports whether code is already assigned to a stokvel.
func (r *GORMStokvelRepository) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Stokvel{}).Where("join_code = ?", code).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check join code: %w", err)
	}
	return count > 0, nil
}

func (r *GORMStokvelRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Stokvel, error) {
	var stokvels []models.Stokvel
	if err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("id").Find(&stokvels).Error; err != nil {
		return nil, fmt.Errorf("failed to list stokvels for owner %d: %w", ownerID, err)
	}
	return stokvels, nil
}

func (r *GORMStokvelRepository) ListByMember(ctx context.Context, userID uint) ([]models.Stokvel, error) {
	var stokvels []models.Stokvel
	err := r.db.WithContext(ctx).
		Joins("JOIN stokvel_members ON stokvel_members.stokvel_id = stokvels.id").
		Where("stokvel_members.user_id = ?", userID).
		Order("stokvel_members.joined_at, stokvels.id").
		Find(&stokvels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stokvels joined by user %d: %w", userID, err)
	}
	return stokvels, nil
}
