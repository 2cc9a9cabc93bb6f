package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stokvel/internal/models"
	"stokvel/internal/repositories"
	"stokvel/pkg/joincode"

	"go.uber.org/zap"
)

// MembershipService handles joining stokvels.
type MembershipService struct {
	repo        repositories.MembershipRepository
	stokvelRepo repositories.StokvelRepository
	logger      *zap.Logger
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(repo repositories.MembershipRepository, stokvelRepo repositories.StokvelRepository, logger *zap.Logger) *MembershipService {
	return &MembershipService{
		repo:        repo,
		stokvelRepo: stokvelRepo,
		logger:      logger,
	}
}

// AddMembership records userID as a member of stokvelID and returns the
// membership id. A user joins a stokvel at most once and never beyond its
// max_members.
func (s *MembershipService) AddMembership(ctx context.Context, userID, stokvelID uint) (uint, error) {
	if userID == 0 {
		return 0, newValidationError("user_id", "is required")
	}
	if stokvelID == 0 {
		return 0, newValidationError("stokvel_id", "is required")
	}

	membership, err := s.repo.AddMember(ctx, userID, stokvelID)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrRecordNotFound):
		return 0, fmt.Errorf("stokvel %d: %w", stokvelID, ErrNotFound)
	case errors.Is(err, repositories.ErrAlreadyMember):
		return 0, ErrAlreadyMember
	case errors.Is(err, repositories.ErrCapacityReached):
		return 0, ErrStokvelFull
	default:
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.logger.Info("member joined stokvel",
		zap.Uint("user_id", userID),
		zap.Uint("stokvel_id", stokvelID),
		zap.Uint("membership_id", membership.ID),
	)
	return membership.ID, nil
}

// JoinByCode adds userID to the stokvel handed out under joinCode.
func (s *MembershipService) JoinByCode(ctx context.Context, userID uint, joinCode string) (*models.Stokvel, error) {
	code := strings.ToUpper(strings.TrimSpace(joinCode))
	if code == "" {
		return nil, newValidationError("join_code", "is required")
	}
	if !joincode.WellFormed(code) {
		return nil, newValidationError("join_code", "is not a valid join code")
	}

	stokvel, err := s.stokvelRepo.GetByJoinCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, fmt.Errorf("join code %s: %w", code, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if _, err := s.AddMembership(ctx, userID, stokvel.ID); err != nil {
		return nil, err
	}
	// Reflect the increment done in the same transaction as the insert.
	stokvel.CurrentMembers++
	return stokvel, nil
}

// ListMemberships returns the members of a stokvel.
func (s *MembershipService) ListMemberships(ctx context.Context, stokvelID uint) ([]models.Membership, error) {
	memberships, err := s.repo.ListByStokvel(ctx, stokvelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return memberships, nil
}
