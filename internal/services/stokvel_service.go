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

// maxJoinCodeAttempts bounds the retries on join code collisions.
const maxJoinCodeAttempts = 5

// CreateStokvelInput carries the fields of the stokvel creation form.
type CreateStokvelInput struct {
	Name           string  `json:"name" form:"name" validate:"required,max=100"`
	Description    string  `json:"description" form:"description" validate:"max=1000"`
	Category       string  `json:"category" form:"category" validate:"max=100"`
	TargetAmount   float64 `json:"target_amount" form:"target_amount" validate:"gt=0,lte=1000000000000"`
	DurationMonths int     `json:"duration_months" form:"duration_months" validate:"gt=0,lte=600"`
	MaxMembers     int     `json:"max_members" form:"max_members" validate:"gt=0,lte=10000"`
	ManagedGrowth  bool    `json:"grow_with_sami" form:"grow_with_sami"`
}

// Dashboard is the overview shown to a signed-in user.
type Dashboard struct {
	FirstName      string           `json:"first_name"`
	ProfilePicture *string          `json:"profile_picture,omitempty"`
	Stokvels       []StokvelSummary `json:"stokvels"`
}

// CodeGenerator produces candidate join codes of a given length.
type CodeGenerator func(length int) (string, error)

// StokvelService handles business logic related to stokvels.
type StokvelService struct {
	repo         repositories.StokvelRepository
	userRepo     repositories.UserRepository
	generateCode CodeGenerator
	codeLength   int
	logger       *zap.Logger
}

// NewStokvelService creates a new StokvelService that hands out join codes of codeLength.
func NewStokvelService(repo repositories.StokvelRepository, userRepo repositories.UserRepository, codeLength int, logger *zap.Logger) *StokvelService {
	if codeLength <= 0 {
		codeLength = joincode.DefaultLength
	}
	return &StokvelService{
		repo:         repo,
		userRepo:     userRepo,
		generateCode: joincode.Generate,
		codeLength:   codeLength,
		logger:       logger,
	}
}

// WithCodeGenerator replaces the join code source. Used by tests.
func (s *StokvelService) WithCodeGenerator(gen CodeGenerator) *StokvelService {
	s.generateCode = gen
	return s
}

// CreateStokvel validates the input and stores a new stokvel owned by ownerID
// under a fresh join code. The owner is not added as a member.
func (s *StokvelService) CreateStokvel(ctx context.Context, ownerID uint, in CreateStokvelInput) (*models.Stokvel, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)

	if ownerID == 0 {
		return nil, newValidationError("user_id", "is required")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxJoinCodeAttempts; attempt++ {
		code, err := s.generateCode(s.codeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate join code: %w", err)
		}

		taken, err := s.repo.JoinCodeExists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if taken {
			s.logger.Debug("join code collision", zap.Int("attempt", attempt))
			continue
		}

		stokvel := &models.Stokvel{
			UserID:         ownerID,
			Name:           in.Name,
			Description:    in.Description,
			Category:       in.Category,
			TargetAmount:   in.TargetAmount,
			DurationMonths: in.DurationMonths,
			MaxMembers:     in.MaxMembers,
			ManagedGrowth:  in.ManagedGrowth,
			JoinCode:       code,
		}
		if err := s.repo.Create(ctx, stokvel); err != nil {
			// Another request claimed the code between the check and the insert.
			if errors.Is(err, repositories.ErrDuplicateKey) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		s.logger.Info("stokvel created",
			zap.Uint("stokvel_id", stokvel.ID),
			zap.Uint("owner_id", ownerID),
		)
		return stokvel, nil
	}

	return nil, fmt.Errorf("%w: no free join code after %d attempts", ErrPersistence, maxJoinCodeAttempts)
}

// GetStokvelsForUser returns the stokvels ownerID created. Stokvels the user
// only joined are listed by GetJoinedStokvels.
func (s *StokvelService) GetStokvelsForUser(ctx context.Context, ownerID uint) ([]models.Stokvel, error) {
	stokvels, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return stokvels, nil
}

// GetJoinedStokvels returns the stokvels userID is a member of.
func (s *StokvelService) GetJoinedStokvels(ctx context.Context, userID uint) ([]models.Stokvel, error) {
	stokvels, err := s.repo.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return stokvels, nil
}

// GetStokvel retrieves a single stokvel by its ID.
func (s *StokvelService) GetStokvel(ctx context.Context, id uint) (*models.Stokvel, error) {
	stokvel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, fmt.Errorf("stokvel %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return stokvel, nil
}

// Dashboard assembles the greeting and the owned stokvels with their progress.
func (s *StokvelService) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	dashboard := &Dashboard{FirstName: "Member", Stokvels: []StokvelSummary{}}

	user, err := s.userRepo.GetByID(ctx, userID)
	switch {
	case err == nil:
		dashboard.FirstName = user.FirstName
		dashboard.ProfilePicture = user.ProfilePicture
	case errors.Is(err, repositories.ErrRecordNotFound):
		s.logger.Warn("dashboard requested for unknown user", zap.Uint("user_id", userID))
	default:
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	stokvels, err := s.GetStokvelsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, st := range stokvels {
		dashboard.Stokvels = append(dashboard.Stokvels, Summarize(st))
	}
	return dashboard, nil
}
