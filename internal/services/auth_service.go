package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stokvel/internal/models"
	"stokvel/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput carries the fields of the account creation form.
type RegisterInput struct {
	FirstName       string  `json:"first_name" form:"first_name" validate:"required,max=100"`
	Surname         string  `json:"surname" form:"surname" validate:"required,max=100"`
	Email           string  `json:"email" form:"email" validate:"required,email,max=255"`
	Password        string  `json:"password" form:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string  `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
	Phone           string  `json:"phone" form:"phone" validate:"required,max=32"`
	Province        string  `json:"province" form:"province" validate:"required,max=100"`
	Address         string  `json:"address" form:"address" validate:"required,max=255"`
	ProfilePicture  *string `json:"-" form:"-"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenTTL,
		logger:     logger,
	}
}

// RegisterUser validates the input, hashes the password and saves the user.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.Surname = strings.TrimSpace(in.Surname)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Province = strings.TrimSpace(in.Province)
	in.Address = strings.TrimSpace(in.Address)

	if err := validateStruct(in); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		// max=72 counts characters, bcrypt limits bytes.
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, newValidationError("password", "must be at most 72 bytes")
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName:      in.FirstName,
		Surname:        in.Surname,
		Email:          in.Email,
		Password:       string(hashedPassword),
		Phone:          in.Phone,
		Province:       in.Province,
		Address:        in.Address,
		ProfilePicture: in.ProfilePicture,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.logger.Info("user registered", zap.Uint("user_id", user.ID))
	return user, nil
}

// Authenticate returns the user whose credentials match. Unknown emails and
// wrong passwords both yield ErrAuthFailure.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repositories.ErrRecordNotFound) {
			s.logger.Error("user lookup failed during login", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return nil, ErrAuthFailure
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrAuthFailure
	}
	return user, nil
}

// LoginUser authenticates a user and returns a JWT token if successful.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (string, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     now.Add(s.tokenDurat).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("user logged in", zap.Uint("user_id", user.ID))
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// UserIDFromClaims extracts the numeric user id placed in the token by LoginUser.
func UserIDFromClaims(claims jwt.MapClaims) (uint, error) {
	// encoding/json decodes every number in MapClaims as float64.
	raw, ok := claims["user_id"].(float64)
	if !ok || raw < 1 || raw != float64(uint(raw)) {
		return 0, fmt.Errorf("invalid token: missing or malformed user_id")
	}
	return uint(raw), nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
