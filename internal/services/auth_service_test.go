package services_test

import (
	"fmt"
	"testing"
	"time"

	"stokvel/internal/models"
	"stokvel/internal/repositories"
	"stokvel/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

func newAuthService(repo *MockUserRepository) *services.AuthService {
	return services.NewAuthService(repo, testJWTSecret, time.Hour, zap.NewNop())
}

func validRegistration() services.RegisterInput {
	return services.RegisterInput{
		FirstName:       "Thandi",
		Surname:         "Mokoena",
		Email:           "Thandi@Example.com ",
		Password:        "password123",
		ConfirmPassword: "password123",
		Phone:           "0821234567",
		Province:        "Gauteng",
		Address:         "12 Vilakazi St, Soweto",
	}
}

func notFound(what string) error {
	return fmt.Errorf("failed to get user by email %s: %w", what, repositories.ErrRecordNotFound)
}

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	mockRepo.On("GetByEmail", mock.Anything, "thandi@example.com").Return(nil, notFound("thandi@example.com")).Once()
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, err := authService.RegisterUser(ctx(), validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "thandi@example.com", user.Email)
	assert.NotEqual(t, "password123", user.Password, "password must not be stored in clear text")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	mockRepo.On("GetByEmail", mock.Anything, "thandi@example.com").Return(&models.User{ID: 1}, nil).Once()
	_, err := authService.RegisterUser(ctx(), validRegistration())
	assert.ErrorIs(t, err, services.ErrDuplicateEmail)

	// Unique index violation when a concurrent registration wins the race.
	mockRepo.On("GetByEmail", mock.Anything, "thandi@example.com").Return(nil, notFound("thandi@example.com")).Once()
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(fmt.Errorf("failed to create user: %w", repositories.ErrDuplicateKey)).Once()
	_, err = authService.RegisterUser(ctx(), validRegistration())
	assert.ErrorIs(t, err, services.ErrDuplicateEmail)

	mockRepo.AssertExpectations(t)
	mockRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestAuthService_RegisterUser_Validation(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	in := validRegistration()
	in.FirstName = " "
	in.Email = "not-an-email"
	in.ConfirmPassword = "different"

	_, err := authService.RegisterUser(ctx(), in)
	require.ErrorIs(t, err, services.ErrValidation)

	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "first_name")
	assert.Contains(t, validationErr.Fields, "email")
	assert.Contains(t, validationErr.Fields, "confirm_password")

	mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_RegisterUser_StorageFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	mockRepo.On("GetByEmail", mock.Anything, "thandi@example.com").Return(nil, fmt.Errorf("connection refused")).Once()
	_, err := authService.RegisterUser(ctx(), validRegistration())
	assert.ErrorIs(t, err, services.ErrPersistence)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{
		ID:       7,
		Email:    "test@example.com",
		Password: string(hashedPassword),
	}

	// Test successful login
	mockRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()
	token, err := authService.LoginUser(ctx(), "Test@Example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	require.True(t, ok)
	userID, err := services.UserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)
	assert.Equal(t, user.Email, claims["email"])

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()
	_, err = authService.LoginUser(ctx(), user.Email, "wrongpassword")
	assert.ErrorIs(t, err, services.ErrAuthFailure)
	wrongPassword := err.Error()

	// Test invalid credentials (user not found)
	mockRepo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, notFound("nobody@example.com")).Once()
	_, err = authService.LoginUser(ctx(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrAuthFailure)
	assert.Equal(t, wrongPassword, err.Error(), "unknown email must look like a wrong password")

	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := newAuthService(new(MockUserRepository))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 3,
		"exp":     jwt.TimeFunc().Add(time.Hour).Unix(),
	})
	validTokenString, _ := token.SignedString([]byte(testJWTSecret))

	claims, err := authService.ValidateToken(validTokenString)
	require.NoError(t, err)
	userID, err := services.UserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, uint(3), userID)

	_, err = authService.ValidateToken("invalid.token.string")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")

	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 3,
		"exp":     jwt.TimeFunc().Add(-time.Hour).Unix(),
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(expiredTokenString)
	assert.Error(t, err)

	foreignToken, _ := token.SignedString([]byte("some_other_secret"))
	_, err = authService.ValidateToken(foreignToken)
	assert.Error(t, err)
}

func TestUserIDFromClaims_Malformed(t *testing.T) {
	for _, claims := range []jwt.MapClaims{
		{},
		{"user_id": "7"},
		{"user_id": float64(0)},
		{"user_id": float64(1.5)},
	} {
		_, err := services.UserIDFromClaims(claims)
		assert.Error(t, err, "claims %v", claims)
	}
}
