package handlers

import (
	"errors"
	"fmt"

	"stokvel/internal/services"
	"stokvel/pkg/uploads"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	uploads     uploads.Store
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. uploadStore may be nil, in which
// case profile pictures are ignored.
func NewAuthHandler(authService *services.AuthService, uploadStore uploads.Store, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		uploads:     uploadStore,
		logger:      logger,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
}

// HandleRegister handles new user registration. It accepts JSON, urlencoded
// or multipart bodies; multipart requests may carry a profile_picture file.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	picture, err := h.saveProfilePicture(c)
	if err != nil {
		return badRequest(c, "Invalid profile picture", err)
	}
	in.ProfilePicture = picture

	user, err := h.authService.RegisterUser(c.UserContext(), in)
	if err != nil {
		if picture != nil {
			if rmErr := h.uploads.Remove(*picture); rmErr != nil {
				h.logger.Warn("failed to discard profile picture", zap.String("file", *picture), zap.Error(rmErr))
			}
		}
		return respondError(c, h.logger, err, "Could not register user")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created successfully! You can now log in.",
		"user":    user,
	})
}

func (h *AuthHandler) saveProfilePicture(c *fiber.Ctx) (*string, error) {
	if h.uploads == nil {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		// Not a multipart request, nothing to store.
		return nil, nil
	}
	files := form.File["profile_picture"]
	if len(files) == 0 || files[0].Filename == "" {
		return nil, nil
	}
	if files[0].Size > uploads.MaxFileSize {
		return nil, fmt.Errorf("file exceeds %d bytes", uploads.MaxFileSize)
	}

	f, err := files[0].Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	defer f.Close()

	name, err := h.uploads.Save(files[0].Filename, f)
	if err != nil {
		return nil, err
	}
	return &name, nil
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required", nil)
	}

	token, err := h.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrAuthFailure) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid email or password.",
			})
		}
		return respondError(c, h.logger, err, "Could not log in")
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}
