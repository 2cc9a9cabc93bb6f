// Package app wires configuration, storage, services and HTTP handlers into a
// ready-to-serve Fiber application.
package app

import (
	"fmt"
	"time"

	"stokvel/internal/config"
	"stokvel/internal/handlers"
	"stokvel/internal/middleware"
	"stokvel/internal/models"
	"stokvel/internal/repositories"
	"stokvel/internal/services"
	"stokvel/pkg/uploads"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// App bundles the HTTP server with the services behind it.
type App struct {
	Fiber       *fiber.App
	AuthService *services.AuthService
	Stokvels    *services.StokvelService
	Memberships *services.MembershipService
	Invites     *services.InviteService
}

// OpenDatabase connects to the store selected by cfg.DatabaseDriver.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the users, stokvels and stokvel_members tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Stokvel{}, &models.Membership{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// New builds the application. uploadStore may be nil to disable profile pictures.
func New(cfg *config.Config, db *gorm.DB, sender services.NotificationSender, uploadStore uploads.Store, log *zap.Logger) *App {
	// Repositories
	userRepo := repositories.NewGORMUserRepository(db)
	stokvelRepo := repositories.NewGORMStokvelRepository(db)
	membershipRepo := repositories.NewGORMMembershipRepository(db)

	// Services
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL, log)
	stokvelService := services.NewStokvelService(stokvelRepo, userRepo, cfg.JoinCodeLength, log)
	membershipService := services.NewMembershipService(membershipRepo, stokvelRepo, log)
	inviteService := services.NewInviteService(sender, stokvelService, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, uploadStore, log)
	stokvelHandler := handlers.NewStokvelHandler(stokvelService, membershipService, inviteService, log)

	app := fiber.New(fiber.Config{
		AppName:      "stokvel",
		BodyLimit:    uploads.MaxFileSize + 1<<20,
		ErrorHandler: handlers.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	authHandler.RegisterRoutes(apiV1)

	// Everything else requires a bearer token
	protected := apiV1.Group("", middleware.AuthRequired(authService, log))
	stokvelHandler.RegisterRoutes(protected)

	return &App{
		Fiber:       app,
		AuthService: authService,
		Stokvels:    stokvelService,
		Memberships: membershipService,
		Invites:     inviteService,
	}
}
