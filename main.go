package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"stokvel/internal/app"
	"stokvel/internal/config"
	"stokvel/internal/services"
	"stokvel/pkg/logger"
	"stokvel/pkg/rabbitmq"
	"stokvel/pkg/uploads"

	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// --- Database ---
	db, err := app.OpenDatabase(cfg)
	if err != nil {
		zlog.Fatal("Failed to open database", zap.Error(err))
	}
	if err := app.Migrate(db); err != nil {
		zlog.Fatal("Failed to migrate database", zap.Error(err))
	}

	// --- Invite delivery ---
	var sender services.NotificationSender = services.NewLogNotificationSender(zlog)
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.InviteQueue}, zlog)
		if err != nil {
			zlog.Fatal("Failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()
		sender = mqClient

		// The SMS gateway worker normally drains the queue. Without one,
		// this consumer logs and acks each invite.
		if cfg.LogInvites {
			err := mqClient.ConsumeInvites(func(event rabbitmq.InviteEvent) error {
				zlog.Info("invite queued for delivery",
					zap.String("event_id", event.ID),
					zap.String("destination", event.Destination),
				)
				return nil
			})
			if err != nil {
				zlog.Error("Failed to start invite consumer", zap.Error(err))
			}
		}
	} else {
		zlog.Warn("RABBITMQ_URL not set, invites will only be logged")
	}

	// --- Uploads ---
	uploadStore, err := uploads.NewLocalStore(cfg.UploadDir)
	if err != nil {
		zlog.Fatal("Failed to initialize upload store", zap.Error(err))
	}

	application := app.New(cfg, db, sender, uploadStore, zlog)
	application.Fiber.Static("/uploads", uploadStore.Dir())

	// --- Start HTTP Server ---
	zlog.Info("Starting server", zap.String("port", cfg.AppPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := application.Fiber.Listen(cfg.AppPort); err != nil {
			zlog.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-quit
	zlog.Info("Shutting down server...")

	if err := application.Fiber.Shutdown(); err != nil {
		zlog.Error("Error during Fiber shutdown", zap.Error(err))
	}

	zlog.Info("Server gracefully stopped")
}
