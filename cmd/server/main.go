package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/lattivo/habits-api/internal/config"
	"github.com/lattivo/habits-api/internal/database"
	"github.com/lattivo/habits-api/internal/handlers"
	"github.com/lattivo/habits-api/internal/logging"
	"github.com/lattivo/habits-api/internal/middleware"
	"github.com/lattivo/habits-api/internal/routes"
	"github.com/lattivo/habits-api/internal/store"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	habits, err := openStore(cfg, log)
	if err != nil {
		if errors.Is(err, database.ErrConfiguration) {
			log.Fatal("storage unavailable, refusing to start", zap.Error(err))
		}
		log.Fatal("failed to prepare storage", zap.Error(err))
	}

	app := setupApp(cfg, log, habits)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()
	log.Info("server listening", zap.String("port", cfg.Port), zap.String("store", cfg.StoreBackend))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

func openStore(cfg *config.Config, log *zap.Logger) (store.HabitStore, error) {
	if cfg.StoreBackend == config.BackendMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		log.Info("database migrated")
	}
	return store.NewGormStore(db), nil
}

func setupApp(cfg *config.Config, log *zap.Logger, habits store.HabitStore) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "habits-api",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.Metrics())

	hub := handlers.NewHub(log)
	routes.Setup(app, handlers.NewHabitHandler(habits, hub, log), hub)

	return app
}
