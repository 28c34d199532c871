// Command server runs the map generation cache and orchestration API.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/climateview/mapgen/internal/api/v1/handlers"
	"github.com/climateview/mapgen/internal/api/v1/routes"
	"github.com/climateview/mapgen/internal/broker"
	"github.com/climateview/mapgen/internal/config"
	"github.com/climateview/mapgen/internal/db"
	"github.com/climateview/mapgen/internal/db/repos"
	"github.com/climateview/mapgen/internal/logger"
	"github.com/climateview/mapgen/internal/progress"
	"github.com/climateview/mapgen/internal/services"
	"github.com/climateview/mapgen/internal/storage"
)

func main() {
	_ = godotenv.Load()
	logger.Initialize()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	database, err := db.New(db.Options{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
	})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	store, err := storage.NewClient(cfg.Store, cfg.APIBaseURL)
	if err != nil {
		logger.Fatalf("Failed to create object store client: %v", err)
	}

	requestRepo := repos.NewRequestRepository(database)
	generatedRepo := repos.NewGeneratedRepository(database)
	userRepo := repos.NewUserRepository(database)

	registry := progress.NewRegistry()
	brokerClient := broker.NewClient(cfg.Broker.URL)

	requestsSvc := services.NewRequestsService(requestRepo, generatedRepo, brokerClient)
	resultsSvc := services.NewResultsService(requestRepo, generatedRepo, store, registry)
	progressSvc := services.NewProgressService(registry)
	usersSvc := services.NewUsersService(userRepo)

	if err := brokerClient.Connect(); err != nil {
		logger.Fatalf("Failed to connect to broker: %v", err)
	}
	defer func() {
		if err := brokerClient.Close(); err != nil {
			logger.Warnf("Broker close failed: %v", err)
		}
	}()

	if err := brokerClient.DeclareTopology(broker.RequestsExchange, broker.CreateKey, cfg.Broker.ConfigQueue); err != nil {
		logger.Fatalf("Failed to declare create topology: %v", err)
	}
	if err := brokerClient.RegisterHandler(broker.ResultsExchange, broker.DoneKey, cfg.Broker.ResultsQueue, broker.AckOnError, resultsSvc.HandleDone); err != nil {
		logger.Fatalf("Failed to register done consumer: %v", err)
	}
	if err := brokerClient.RegisterHandler(broker.ProgressExchange, broker.ProgressKey, cfg.Broker.ProgressQueue, broker.AckOnError, progressSvc.HandleProgress); err != nil {
		logger.Fatalf("Failed to register progress consumer: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})
	app.Use(fiberlogger.New())

	api := handlers.NewAPIHandler(requestsSvc, usersSvc, store, registry)
	routes.RegisterRoutes(
		app,
		handlers.NewRequestHandler(api),
		handlers.NewFileHandler(api),
		handlers.NewProgressHandler(api),
		handlers.NewUserHandler(api),
	)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down")
		_ = app.Shutdown()
	}()

	logger.Infof("Listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
