package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/escrivo/escrivo-go-api/internal/bus"
	"github.com/escrivo/escrivo-go-api/internal/config"
	"github.com/escrivo/escrivo-go-api/internal/database"
	"github.com/escrivo/escrivo-go-api/internal/handler"
	"github.com/escrivo/escrivo-go-api/internal/middleware"
	"github.com/escrivo/escrivo-go-api/internal/models"
	"github.com/escrivo/escrivo-go-api/internal/observability"
	"github.com/escrivo/escrivo-go-api/internal/repository"
	"github.com/escrivo/escrivo-go-api/internal/router"
	"github.com/escrivo/escrivo-go-api/internal/service"
	"github.com/escrivo/escrivo-go-api/pkg/ai"
	cloud "github.com/escrivo/escrivo-go-api/pkg/cloudinary"
	"github.com/escrivo/escrivo-go-api/pkg/omr"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Essay{}, &models.Annotation{}, &models.AnswerKey{}, &models.GradeEvent{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NatsURL != "" {
		natsConn, err = nats.Connect(cfg.NatsURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}
	publisher := bus.NewPublisher(natsConn, cfg.NatsSubjectPrefix, logger)

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	runnerMetrics := omr.NewMetrics(registry)

	runner, err := omr.NewProcessRunner(omr.Config{
		Command: cfg.OmrCommand,
		Script:  cfg.OmrScript,
		Timeout: cfg.OmrTimeout,
	}, runnerMetrics, logger)
	if err != nil {
		log.Fatalf("failed to create analysis runner: %v", err)
	}

	var reviewer ai.Reviewer
	if cfg.AIProvider == "openai" && cfg.OpenAIAPIKey != "" {
		reviewer, err = ai.NewOpenAIReviewer(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.AIModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create ai reviewer: %v", err)
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	locks := service.NewEssayLocks()

	essayRepo := repository.NewEssayRepository(db)
	answerKeyRepo := repository.NewAnswerKeyRepository(db)
	gradeEventRepo := repository.NewGradeEventRepository(db)

	essayService := service.NewEssayService(essayRepo, gradeEventRepo, answerKeyRepo, validate, logger)
	annotationService := service.NewAnnotationService(essayRepo, validate, metrics, locks, cfg.PasErrorTag, logger)
	gradingService := service.NewGradingService(essayRepo, gradeEventRepo, validate, metrics, locks, publisher, cfg.PasErrorTag, logger)
	omrService := service.NewOmrService(essayRepo, answerKeyRepo, gradingService, runner, redisClient, uploader, publisher, service.OmrConfig{
		OutputDir:   cfg.OmrOutputDir,
		InflightTTL: cfg.OmrInflightTTL,
	}, logger)
	suggestionService := service.NewSuggestionService(essayRepo, reviewer, cfg.AIModel, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, Metrics: metrics})
	router.Register(app, cfg, router.Dependencies{
		EssayHandler:      handler.NewEssayHandler(essayService, logger),
		AnnotationHandler: handler.NewAnnotationHandler(annotationService, logger),
		GradingHandler:    handler.NewGradingHandler(gradingService, logger),
		OmrHandler:        handler.NewOmrHandler(omrService, logger),
		SuggestionHandler: handler.NewSuggestionHandler(suggestionService, logger),
		MetricsHandler:    observability.MetricsHandler(registry),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
