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
	"github.com/rs/zerolog"

	"github.com/praxisedu/assessment-api/internal/config"
	"github.com/praxisedu/assessment-api/internal/database"
	"github.com/praxisedu/assessment-api/internal/handler"
	"github.com/praxisedu/assessment-api/internal/middleware"
	"github.com/praxisedu/assessment-api/internal/models"
	"github.com/praxisedu/assessment-api/internal/repository"
	"github.com/praxisedu/assessment-api/internal/router"
	"github.com/praxisedu/assessment-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.AssessmentType{},
		&models.Assessment{},
		&models.Question{},
		&models.QuestionOption{},
		&models.Submission{},
		&models.SubmissionQuestion{},
		&models.SubmissionOption{},
		&models.SubmissionAnswer{},
		&models.Course{},
		&models.CourseClass{},
		&models.CourseAssessmentTypeWeight{},
		&models.TopicMark{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, weight change events disabled")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assessmentRepo := repository.NewAssessmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	topicMarkRepo := repository.NewTopicMarkRepository(db)

	assessmentService := service.NewAssessmentService(assessmentRepo, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assessmentRepo, validate, logger)
	gradebookService := service.NewGradebookService(courseRepo, submissionRepo, topicMarkRepo, redisClient, cfg.GradebookCacheTTL, logger)

	weightEvents := service.NewWeightEventSubscriber(gradebookService, natsConn, logger)
	stopEvents, err := weightEvents.Start(context.Background())
	if err != nil {
		log.Fatalf("failed to subscribe to weight change events: %v", err)
	}
	defer stopEvents()

	assessmentHandler := handler.NewAssessmentHandler(assessmentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, validate, logger)
	gradebookHandler := handler.NewGradebookHandler(gradebookService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssessmentHandler: assessmentHandler,
		SubmissionHandler: submissionHandler,
		GradebookHandler:  gradebookHandler,
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
