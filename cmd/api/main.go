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

	"github.com/noah-isme/assignflow-api/internal/config"
	"github.com/noah-isme/assignflow-api/internal/database"
	"github.com/noah-isme/assignflow-api/internal/gradebook"
	"github.com/noah-isme/assignflow-api/internal/grading"
	"github.com/noah-isme/assignflow-api/internal/handler"
	"github.com/noah-isme/assignflow-api/internal/middleware"
	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/plugin"
	"github.com/noah-isme/assignflow-api/internal/repository"
	"github.com/noah-isme/assignflow-api/internal/roster"
	"github.com/noah-isme/assignflow-api/internal/router"
	"github.com/noah-isme/assignflow-api/internal/service"
	"github.com/noah-isme/assignflow-api/pkg/filestore"
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
		&models.Assignment{},
		&models.Submission{},
		&models.Grade{},
		&models.PluginConfig{},
		&models.SubmissionText{},
		&models.SubmissionFile{},
		&models.FeedbackComment{},
		&models.FeedbackFile{},
		&models.Scale{},
		&models.UserMapping{},
		&models.Notification{},
		&models.GradingDefinition{},
		&models.GradingFill{},
		&models.ActivityLog{},
		&models.Enrolment{},
		&models.CourseGroup{},
		&models.GroupMember{},
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
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer natsConn.Drain()

	store, err := filestore.NewCloudinary(filestore.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create file store: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	pluginConfigRepo := repository.NewPluginConfigRepository(db)
	submissionTextRepo := repository.NewSubmissionTextRepository(db)
	submissionFileRepo := repository.NewSubmissionFileRepository(db)
	feedbackCommentRepo := repository.NewFeedbackCommentRepository(db)
	feedbackFileRepo := repository.NewFeedbackFileRepository(db)
	scaleRepo := repository.NewScaleRepository(db)
	userMappingRepo := repository.NewUserMappingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	gradingDefinitionRepo := repository.NewGradingDefinitionRepository(db)
	activityLogRepo := repository.NewActivityLogRepository(db)

	registry := plugin.NewRegistry(
		[]plugin.SubmissionPlugin{
			plugin.NewOnlineTextPlugin(submissionTextRepo),
			plugin.NewFilePlugin(submissionFileRepo, store),
		},
		[]plugin.FeedbackPlugin{
			plugin.NewCommentsPlugin(feedbackCommentRepo),
			plugin.NewFeedbackFilePlugin(feedbackFileRepo, store),
		},
		pluginConfigRepo,
	)

	directory := roster.NewDirectory(db)
	capabilities := roster.NewCapabilities()
	sink := gradebook.NewClient(cfg.GradebookURL, redisClient, logger)
	syncer := service.NewGradebookSyncer(sink, directory, logger)
	replay := service.NewReplayGuard(redisClient, cfg.ConfirmTokenTTL)
	activity := service.NewActivityRecorder(activityLogRepo, logger)
	rubrics := grading.NewService(gradingDefinitionRepo)

	delivery := service.NewNATSDelivery(natsConn, cfg.NotificationSubject, logger)
	notifications := service.NewNotificationService(notificationRepo, delivery, directory, cfg.SubmissionReceipts, logger)

	submissionStore := service.NewSubmissionStore(submissionRepo, directory, logger)
	gradeStore := service.NewGradeStore(gradeRepo, scaleRepo, logger)
	teamService := service.NewTeamService(submissionStore, submissionRepo, directory, logger)
	windowPolicy := service.NewWindowPolicy(submissionStore, gradeStore, directory, sink, logger)

	submissionService := service.NewSubmissionService(
		submissionStore, gradeStore, teamService, windowPolicy, registry,
		syncer, notifications, capabilities, replay, activity, logger,
	)
	gradingService := service.NewGradingService(
		gradeStore, gradeRepo, assignmentRepo, registry, rubrics, syncer,
		directory, capabilities, replay, activity,
		plugin.ParseType(cfg.FeedbackForGradebook), logger,
	)
	assignmentService := service.NewAssignmentService(
		assignmentRepo, pluginConfigRepo, submissionRepo, gradeRepo,
		registry, store, syncer, activity, validate, logger,
	)
	mappingService := service.NewUserMappingService(userMappingRepo, logger)
	mailer := service.NewFeedbackMailer(gradeRepo, assignmentRepo, notifications, cfg.FeedbackMailerInterval, logger)

	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	submissionHandler := handler.NewSubmissionHandler(assignmentService, submissionService, logger)
	gradingHandler := handler.NewGradingHandler(assignmentService, gradingService, rubrics, mappingService, logger)
	notificationHandler := handler.NewNotificationHandler(notifications, logger, 30*time.Second)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:   assignmentHandler,
		SubmissionHandler:   submissionHandler,
		GradingHandler:      gradingHandler,
		NotificationHandler: notificationHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	runCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	notifications.Start(runCtx)
	go mailer.Run(runCtx)

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
