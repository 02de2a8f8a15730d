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
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursehub-go-api/internal/config"
	"github.com/noah-isme/coursehub-go-api/internal/database"
	"github.com/noah-isme/coursehub-go-api/internal/handler"
	"github.com/noah-isme/coursehub-go-api/internal/middleware"
	"github.com/noah-isme/coursehub-go-api/internal/models"
	"github.com/noah-isme/coursehub-go-api/internal/repository"
	"github.com/noah-isme/coursehub-go-api/internal/router"
	"github.com/noah-isme/coursehub-go-api/internal/service"
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
		&models.Course{},
		&models.Section{},
		&models.Assessment{},
		&models.AssessmentSectionProperties{},
		&models.Student{},
		&models.GradeEntryStudent{},
		&models.Group{},
		&models.Grouping{},
		&models.Membership{},
		&models.GracePeriodDeduction{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// NATS is optional: without it membership events and permission resyncs
	// are dropped, everything else keeps working
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not configured, membership events disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	membershipPublisher := service.NewNATSMembershipPublisher(natsConn, cfg.MembershipSubject, logger)
	permissionSyncer := service.NewNATSPermissionSyncer(natsConn, cfg.PermissionSubject, logger)

	visibilityService := service.NewVisibilityService(studentRepo, assessmentRepo, redisClient, cfg.VisibilityCacheTTL, logger)
	membershipService := service.NewMembershipService(db, membershipRepo, groupRepo, studentRepo, membershipPublisher, logger)
	groupService := service.NewGroupService(db, groupRepo, membershipRepo, studentRepo, assessmentRepo, logger)
	graceCreditService := service.NewGraceCreditService(db, studentRepo, membershipRepo, activityService, logger)
	adminStudentService := service.NewAdminStudentService(studentRepo, permissionSyncer, visibilityService, activityService, logger)
	studentService := service.NewStudentService(db, studentRepo, membershipRepo, assessmentRepo, validate, logger)

	studentHandler := handler.NewStudentHandler(studentService, visibilityService, graceCreditService, logger)
	membershipHandler := handler.NewMembershipHandler(membershipService, logger)
	groupHandler := handler.NewGroupHandler(groupService, logger)
	adminStudentHandler := handler.NewAdminStudentHandler(adminStudentService, graceCreditService, logger)
	activityHandler := handler.NewAdminActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		StudentHandler:      studentHandler,
		MembershipHandler:   membershipHandler,
		GroupHandler:        groupHandler,
		AdminStudentHandler: adminStudentHandler,
		ActivityHandler:     activityHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
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
