package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/config"
	"github.com/noah-isme/vibecheck-api/internal/database"
	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/handler"
	"github.com/noah-isme/vibecheck-api/internal/middleware"
	"github.com/noah-isme/vibecheck-api/internal/models"
	"github.com/noah-isme/vibecheck-api/internal/repository"
	"github.com/noah-isme/vibecheck-api/internal/router"
	"github.com/noah-isme/vibecheck-api/internal/service"
	"github.com/noah-isme/vibecheck-api/pkg/ai"
	cloud "github.com/noah-isme/vibecheck-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Teacher{},
		&models.ClassSection{},
		&models.AttendanceRecord{},
		&models.SchoolProfile{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured; report caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	var storage service.FileStorage
	if cfg.CloudinaryEnabled() {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		storage = uploader
	}

	var generator ai.ProfileGenerator
	if cfg.OpenAIAPIKey != "" {
		openAI, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.AIModel,
			Logger: logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create ai generator")
		}
		generator = openAI
	}

	validate := dto.NewValidator()

	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	registry := attendance.NewMemoryRegistry()
	holder := attendance.NewConfigHolder()
	ledger := attendance.NewLedger(registry, holder,
		attendance.WithSink(repository.NewAttendanceSink(attendanceRepo)),
		attendance.WithLocation(cfg.Location),
	)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	_, err = service.LoadState(loadCtx, service.StateDependencies{
		Students:         studentRepo,
		Teachers:         teacherRepo,
		School:           schoolRepo,
		Attendance:       attendanceRepo,
		Registry:         registry,
		Config:           holder,
		Ledger:           ledger,
		DefaultStartTime: cfg.DefaultStartTime,
	}, logger)
	cancelLoad()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load attendance state")
	}

	attendanceService := service.NewAttendanceService(service.AttendanceDependencies{
		Ledger:      ledger,
		Registry:    registry,
		Config:      holder,
		Students:    studentRepo,
		Teachers:    teacherRepo,
		Classes:     classRepo,
		Redis:       redisClient,
		NATS:        natsConn,
		ChannelBase: cfg.RealtimeChannel,
		CacheTTL:    cfg.ReportsCacheTTL,
		MaxDays:     cfg.ReportsMaxDays,
	}, validate, logger)
	rosterService := service.NewRosterService(studentRepo, teacherRepo, classRepo, registry, redisClient, validate, logger)
	avatarService := service.NewAvatarService(storage, studentRepo, teacherRepo, cfg.AvatarMaxMB, logger)
	suggestionService := service.NewSuggestionService(generator, classRepo, cfg.AvatarMaxMB, validate, logger)
	classService := service.NewClassService(classRepo, validate, logger)
	schoolService := service.NewSchoolService(schoolRepo, holder, cfg.DefaultStartTime, validate, logger)
	cardService := service.NewCardService(studentRepo, teacherRepo, registry, holder, logger)
	seedService := service.NewSeedService(schoolRepo, classRepo, holder, cfg.SeedEnabled, cfg.SeedToken, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	attendanceService.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv != "production"})
	router.Register(app, cfg, router.Dependencies{
		AttendanceHandler: handler.NewAttendanceHandler(attendanceService, middleware.RateLimit("scan", cfg.ScanRateLimit, cfg.ScanRateWindow), logger),
		StudentHandler:    handler.NewStudentHandler(rosterService, avatarService, suggestionService, logger),
		TeacherHandler:    handler.NewTeacherHandler(rosterService, avatarService, logger),
		ClassHandler:      handler.NewClassHandler(classService, logger),
		SchoolHandler:     handler.NewSchoolHandler(schoolService, logger),
		CardHandler:       handler.NewCardHandler(cardService, logger),
		SeedHandler:       handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, cancel, logger)
}

func waitForShutdown(app *fiber.App, stopWorkers context.CancelFunc, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
