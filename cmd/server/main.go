package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"fridgewiz/server/internal/config"
	"fridgewiz/server/internal/domain/chat"
	"fridgewiz/server/internal/domain/conversation"
	"fridgewiz/server/internal/domain/media"
	"fridgewiz/server/internal/domain/user"
	"fridgewiz/server/internal/infrastructure/auth"
	"fridgewiz/server/internal/infrastructure/clerk"
	"fridgewiz/server/internal/infrastructure/database"
	_ "fridgewiz/server/internal/infrastructure/database/dbschema"
	"fridgewiz/server/internal/infrastructure/database/repository/conversationrepo"
	"fridgewiz/server/internal/infrastructure/database/repository/imagerepo"
	"fridgewiz/server/internal/infrastructure/database/repository/userrepo"
	"fridgewiz/server/internal/infrastructure/llm"
	"fridgewiz/server/internal/infrastructure/logger"
	"fridgewiz/server/internal/infrastructure/observability"
	"fridgewiz/server/internal/infrastructure/storage"
	"fridgewiz/server/internal/interfaces/httpserver"
	"fridgewiz/server/internal/interfaces/httpserver/handlers"
)

type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := database.AutoMigrate(db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	storageClient, err := storage.NewS3Storage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	validator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	userRepository := userrepo.NewUserGormRepository(db)
	conversationRepository := conversationrepo.NewConversationGormRepository(db)
	imageRepository := imagerepo.NewImageGormRepository(db)

	clerkClient := clerk.NewClient(cfg, log)
	generator := llm.NewOpenAIGenerator(cfg, log)

	userService := user.NewService(userRepository, clerkClient, log)
	conversationService := conversation.NewService(conversationRepository, storageClient, log)
	mediaService := media.NewService(cfg, storageClient, imageRepository, log)
	orchestrator := chat.NewOrchestrator(cfg, conversationService, mediaService, generator, log)

	provider := handlers.NewProvider(cfg, db, orchestrator, conversationService, mediaService, userService, log)
	httpServer := httpserver.New(cfg, log, provider, validator, userService)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
