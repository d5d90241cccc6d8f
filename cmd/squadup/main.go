package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/squadup/squadup"
	"github.com/squadup/squadup/internal/config"
	"github.com/squadup/squadup/internal/domain"
	"github.com/squadup/squadup/internal/infra/database"
	"github.com/squadup/squadup/internal/infra/repository"
	"github.com/squadup/squadup/internal/present/realtime"
	"github.com/squadup/squadup/internal/present/rest"
	"github.com/squadup/squadup/internal/present/rest/middleware"
	"github.com/squadup/squadup/internal/service"
	"github.com/squadup/squadup/internal/usecase"
)

func main() {
	configPath := os.Getenv("SQUADUP_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	conf, err := config.Load(configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	ctx := context.Background()

	if conf.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			panic("failed to setup trace provider: " + err.Error())
		}
		defer shutdown()
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		panic("failed to connect database")
	}
	if err := database.MigratePostgres(db); err != nil {
		panic("failed to migrate database")
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	identityRepo := repository.NewIdentityRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	trustRepo := repository.NewTrustRepository(db)
	actionRepo := repository.NewActionRepository(db)
	chatRepo := repository.NewChatRepository(db, mc)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	if err := catalogRepo.Seed(ctx, defaultGames); err != nil {
		slog.Warn("failed to seed game catalog", slog.String("error", err.Error()))
	}

	signal := service.NewSignalService(rdb)
	analyzer := service.NewAnalyzer()
	auth := service.NewAuthService(conf.Server.JwtSecret)

	notificationUC := usecase.NewNotificationUsecase(notificationRepo, signal)
	reputationUC := usecase.NewReputationUsecase(identityRepo, signal)
	moderationUC := usecase.NewModerationUsecase(
		actionRepo, identityRepo, chatRepo, auditRepo, statsRepo,
		notificationUC, reputationUC, signal,
	)
	identityUC := usecase.NewIdentityUsecase(identityRepo)
	sessionUC := usecase.NewSessionUsecase(sessionRepo, identityRepo, moderationUC, notificationUC, auditRepo, signal)
	chatUC := usecase.NewChatUsecase(
		chatRepo, sessionRepo, identityRepo, analyzer,
		reputationUC, moderationUC, signal, conf.Server.ChatReplayLimit,
	)
	trustUC := usecase.NewTrustUsecase(trustRepo, identityRepo, notificationUC)
	catalogUC := usecase.NewCatalogUsecase(catalogRepo)

	hub := realtime.NewHub()
	subscriber := realtime.NewSubscriber(rdb, hub)
	go func() {
		if err := subscriber.Run(ctx); err != nil {
			slog.Error("realtime subscriber stopped", slog.String("error", err.Error()))
		}
	}()

	go publishStats(ctx, moderationUC, signal, conf.Server.StatsIntervalSeconds)

	authMiddleware := middleware.NewAuthMiddleware(auth)
	handler := rest.NewHandler(
		identityUC, sessionUC, chatUC, trustUC,
		moderationUC, notificationUC, catalogUC,
		hub, authMiddleware,
	)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("squadup"))
	}
	e.Use(authMiddleware.IdentifyIdentity)

	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.ListenAddr))
}

// publishStats pushes aggregate snapshots onto the staff feed on a fixed
// interval.
func publishStats(ctx context.Context, moderation *usecase.ModerationUsecase, signal *service.SignalService, intervalSeconds int) {
	ticker := time.NewTicker(time.Duration(intervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := moderation.Stats(ctx)
			if err != nil {
				slog.Warn("failed to collect stats snapshot", slog.String("error", err.Error()))
				continue
			}
			event, err := squadup.NewEvent(squadup.EventStatsSnapshot, squadup.StaffChannel, squadup.StatsSnapshotPayload{
				TotalIdentities:   stats.TotalIdentities,
				FlaggedIdentities: stats.FlaggedIdentities,
				ActiveActions:     stats.ActiveActions,
				OpenSessions:      stats.OpenSessions,
				TrustEdges:        stats.TrustEdges,
				At:                time.Now().UTC(),
			})
			if err != nil {
				continue
			}
			if err := signal.Publish(ctx, event.Channel, event); err != nil {
				slog.Warn("failed to publish stats snapshot", slog.String("error", err.Error()))
			}
		}
	}
}

func setupTraceProvider(ctx context.Context, endpoint string) (func(), error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("squadup"),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to shutdown trace provider", slog.String("error", err.Error()))
		}
	}, nil
}

var defaultGames = []domain.Game{
	{ID: "valorant", Name: "Valorant", Genre: "Tactical Shooter"},
	{ID: "league-of-legends", Name: "League of Legends", Genre: "MOBA"},
	{ID: "overwatch-2", Name: "Overwatch 2", Genre: "Hero Shooter"},
	{ID: "apex-legends", Name: "Apex Legends", Genre: "Battle Royale"},
	{ID: "counter-strike-2", Name: "Counter-Strike 2", Genre: "Tactical Shooter"},
	{ID: "rocket-league", Name: "Rocket League", Genre: "Sports"},
	{ID: "deep-rock-galactic", Name: "Deep Rock Galactic", Genre: "Co-op Shooter"},
	{ID: "helldivers-2", Name: "Helldivers 2", Genre: "Co-op Shooter"},
}
