package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/noah-isme/diagram-search-api/api/swagger"
	"github.com/noah-isme/diagram-search-api/internal/clients"
	"github.com/noah-isme/diagram-search-api/internal/handler"
	"github.com/noah-isme/diagram-search-api/internal/repository"
	"github.com/noah-isme/diagram-search-api/internal/routes"
	"github.com/noah-isme/diagram-search-api/internal/service"
	"github.com/noah-isme/diagram-search-api/internal/session"
	"github.com/noah-isme/diagram-search-api/pkg/cache"
	"github.com/noah-isme/diagram-search-api/pkg/config"
	"github.com/noah-isme/diagram-search-api/pkg/database"
	"github.com/noah-isme/diagram-search-api/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// @title Diagram Search API
// @version 1.0.0
// @description Curriculum diagram search with student and teacher roles
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logr.Info("database migrations applied")
	}

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	store, closeStore, err := newCatalogStore(cfg, db, logr, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics := service.NewMetricsService()
	validate := validator.New()

	authSvc := service.NewAuthService(repository.NewUserRepository(db), validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		StudentCode:       cfg.Registration.StudentCode,
		TeacherCode:       cfg.Registration.TeacherCode,
	})

	catalogSvc := service.NewCatalogService(store, logr, service.CatalogConfig{RequireTeacherApproval: cfg.Approval.RequireTeacher})
	if cfg.Catalog.Seed && cfg.Catalog.Backend != config.CatalogBackendFile {
		if err := seedCatalog(ctx, cfg, catalogSvc, logr); err != nil {
			return err
		}
	}

	images := clients.NewSerpAPIClient(cfg.Search.Endpoint, cfg.Search.APIKey, cfg.Search.Timeout, logr)
	var captions clients.CaptionClient
	if cfg.Generation.Enabled {
		captions, err = clients.NewGeminiClient(ctx, clients.GeminiOptions{APIKey: cfg.Generation.APIKey, Model: cfg.Generation.Model}, logr)
		if err != nil {
			logr.Warn("caption generation disabled", zap.Error(err))
			captions = nil
		}
	}

	searchSvc := service.NewSearchService(catalogSvc, images, captions, metrics, logr, service.SearchConfig{
		RandomCandidates: cfg.Search.RandomCandidates,
		CacheTTL:         cfg.Search.CacheTTL,
	})

	sessions := session.NewManager(cfg.Session)

	router := routes.Setup(routes.Dependencies{
		Config:   cfg,
		Logger:   logr,
		Sessions: sessions,
		Auth:     authSvc,
		Metrics:  metrics,
	}, routes.AppHandlers{
		Auth:    handler.NewAuthHandler(authSvc, sessions),
		Catalog: handler.NewCatalogHandler(catalogSvc),
		Search:  handler.NewSearchHandler(searchSvc),
		Metrics: handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("catalog_backend", cfg.Catalog.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down gracefully, press Ctrl+C again to force")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logr.Info("server exited")
	return nil
}

func newCatalogStore(cfg *config.Config, db *sqlx.DB, logr *zap.Logger, checks map[string]handler.ReadinessCheck) (repository.CatalogStore, func(), error) {
	noop := func() {}
	switch cfg.Catalog.Backend {
	case config.CatalogBackendFile, "":
		return repository.NewFileCatalogRepository(cfg.Catalog.FilePath), noop, nil
	case config.CatalogBackendPostgres:
		return repository.NewPostgresCatalogRepository(db), noop, nil
	case config.CatalogBackendRedis:
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			return nil, noop, fmt.Errorf("connect redis: %w", err)
		}
		checks["redis"] = cache.Ping(client)
		return repository.NewRedisCatalogRepository(client, cfg.Catalog.RedisKey, logr), func() { _ = client.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown catalog backend %q", cfg.Catalog.Backend)
	}
}

func seedCatalog(ctx context.Context, cfg *config.Config, catalogSvc *service.CatalogService, logr *zap.Logger) error {
	seed, err := repository.NewFileCatalogRepository(cfg.Catalog.FilePath).Load(ctx)
	if err != nil {
		return fmt.Errorf("read catalog seed: %w", err)
	}
	written, err := catalogSvc.Seed(ctx, seed)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	logr.Info("catalog seed checked", zap.String("source", cfg.Catalog.FilePath), zap.Int("buckets_written", written))
	return nil
}
