package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sokoni/marketplace-api/internal/api"
	"github.com/sokoni/marketplace-api/internal/core/ports"
	"github.com/sokoni/marketplace-api/internal/infrastructure/config"
	"github.com/sokoni/marketplace-api/internal/infrastructure/db/postgres"
	"github.com/sokoni/marketplace-api/internal/infrastructure/db/redis"
	"github.com/sokoni/marketplace-api/internal/infrastructure/storage"
	"github.com/sokoni/marketplace-api/internal/token"
	"github.com/sokoni/marketplace-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	pool, err := postgres.Connect(ctx, postgres.Config{
		DSN:      cfg.Postgres.DSN,
		MaxConns: cfg.Postgres.MaxConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	deps := api.Deps{
		Pool:   pool,
		Tokens: token.NewJWT(cfg.JWTSecret, token.DefaultTTL),
		Log:    log,
	}

	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		defer func() { _ = rdb.Close() }()
		deps.Redis = rdb
	} else {
		log.Info().Msg("REDIS_ADDR not set, product cache disabled")
	}

	deps.Assets, deps.UploadsDir, err = buildAssetStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("asset store init failed")
	}

	e := api.NewRouter(deps)

	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage.Driver).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildAssetStore selects the configured asset-store adapter. The second
// return value is the local uploads directory to serve statically, empty
// for remote object storage.
func buildAssetStore(ctx context.Context, cfg *config.Config) (ports.AssetStore, string, error) {
	switch cfg.Storage.Driver {
	case "minio":
		store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.Storage.Minio.Endpoint,
			AccessKey: cfg.Storage.Minio.AccessKey,
			SecretKey: cfg.Storage.Minio.SecretKey,
			Bucket:    cfg.Storage.Minio.Bucket,
			UseSSL:    cfg.Storage.Minio.UseSSL,
			PublicURL: cfg.Storage.Minio.PublicURL,
		})
		return store, "", err
	default:
		store, err := storage.NewFilesystemStore(cfg.Storage.UploadDir, cfg.PublicURL)
		return store, cfg.Storage.UploadDir, err
	}
}
