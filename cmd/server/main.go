package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"answerxtractor/internal/app"
	"answerxtractor/internal/config"
	"answerxtractor/internal/server"
	"answerxtractor/internal/util"
	"answerxtractor/pkg/ai"
	"answerxtractor/pkg/storage"
	"answerxtractor/pkg/store"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}
	util.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		util.Fatal("server exited", "err", err)
	}
}

func run(ctx context.Context, cfg config.FileConfig) error {
	sessionTTL, _ := config.ParseSessionTTL(cfg.SessionTTL)
	generationTimeout, _ := config.ParseGenerationTimeout(cfg.GenerationTimeout)

	db, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var (
		redisClient *redis.Client
		revoker     store.TokenRevoker = store.NewMemoryTokenRevoker()
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer redisClient.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		revoker = store.NewRedisTokenRevoker(redisClient)
	} else {
		slog.Warn("redis not configured; logout revocation is per-process and rate limiting is off")
	}

	sessions, err := store.NewJWTSessionStore(cfg.JWTSecret, sessionTTL, revoker, store.JWTOptions{})
	if err != nil {
		return fmt.Errorf("init sessions: %w", err)
	}

	generator, err := ai.NewTextGenerator(ctx, ai.ProviderConfig{
		Provider: cfg.GenerationProvider,
		BaseURL:  cfg.GenerationBaseURL,
		APIKey:   cfg.GenerationAPIKey,
		Model:    cfg.GenerationModel,
	})
	if err != nil {
		return fmt.Errorf("init generator: %w", err)
	}

	var objects storage.ObjectStore
	if cfg.MinioEndpoint != "" {
		minioStore, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
		objects = minioStore
	}

	appCore, err := app.New(app.Config{
		Store:             db,
		Sessions:          sessions,
		Generator:         generator,
		Objects:           objects,
		HistoryLimit:      cfg.HistoryLimit,
		GenerationTimeout: generationTimeout,
		MaxUploadBytes:    cfg.MaxUploadBytes,
	})
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("parse trusted proxies: %w", err)
	}
	httpServer, err := server.New(server.Config{
		App:                      appCore,
		Redis:                    redisClient,
		LoginRateLimitPerMinute:  cfg.LoginRateLimitPerMinute,
		SignupRateLimitPerMinute: cfg.SignupRateLimitPerMinute,
		TrustedProxies:           trusted,
		CORSOrigin:               cfg.CORSOrigin,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// Answers may take up to the generation timeout.
		WriteTimeout: generationTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("answerxtractor listening", "addr", addr, "provider", cfg.GenerationProvider, "object_storage", objects != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
