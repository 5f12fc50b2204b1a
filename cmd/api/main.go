package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpadp "cmcs-backend/internal/adapter/http"
	"cmcs-backend/internal/adapter/middleware"
	repo "cmcs-backend/internal/adapter/repository/mysql"
	"cmcs-backend/internal/config"
	"cmcs-backend/internal/domain/document"
	"cmcs-backend/internal/infrastructure/blob"
	"cmcs-backend/internal/infrastructure/cache"
	"cmcs-backend/internal/infrastructure/crypto"
	"cmcs-backend/internal/infrastructure/db"
	"cmcs-backend/internal/infrastructure/logger"
	ucClaim "cmcs-backend/internal/usecase/claim"
	ucDocument "cmcs-backend/internal/usecase/document"
	"cmcs-backend/internal/usecase/report"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.DB, log)
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.DB.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	blobs, err := openBlobs(ctx, cfg.Documents)
	if err != nil {
		return fmt.Errorf("documents: %w", err)
	}
	keys, err := crypto.NewPassphraseKeys(cfg.Documents.Passphrase, cfg.Documents.Salt)
	if err != nil {
		return fmt.Errorf("document key: %w", err)
	}
	codec := crypto.NewCodec(keys,
		crypto.WithLegacyRead(cfg.Documents.LegacyRead),
		crypto.WithLegacyWrite(cfg.Documents.LegacyWrite))

	claims := repo.NewClaimRepository(gdb)
	users := repo.NewUserRepository(gdb)
	if cfg.DB.Seed {
		if _, err := db.SeedUsers(ctx, users, log.Named("seed")); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	docs := ucDocument.NewUsecase(blobs, codec, cfg.Documents.MaxBytes, log.Named("documents"))
	claimUC := ucClaim.NewUsecase(claims, users, repo.NewGormUoW(gdb), docs, log.Named("claims"))
	reportUC := report.NewUsecase(claims, users, log.Named("reports"))

	var idem echo.MiddlewareFunc
	if cfg.Redis.Addr != "" {
		rdb, err := cache.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		idem = middleware.IdempotencyMiddleware(rdb, cfg.Idempotency.TTL(), log.Named("idempotency"))
	} else {
		log.Warn("redis not configured; mutating routes are not idempotent")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(
		echomw.RequestID(),
		echomw.RequestLoggerWithConfig(accessLog(log.Named("http"))),
		echomw.Recover(),
		// multipart framing on top of the largest allowed document
		echomw.BodyLimit(fmt.Sprintf("%dK", cfg.Documents.MaxBytes>>10+1024)),
	)
	httpadp.RegisterRoutes(e,
		httpadp.NewHandler(sqlDB),
		httpadp.NewClaimHandler(claimUC, log.Named("http")),
		httpadp.NewReportHandler(reportUC, claimUC, log.Named("http")),
		idem)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.App.Port
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openBlobs(ctx context.Context, cfg config.DocumentsConfig) (document.BlobStore, error) {
	switch cfg.Backend {
	case "s3":
		return blob.OpenS3(ctx, cfg.S3Region, cfg.S3Endpoint, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return blob.NewFS(cfg.Dir)
	}
}

func accessLog(log *zap.Logger) echomw.RequestLoggerConfig {
	return echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				log.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	}
}
