package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"fitforge/internal/adapter/repo"
	"fitforge/internal/http/handlers"
	httpapi "fitforge/internal/http/httpapi"
	"fitforge/internal/imagegen"
	"fitforge/internal/infra"
	"fitforge/internal/mailer"
	"fitforge/internal/providers/bodyregen"
	"fitforge/internal/providers/cooldown"
	"fitforge/internal/providers/faceenhance"
	"fitforge/internal/report"
	"fitforge/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	ctx := context.Background()

	app := &handlers.App{Logger: logger}

	// Submission persistence is optional; without a database the service
	// still serves requests, it just keeps no record of them.
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		runner := infra.NewSQLRunner(pool, logger)
		app.Submissions = repo.NewSubmissionRepository(runner)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, submission persistence disabled")
	}

	// Same for webhook dedup: no Redis means retried deliveries run twice.
	if cfg.RedisAddr != "" {
		rdb, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rdb.Close()
		app.Deduper = repo.NewDedupRepository(rdb, cfg.DedupTTL)
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, webhook dedup disabled")
	}

	store, staticDir, err := newImageStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init image store")
	}

	providerClient := &http.Client{Timeout: cfg.ProviderTimeout}
	tracker := cooldown.NewTracker(map[cooldown.Provider]time.Duration{
		cooldown.ProviderFaceEnhance: cfg.FaceEnhanceCooldown,
		cooldown.ProviderBodyRegen:   cfg.BodyRegenCooldown,
	})

	face, err := faceenhance.NewClient(faceenhance.Options{
		APIKey:     cfg.FaceEnhanceAPIKey,
		BaseURL:    cfg.FaceEnhanceBaseURL,
		HTTPClient: providerClient,
		Logger:     &logger,
		Tracker:    tracker,
		Store:      store,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init face-enhance client")
	}

	body, err := bodyregen.NewClient(bodyregen.Options{
		APIKey:     cfg.BodyRegenAPIKey,
		BaseURL:    cfg.BodyRegenBaseURL,
		Models:     cfg.BodyRegenModels,
		HTTPClient: providerClient,
		Logger:     &logger,
		Tracker:    tracker,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init body-regen client")
	}

	pipeline, err := imagegen.NewPipeline(imagegen.PipelineOptions{
		Store:        store,
		Face:         face,
		Body:         body,
		Logger:       logger,
		TargetWidth:  cfg.TargetImageWidth,
		TargetHeight: cfg.TargetImageHeight,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init image pipeline")
	}
	app.Generator = pipeline

	reports, err := report.NewBuilder(store, nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init report builder")
	}
	app.Reports = reports

	app.Notifier = mailer.New(mailer.Options{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
		Logger:   logger,
	})

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		RateLimitPerMin: cfg.RateLimitPerMin,
		AllowedOrigins:  cfg.AllowedOrigins,
		StaticDir:       staticDir,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// newImageStore picks the storage driver. The second return value is the local
// directory to expose under /static/, empty for S3.
func newImageStore(ctx context.Context, cfg *infra.Config) (storage.ImageStore, string, error) {
	if cfg.StorageDriver == "s3" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, "", err
		}
		store, err := storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.StorageBaseURL)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	}

	baseURL := cfg.StorageBaseURL
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Port + "/static"
	}
	store, err := storage.NewFileStore(cfg.StorageBaseDir, baseURL)
	if err != nil {
		return nil, "", err
	}
	return store, store.BasePath(), nil
}
