package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rinova/internal/adapter/repo"
	"rinova/internal/http/handlers"
	httpapi "rinova/internal/http/httpapi"
	"rinova/internal/imagegen"
	"rinova/internal/infra"
	"rinova/internal/infra/geoip"
	"rinova/internal/middleware"
	"rinova/internal/restyle"
	"rinova/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	sqlRunner := infra.NewSQLRunner(dbpool, logger)

	users := repo.NewUserRepository(sqlRunner)
	records := repo.NewGenerationRepository(sqlRunner)
	usage := repo.NewUsageRepository(sqlRunner)

	var (
		store     storage.BlobStore
		staticDir string
	)
	if cfg.UseSupabaseStorage() {
		store, err = storage.NewSupabaseStore(storage.SupabaseOptions{
			ProjectURL: cfg.SupabaseURL,
			ServiceKey: cfg.SupabaseKey,
			Bucket:     cfg.StorageBucket,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init supabase storage")
		}
		logger.Info().Str("bucket", cfg.StorageBucket).Msg("using supabase storage")
	} else {
		fileStore, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init file storage")
		}
		store = fileStore
		staticDir = fileStore.BasePath()
		logger.Info().Str("path", staticDir).Msg("using filesystem storage")
	}

	var countryLookup middleware.CountryLookup
	if resolver, err := geoip.NewResolver(cfg.GeoIPDBPath); err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, country resolution degraded")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	generator := imagegen.NewFalClient(imagegen.FalOptions{
		BaseURL: cfg.FalBaseURL,
		Model:   cfg.FalModel,
		APIKey:  cfg.FalAPIKey,
		Timeout: cfg.GenerationTimeout,
	})

	restyler := restyle.NewService(restyle.Options{
		Store:     store,
		Generator: generator,
		Records:   records,
		Quota:     restyle.NewGuard(users),
		Logger:    logger,
	})

	app := &handlers.App{
		Logger:            logger,
		Users:             users,
		Records:           records,
		Usage:             usage,
		Restyler:          restyler,
		JWTSecret:         cfg.JWTSecret,
		GenerationTimeout: cfg.GenerationTimeout,
		HTTPClient:        &http.Client{Timeout: 60 * time.Second},
	}

	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		JWTSecret:      cfg.JWTSecret,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitPerIP: cfg.RateLimitPerMin,
		CountryLookup:  countryLookup,
		Logger:         middleware.Logger(logger),
		StaticDir:      staticDir,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
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
