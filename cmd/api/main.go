package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/offer-marketplace/internal/config"
	"github.com/fairyhunter13/offer-marketplace/internal/handler"
	"github.com/fairyhunter13/offer-marketplace/internal/identity"
	"github.com/fairyhunter13/offer-marketplace/internal/repository"
	"github.com/fairyhunter13/offer-marketplace/internal/scheduler"
	"github.com/fairyhunter13/offer-marketplace/internal/service"
	"github.com/fairyhunter13/offer-marketplace/internal/validator"
	"github.com/fairyhunter13/offer-marketplace/pkg/cache"
	"github.com/fairyhunter13/offer-marketplace/pkg/database"
	"github.com/fairyhunter13/offer-marketplace/pkg/maps"
	"github.com/fairyhunter13/offer-marketplace/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx := context.Background()

	if cfg.DB.MigrateOnStart {
		if err := database.Migrate(cfg.DB.MigrationURL()); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Token revocation and reset tokens live in Redis when configured so
	// that several instances share them.
	var (
		tokenStore  identity.TokenStore
		redisClient *redis.Client
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewClient(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		tokenStore = identity.NewRedisTokenStore(redisClient)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, using in-process token store")
		memStore := identity.NewMemoryTokenStore()
		defer memStore.Stop()
		tokenStore = memStore
	}

	app := fiber.New(fiber.Config{
		AppName:      "Offer Marketplace",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowCredentials: true,
	}))

	validate := validator.New()

	// Repositories
	accountRepo := repository.NewAccountRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	businessRepo := repository.NewBusinessRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	offerRepo := repository.NewOfferRepository(pool)
	claimRepo := repository.NewClaimRepository(pool)
	savedRepo := repository.NewSavedOfferRepository(pool)

	// Identity
	tokens := identity.NewTokenIssuer(identity.TokenConfig{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		Issuer:        cfg.Auth.Issuer,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})
	gateway := identity.NewLocalGateway(accountRepo, tokens, tokenStore, identity.LogMailer{}, identity.LocalConfig{
		BcryptCost: cfg.Auth.BcryptCost,
		ResetTTL:   cfg.Auth.ResetTTL,
		ResetURL:   cfg.Auth.ResetURL,
	})

	// Services
	businessService := service.NewBusinessService(businessRepo)
	productService := service.NewProductService(productRepo, businessService)
	offerService := service.NewOfferService(pool, offerRepo, claimRepo, productService, businessService)
	claimService := service.NewClaimService(pool, claimRepo, savedRepo, cfg.Claims.PersistExpiryOnRead)
	authService := service.NewAuthService(gateway, customerRepo, businessRepo, cfg.Auth.GuestSessionTTL)

	// Handlers
	cookies := handler.NewCookies(handler.CookieConfig{
		AccessName:  cfg.Auth.AccessCookieName,
		RefreshName: cfg.Auth.RefreshCookieName,
		GuestName:   cfg.Auth.GuestCookieName,
		Domain:      cfg.Auth.CookieDomain,
		Secure:      cfg.Auth.CookieSecure,
	})
	healthHandler := handler.NewHealthHandler(pool)
	if redisClient != nil {
		healthHandler.With("redis", handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}

	router := &handler.Router{
		Session:    handler.NewSessionMiddleware(authService, cookies),
		Health:     healthHandler,
		Auth:       handler.NewAuthHandler(authService, validate, cookies),
		Offers:     handler.NewOfferHandler(offerService, validate),
		Claims:     handler.NewClaimHandler(claimService),
		Businesses: handler.NewBusinessHandler(businessService, productService, validate),
		Metrics:    promhttp.Handler(),
	}

	if cfg.Storage.Enabled() {
		uploader, err := storage.NewS3Uploader(ctx, storage.Config{
			Endpoint:      cfg.Storage.Endpoint,
			Region:        cfg.Storage.Region,
			Bucket:        cfg.Storage.Bucket,
			AccessKey:     cfg.Storage.AccessKey,
			SecretKey:     cfg.Storage.SecretKey,
			UsePathStyle:  cfg.Storage.UsePathStyle,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize object storage")
		}
		router.Uploads = handler.NewUploadHandler(uploader, businessService, int64(cfg.Storage.MaxUploadMB)*1024*1024)
	} else {
		log.Warn().Msg("object storage not configured, uploads disabled")
	}

	if cfg.Maps.APIKey != "" {
		router.Places = handler.NewPlacesHandler(maps.NewClient(cfg.Maps.BaseURL, cfg.Maps.APIKey, cfg.Maps.Timeout))
	} else {
		log.Warn().Msg("MAPS_API_KEY not set, places endpoints disabled")
	}

	router.Register(app)

	var expiryJob *scheduler.ExpiryJob
	if cfg.Scheduler.Enabled {
		expiryJob = scheduler.NewExpiryJob(claimService, cfg.Scheduler.ExpirySweepSpec)
		if err := expiryJob.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start scheduler")
		}
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Stop scheduling before draining requests so no sweep starts mid-shutdown.
	expiryJob.Stop()

	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis client")
		}
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
