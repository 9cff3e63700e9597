package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	_ "github.com/noah-isme/trainer-discovery-api/api/swagger"
	"github.com/noah-isme/trainer-discovery-api/internal/handler"
	internalmiddleware "github.com/noah-isme/trainer-discovery-api/internal/middleware"
	"github.com/noah-isme/trainer-discovery-api/internal/models"
	"github.com/noah-isme/trainer-discovery-api/internal/repository"
	mongorepo "github.com/noah-isme/trainer-discovery-api/internal/repository/mongo"
	"github.com/noah-isme/trainer-discovery-api/internal/service"
	"github.com/noah-isme/trainer-discovery-api/pkg/cache"
	"github.com/noah-isme/trainer-discovery-api/pkg/config"
	"github.com/noah-isme/trainer-discovery-api/pkg/database"
	"github.com/noah-isme/trainer-discovery-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/trainer-discovery-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/trainer-discovery-api/pkg/middleware/requestid"
	"github.com/noah-isme/trainer-discovery-api/pkg/storage"
)

// @title Trainer Discovery API
// @version 1.0.0
// @description Scan-ahead trainer discovery with hydrated, client-filtered results
// @BasePath /api/v1
// @schemes http

type trainerSource interface {
	ListPage(ctx context.Context, q models.TrainerPageQuery) (models.TrainerPage, error)
}

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.ReadinessCheck{}

	var (
		source  trainerSource
		readers service.RelationReaders
	)
	switch cfg.Store {
	case config.StoreMongo:
		client, db, err := database.NewMongo(cfg.Mongo)
		if err != nil {
			logr.Fatal("failed to connect mongo", zap.Error(err))
		}
		defer database.DisconnectMongo(client) //nolint:errcheck
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			logr.Warn("failed to ensure mongo indexes", zap.Error(err))
		}
		store := mongorepo.NewStore(db)
		source = store.Trainers
		readers = service.RelationReaders{
			Availability: store.Availability,
			Holidays:     store.Holidays,
			Reviews:      store.Reviews,
			Pricing:      store.Pricing,
			Bookings:     store.Bookings,
		}
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	default:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer db.Close()
		source = repository.NewTrainerRepository(db)
		readers = service.RelationReaders{
			Availability: repository.NewAvailabilityRepository(db),
			Holidays:     repository.NewHolidayRepository(db),
			Reviews:      repository.NewReviewRepository(db),
			Pricing:      repository.NewPricingRepository(db),
			Bookings:     repository.NewBookingRepository(db),
		}
		checks["postgres"] = db.PingContext
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("page cache disabled: redis unavailable", zap.Error(err))
			redisClient = nil
		} else {
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, "discovery", logr)
	defer cacheRepo.Close() //nolint:errcheck

	var signer storage.ObjectURLSigner
	if cfg.S3.BucketName != "" {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			logr.Warn("avatar urls disabled: s3 unavailable", zap.Error(err))
		} else {
			signer = s3Storage
		}
	}

	location, err := time.LoadLocation(cfg.Discovery.TimeZone)
	if err != nil {
		logr.Warn("unknown discovery timezone, using local", zap.String("timezone", cfg.Discovery.TimeZone), zap.Error(err))
		location = time.Local
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Discovery.PageCacheTTL, logr, redisClient != nil)
	fetcher := service.NewTrainerFetcher(source, cacheSvc, metricsSvc, cfg.Discovery.FetchTimeout, cfg.Discovery.PageCacheTTL, logr)
	hydrator := service.NewHydrationService(readers, cfg.Discovery.BookingLookback, metricsSvc, logr)
	builder := service.NewDerivedValueCalculator(signer, cfg.S3.URLTTL, location, logr)
	filter := service.NewClientFilter(service.DefaultCityAliases(), location)

	pager := service.NewScanPager(fetcher, hydrator, builder, filter, service.PagerConfig{
		PageSize:      cfg.Discovery.PageSize,
		FirstLoadScan: cfg.Discovery.FirstLoadScan,
		ScrollScan:    cfg.Discovery.ScrollScan,
	}, metricsSvc, logr)

	prefetch := service.NewPrefetchService(fetcher, cacheSvc, cfg.Discovery.PrefetchWorkers, metricsSvc, logr)
	prefetch.Start(ctx)
	defer prefetch.Stop()
	pager.OnCommitted(prefetch.Enqueue)

	handles := service.NewSessionHandleService(cfg.Sessions.Secret, cfg.Sessions.TTL)
	discoverySvc := service.NewDiscoveryService(pager, handles, validator.New(), cfg.Sessions.TTL, metricsSvc, logr)
	go discoverySvc.RunSweeper(ctx, cfg.Sessions.SweepInterval)

	limiter := internalmiddleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.RunCleanup(ctx, 5*time.Minute)

	discoveryHandler := handler.NewDiscoveryHandler(discoverySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.WithResponseMeta())

	discovery := api.Group("/discovery")
	discovery.Use(limiter.Middleware())
	discovery.GET("/cities", discoveryHandler.Cities)
	discovery.POST("/sessions", discoveryHandler.Create)

	session := discovery.Group("/sessions/:id")
	session.Use(internalmiddleware.SessionHandle(handles))
	session.GET("", discoveryHandler.Get)
	session.PUT("/filters", discoveryHandler.ApplyFilters)
	session.POST("/more", discoveryHandler.LoadMore)
	session.DELETE("/error", discoveryHandler.DismissError)
	session.DELETE("", discoveryHandler.Close)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
