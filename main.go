package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-meet/config"
	"go-meet/embeddings"
	"go-meet/handlers"
	"go-meet/identity"
	"go-meet/middleware"
	"go-meet/repositories/mongo"
	"go-meet/search"
	"go-meet/services"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	bootstrap, _ := zap.NewProduction()
	cfg, err := config.Load()
	if err != nil {
		bootstrap.Fatal("failed to load config", zap.Error(err))
	}

	logger := newLogger(cfg.LogLevel, bootstrap)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Mongo
	mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("failed to connect to mongo", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.MongoDB)
	userStore := mongo.NewUserStore(ctx, db, "users", logger)
	poiStore := mongo.NewPOIStore(db, "pois")
	if err := poiStore.SeedIfEmpty(ctx, cfg.POIFile, logger); err != nil {
		logger.Warn("failed to seed points of interest", zap.Error(err))
	}
	pois, err := poiStore.ListPOIs(ctx)
	if err != nil {
		logger.Fatal("failed to load points of interest", zap.Error(err))
	}

	// Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	redisIndex := search.NewRedisIndex(redisClient)
	if err := redisIndex.IndexPOIs(ctx, pois, logger); err != nil {
		logger.Warn("failed to index points of interest", zap.Error(err))
	}

	// Qdrant
	qdrant, err := search.NewQdrant(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection)
	if err != nil {
		logger.Fatal("failed to connect to qdrant", zap.Error(err))
	}
	defer qdrant.Close()

	index := search.Indexers{redisIndex, qdrant}
	policy := services.DefaultRetryPolicy()
	policy.Attempts = cfg.MatchRetries

	sessions := services.NewSessionService(userStore)
	geoService := services.NewGeoService(userStore, policy, pois, redisIndex)
	authService := services.NewAuthService(userStore,
		identity.NewJWTVerifier(cfg.IdentitySecret, cfg.IdentityAudience, cfg.IdentityIssuer),
		index, policy, logger)
	userService := services.NewUserService(services.UserServiceDeps{
		Store:    userStore,
		Embedder: embeddings.New(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel),
		Index:    index,
		Geo:      redisIndex,
		Vectors:  qdrant,
		Policy:   policy,
		Logger:   logger,
	})

	router := handlers.NewRouter(handlers.Handlers{
		Auth:  handlers.NewAuthHandler(authService),
		User:  handlers.NewUserHandler(userService),
		Match: handlers.NewMatchHandler(services.NewMatchService(userStore, policy), geoService),
		POI:   handlers.NewPOIHandler(geoService),
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"mongo": mongoClient.Ping,
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}, logger),
	}, sessions, logger)
	router.Use(middleware.TimeoutMiddleware(cfg.StoreTimeout))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(level string, fallback *zap.Logger) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		fallback.Warn("invalid log configuration, using defaults", zap.Error(err))
		return fallback
	}
	return logger
}
