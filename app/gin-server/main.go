package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/config"
	"github.com/yoockh/yoointerview/internal/api/handlers"
	"github.com/yoockh/yoointerview/internal/api/middleware"
	"github.com/yoockh/yoointerview/internal/api/routes"
	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/metrics"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/storage"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadInterview()
	if err != nil {
		log.WithError(err).Fatal("interview config")
	}

	if err := config.InitMongo(ctx); err != nil {
		log.WithError(err).Fatal("MongoDB init error")
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Fatal("MongoDB index error")
	}
	log.Info("MongoDB connected")

	var scores pgrepo.ScoreRepository
	if os.Getenv("POSTGRES_URI") != "" {
		if err := config.InitPostgres(); err != nil {
			log.WithError(err).Fatal("PostgreSQL init error")
		}
		if err := config.PostgresDB.AutoMigrate(&models.ScoreRecord{}); err != nil {
			log.WithError(err).Fatal("PostgreSQL migrate error")
		}
		scores = pgrepo.NewScoreRepo(config.PostgresDB)
		log.Info("PostgreSQL connected")
	} else {
		log.Warn("POSTGRES_URI not set, per-answer score records disabled")
	}

	if err := config.InitRedis(ctx); err != nil {
		log.WithError(err).Fatal("Redis init error")
	}
	log.Info("Redis connected")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	provider, err := newProvider(ctx)
	if err != nil {
		log.WithError(err).Fatal("LLM provider init error")
	}
	defer provider.Close()
	gen := &llm.Retrying{
		Provider: provider,
		Attempts: uint(cfg.RetryAttempts),
		Base:     cfg.RetryBase,
		OnRetry: func(err error, wait time.Duration) {
			log.WithError(err).WithField("wait", wait.String()).Warn("generation failed, retrying")
		},
	}

	var archive storage.Uploader
	if bucket := os.Getenv("GCS_REPORT_BUCKET"); bucket != "" {
		up, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.WithError(err).Fatal("GCS init error")
		}
		defer up.Close()
		archive = up
	}

	db := config.MongoDatabase()
	sessionRepo := mongorepo.NewSessionRepo(db)
	jobRepo := mongorepo.NewJobRepo(db)
	redisCache := cache.NewRedisCache(config.RedisClient)

	finalizer := services.NewFinalizeService(services.FinalizeDeps{
		Sessions:  sessionRepo,
		Jobs:      jobRepo,
		Generator: gen,
		Latch:     services.NewRedisLatch(redisCache, cfg.LatchTTL),
		Cache:     redisCache,
		Events:    redisCache,
		Archive:   archive,
		Metrics:   rec,
		Logger:    log,
		Grace:     cfg.CompletionGrace,
	})
	driver := services.NewInterviewDriver(services.DriverDeps{
		Sessions:  sessionRepo,
		Scores:    scores,
		Finalizer: finalizer,
		Generator: gen,
		Config:    cfg,
		Metrics:   rec,
		Logger:    log,
	})
	interviews := services.NewInterviewService(jobRepo, sessionRepo, cfg.MaxQuestions)
	sessions := services.NewSessionService(sessionRepo, jobRepo, scores, redisCache, log)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Session: handlers.NewSessionHandler(sessions),
		WS:      handlers.NewWSHandler(interviews, driver, rec, log),
		Metrics: metrics.Handler(reg),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.WithField("port", port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	shutdown(srv, log, cfg.FinalizeTimeout)
}

// newProvider picks the generation backend from LLM_PROVIDER (vertex or openai).
func newProvider(ctx context.Context) (llm.Provider, error) {
	switch os.Getenv("LLM_PROVIDER") {
	case "vertex":
		return llm.NewVertexGemini(ctx, os.Getenv("VERTEX_PROJECT"), os.Getenv("VERTEX_LOCATION"), os.Getenv("LLM_MODEL"))
	case "", "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, errors.New("OPENAI_API_KEY environment variable is not set")
		}
		return llm.NewOpenAICompatible(key, os.Getenv("OPENAI_BASE_URL"), os.Getenv("LLM_MODEL")), nil
	default:
		return nil, errors.New("unknown LLM_PROVIDER " + os.Getenv("LLM_PROVIDER"))
	}
}

// shutdown drains plain HTTP requests and closes the stores.
func shutdown(srv *http.Server, log logrus.FieldLogger, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	if config.MongoClient != nil {
		_ = config.MongoClient.Disconnect(ctx)
	}
	if config.RedisClient != nil {
		_ = config.RedisClient.Close()
	}
	log.Info("server stopped")
}
