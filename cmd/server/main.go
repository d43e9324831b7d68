package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"todoapi/backend/internal/auth"
	"todoapi/backend/internal/clock"
	"todoapi/backend/internal/config"
	"todoapi/backend/internal/logger"
	"todoapi/backend/internal/middleware"
	"todoapi/backend/internal/monitoring"
	"todoapi/backend/internal/pool"
	"todoapi/backend/internal/ratelimit"
	"todoapi/backend/internal/service"
	"todoapi/backend/internal/storage"
	"todoapi/backend/internal/storage/memory"
	redisstore "todoapi/backend/internal/storage/redis"
	sqlstore "todoapi/backend/internal/storage/sql"
	httptransport "todoapi/backend/internal/transport/http"
	"todoapi/backend/internal/usage"
)

// main 启动 HTTP API 服务
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化日志系统
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("starting todoapi server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	clk := clock.System()

	// 初始化存储层
	var store storage.Store
	if cfg.Database.Type != "" {
		store, err = sqlstore.NewStore(cfg.Database)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize database storage: %v", err))
		}
		log.Info("using database storage", zap.String("type", cfg.Database.Type))
	} else {
		store = memory.NewStore()
		log.Info("using memory storage (development mode)")
	}
	defer store.Close()

	// 初始化计数器存储：配置了 Redis 用 Redis，否则退化为进程内计数器
	var (
		counterStore ratelimit.CounterStore
		extraPingers = map[string]monitoring.Pinger{}
	)
	if cfg.Redis.Address != "" {
		redisClient, err := redisstore.New(cfg.Redis, log)
		if err != nil {
			panic(fmt.Sprintf("failed to connect to redis: %v", err))
		}
		defer redisClient.Close()
		counterStore = redisstore.NewCounterStore(redisClient)
		extraPingers["redis"] = redisClient
	} else {
		counterStore = memory.NewCounterStore()
		log.Info("using in-process rate limit counters (development mode)")
	}

	// 组装准入管道
	metrics := monitoring.NewMetrics()
	codec := auth.NewTokenCodec(cfg.JWT, clk)
	resolver := auth.NewAPIKeyResolver(store, clk, cfg.APIKey.GraceWindow, log)
	authenticator := auth.NewAuthenticator(codec, resolver, log)
	extractor := auth.NewExtractor(cfg.JWT, cfg.APIKey)
	limiter := ratelimit.NewLimiter(counterStore, cfg.RateLimit.Requests, cfg.RateLimit.Window, clk, log)

	workers := pool.NewWorkerPool(4, 64, log)
	accountant := usage.NewAccountant(store, clk, cfg.Usage.BatchSize, cfg.Usage.FlushInterval, workers, log)

	pipeline := middleware.NewPipeline(extractor, authenticator, limiter, accountant, metrics, log)

	// 业务服务
	authService := service.NewAuthService(store, codec, clk, log)
	userService := service.NewUserService(store, clk, log)
	apiKeyService := service.NewAPIKeyService(store, clk, cfg.APIKey.DefaultTTL, log)
	todoService := service.NewTodoService(store, clk, log)

	health := monitoring.NewHealthHandler(store, extraPingers)

	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:        cfg,
		Pipeline:      pipeline,
		AuthService:   authService,
		UserService:   userService,
		APIKeyService: apiKeyService,
		TodoService:   todoService,
		Store:         store,
		Clock:         clk,
		Metrics:       metrics,
		Health:        health,
		Logger:        log,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workers.Start(ctx)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		// 定时刷盘循环，ctx 取消时做最后一次刷盘
		accountant.Start(groupCtx)
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}

		workers.Stop()
		return nil
	})

	if err := group.Wait(); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
	log.Info("server stopped")
}
