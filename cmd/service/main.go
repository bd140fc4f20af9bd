package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fulfillment-service/config"
	"fulfillment-service/internal/cache"
	"fulfillment-service/internal/migrate"
	"fulfillment-service/internal/notify"
	"fulfillment-service/internal/producer"
	"fulfillment-service/internal/reconcile"
	"fulfillment-service/internal/repository"
	"fulfillment-service/internal/router"
	"fulfillment-service/internal/scanner"
	"fulfillment-service/internal/service"
	gtransport "fulfillment-service/internal/transport/grpc"
	"fulfillment-service/pkg/database"
	"fulfillment-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") != "production"
	if err := logger.InitWithFile(isDev, &logger.FileSink{Path: os.Getenv("LOG_FILE")}); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := migrate.DefaultMigrateOptions()
	if m := int(maxID(cfg.Warehouse.Priority)); m > opts.SeedWarehouses {
		opts.SeedWarehouses = m
	}
	if err := migrate.MigrateFulfillmentDB(ctx, db, log, opts); err != nil {
		log.Fatal("Ошибка при выполнении миграции", zap.Error(err))
	}

	repos := repository.New(db)

	var analyticsCache service.AnalyticsCache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSeconds)*time.Second, log)
		if err != nil {
			log.Fatal("failed to create redis client", zap.Error(err))
		}
		defer redisClient.Close()
		analyticsCache = redisClient
		log.Info("Redis cache enabled")
	} else {
		log.Info("Redis cache disabled")
	}

	hub := notify.NewHub(64, log)
	defer hub.Close()
	notifiers := notify.Multi{hub}
	if cfg.Kafka.Enabled() {
		prod := producer.NewEventProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, log)
		defer func() {
			if err := prod.Close(); err != nil {
				log.Warn("kafka producer close", zap.Error(err))
			}
		}()
		notifiers = append(notifiers, prod)
		log.Info("Kafka events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.EventsTopic))
	}

	policy, err := service.ParseDriftPolicy(cfg.Warehouse.DriftPolicy)
	if err != nil {
		log.Fatal("invalid drift policy", zap.Error(err))
	}

	deps := service.Deps{Repo: repos, Notifier: notifiers, Cache: analyticsCache, Log: log}
	defaultWarehouse := cfg.Warehouse.Priority[0]

	ledger := service.NewStockLedger(deps)
	catalog := service.NewCatalogService(deps, defaultWarehouse)
	orders, err := service.NewOrderService(deps, service.OrderConfig{
		Priority:    cfg.Warehouse.Priority,
		DriftPolicy: policy,
	})
	if err != nil {
		log.Fatal("failed to create order service", zap.Error(err))
	}
	workers := service.NewWorkerService(deps)
	analytics := service.NewAnalyticsService(deps, cfg.Warehouse.LowStockThreshold)

	var invalidator reconcile.Invalidator
	if analyticsCache != nil {
		invalidator = analyticsCache
	}
	reconcileSvc := reconcile.NewService(repos, defaultWarehouse, invalidator, log)
	scheduler := reconcile.NewScheduler(reconcileSvc, cfg.ReconcileInterval, log)
	scheduler.Start(ctx)

	if cfg.Scanner.Device != "" {
		reader := scanner.NewReader(cfg.Scanner.Device, ledger, log)
		go func() {
			if err := reader.Run(ctx); err != nil {
				log.Error("scanner reader stopped", zap.Error(err))
			}
		}()
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal("failed to create upload dir", zap.String("dir", cfg.UploadDir), zap.Error(err))
	}

	r := router.Router(router.Services{
		Ledger:           ledger,
		Catalog:          catalog,
		Orders:           orders,
		Workers:          workers,
		Analytics:        analytics,
		Events:           hub,
		UploadDir:        cfg.UploadDir,
		DefaultWarehouse: defaultWarehouse,
	}, log)

	httpSrv := &http.Server{
		Addr:              cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var ops *gtransport.OpsServer
	if cfg.GRPCPort != "" {
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatal("failed to get sql.DB", zap.Error(err))
		}
		lis, err := net.Listen("tcp", cfg.GRPCPort)
		if err != nil {
			log.Fatal("failed to listen", zap.Error(err))
		}
		ops = gtransport.NewOpsServer(sqlDB, log)
		go ops.WatchDB(ctx, 10*time.Second)
		go func() {
			log.Info("Starting gRPC ops server", zap.String("addr", cfg.GRPCPort))
			if err := ops.Server.Serve(lis); err != nil {
				log.Error("gRPC server failed", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Starting HTTP server", zap.String("addr", cfg.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-quit
	log.Info("Shutting down...")

	// hub.Close завершает открытые SSE-потоки до Shutdown
	scheduler.Stop()
	cancel()
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown", zap.Error(err))
	}
	if ops != nil {
		ops.Shutdown()
	}
	log.Info("Server stopped gracefully")
}

func maxID(ids []uint) uint {
	var m uint
	for _, id := range ids {
		if id > m {
			m = id
		}
	}
	return m
}
