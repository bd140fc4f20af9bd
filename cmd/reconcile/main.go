package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"fulfillment-service/config"
	"fulfillment-service/internal/cache"
	"fulfillment-service/internal/reconcile"
	"fulfillment-service/internal/repository"
	"fulfillment-service/pkg/database"
	"fulfillment-service/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	isDev := os.Getenv("ENV") != "production"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.L()
	cfg := config.Load(log)

	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	var inv reconcile.Invalidator
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSeconds)*time.Second, log)
		if err != nil {
			log.Warn("redis unavailable, analytics cache will expire by TTL", zap.Error(err))
		} else {
			defer rc.Close()
			inv = rc
		}
	}

	svc := reconcile.NewService(repository.New(db), cfg.Warehouse.Priority[0], inv, log)
	ctx := context.Background()

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/reconcile/main.go [check|repair]")
		fmt.Println("  check  - report products whose total differs from warehouse sum")
		fmt.Println("  repair - fold the difference into the first-priority warehouse")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "check":
		rows, err := svc.DetectDrift(ctx)
		if err != nil {
			log.Fatal("failed to detect drift", zap.Error(err))
		}
		log.Info("drift check completed", zap.Int("drifted", len(rows)))
	case "repair":
		rep, err := svc.RepairDrift(ctx)
		if err != nil {
			log.Fatal("failed to repair drift", zap.Error(err))
		}
		log.Info("drift repair completed",
			zap.Int("repaired", len(rep.Repaired)),
			zap.Int("rows_ensured", rep.RowsEnsure))
	default:
		fmt.Printf("unknown command %q\n", os.Args[1])
		os.Exit(1)
	}
}
