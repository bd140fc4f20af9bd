package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fulfillment-service/pkg/database"

	"go.uber.org/zap"
)

type Config struct {
	Env       string
	Port      string
	GRPCPort  string
	LogFile   string
	DB        DB
	Redis     Redis
	Kafka     Kafka
	Warehouse Warehouse
	Scanner   Scanner
	UploadDir string

	ReconcileInterval time.Duration
}

type DB struct {
	database.Config
}

type Redis struct {
	Enabled    bool
	Addr       string
	Password   string
	DB         int
	TTLSeconds int
}

type Kafka struct {
	Brokers     []string
	EventsTopic string
}

// Enabled: без брокеров события уходят только в SSE.
func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 && k.EventsTopic != "" }

type Warehouse struct {
	Priority          []uint
	DriftPolicy       string
	LowStockThreshold int64
}

type Scanner struct {
	Device string
}

func Load(log *zap.Logger) *Config {
	priority, err := parsePriority(envDefault("WAREHOUSE_PRIORITY", "1,2,3"))
	if err != nil {
		log.Error("Некорректный порядок складов", zap.Error(err))
		panic("invalid WAREHOUSE_PRIORITY: " + err.Error())
	}

	return &Config{
		Env:      envDefault("ENV", "development"),
		Port:     getEnv("APP_PORT", log),
		GRPCPort: envDefault("GRPC_PORT", ""),
		LogFile:  envDefault("LOG_FILE", ""),
		DB: DB{
			Config: database.Config{
				Host:            getEnv("DB_HOST", log),
				Port:            getEnv("DB_PORT", log),
				User:            getEnv("DB_USER", log),
				Password:        getEnv("DB_PASSWORD", log),
				Name:            getEnv("DB_NAME", log),
				SSLMode:         envDefault("DB_SSLMODE", "disable"),
				MaxOpenConns:    atoiDefault(envDefault("DB_MAX_OPEN_CONNS", ""), 25),
				MaxIdleConns:    atoiDefault(envDefault("DB_MAX_IDLE_CONNS", ""), 10),
				ConnMaxLifetime: parseDurationWithDays(envDefault("DB_CONN_MAX_LIFETIME", "1h")),
			},
		},
		Redis: Redis{
			Enabled:    envDefault("REDIS_ENABLED", "false") == "true",
			Addr:       envDefault("REDIS_ADDR", "localhost:6379"),
			Password:   envDefault("REDIS_PASSWORD", ""),
			DB:         atoiDefault(envDefault("REDIS_DB", ""), 0),
			TTLSeconds: atoiDefault(envDefault("CACHE_TTL_SECONDS", ""), 30),
		},
		Kafka: Kafka{
			Brokers:     splitAndTrim(envDefault("KAFKA_BROKERS", "")),
			EventsTopic: envDefault("KAFKA_TOPIC_EVENTS", "fulfillment.events"),
		},
		Warehouse: Warehouse{
			Priority:          priority,
			DriftPolicy:       envDefault("DRIFT_POLICY", "compensate"),
			LowStockThreshold: int64(atoiDefault(envDefault("LOW_STOCK_THRESHOLD", ""), 5)),
		},
		Scanner: Scanner{
			Device: envDefault("SCANNER_DEVICE", ""),
		},
		UploadDir:         envDefault("UPLOAD_DIR", "uploads"),
		ReconcileInterval: parseDurationWithDays(envDefault("RECONCILE_INTERVAL", "15m")),
	}
}

func (c *Config) IsDev() bool { return c.Env != "production" }

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func envDefault(key, def string) string {
	if val, exists := os.LookupEnv(key); exists && strings.TrimSpace(val) != "" {
		return val
	}
	return def
}

func parsePriority(s string) ([]uint, error) {
	parts := splitAndTrim(s)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty warehouse priority")
	}
	out := make([]uint, 0, len(parts))
	seen := make(map[uint]bool, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("bad warehouse id %q", p)
		}
		id := uint(n)
		if seen[id] {
			return nil, fmt.Errorf("duplicate warehouse id %d", id)
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func parseDurationWithDays(s string) time.Duration {
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0
		}
		return time.Duration(days) * 24 * time.Hour
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return duration
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func splitAndTrim(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
