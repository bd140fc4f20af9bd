package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fulfillment-service/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const analyticsKey = "fulfillment:analytics:snapshot"

type RedisClient struct {
	client *redis.Client
	log    *zap.Logger
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int, ttl time.Duration, log *zap.Logger) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Redis connected successfully", zap.String("addr", addr))

	return newWithClient(rdb, ttl, log), nil
}

func newWithClient(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *RedisClient {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisClient{client: rdb, log: log, ttl: ttl}
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get возвращает ok=false, если снимка нет или он протух.
func (r *RedisClient) Get(ctx context.Context) (*service.AnalyticsSnapshot, bool, error) {
	raw, err := r.client.Get(ctx, analyticsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var snap service.AnalyticsSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// битый снимок просто выкидываем
		r.log.Warn("некорректный снимок аналитики в кэше", zap.Error(err))
		_ = r.client.Del(ctx, analyticsKey).Err()
		return nil, false, nil
	}
	return &snap, true, nil
}

func (r *RedisClient) Set(ctx context.Context, snap *service.AnalyticsSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, analyticsKey, raw, r.ttl).Err()
}

func (r *RedisClient) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, analyticsKey).Err()
}
