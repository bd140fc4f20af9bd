package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	topProductsLimit  = 5
	recentOrdersLimit = 5
	defaultLowStock   = 5
)

type analyticsService struct {
	base
	lowStock int64
}

func NewAnalyticsService(d Deps, lowStockThreshold int64) *analyticsService {
	if lowStockThreshold <= 0 {
		lowStockThreshold = defaultLowStock
	}
	return &analyticsService{base: newBase(d), lowStock: lowStockThreshold}
}

// Snapshot отдаёт агрегаты из кэша, если он есть, иначе считает их по БД.
// Ошибки кэша не фатальны.
func (s *analyticsService) Snapshot(ctx context.Context) (*AnalyticsSnapshot, error) {
	if s.cache != nil {
		snap, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn("кэш аналитики недоступен", zap.Error(err))
		} else if ok {
			return snap, nil
		}
	}

	snap, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, snap); err != nil {
			s.log.Warn("не удалось сохранить аналитику в кэш", zap.Error(err))
		}
	}
	return snap, nil
}

func (s *analyticsService) compute(ctx context.Context) (*AnalyticsSnapshot, error) {
	a := s.repo.Analytics
	var (
		snap AnalyticsSnapshot
		err  error
	)
	if snap.TotalOrders, err = a.CountOrders(ctx); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	if snap.TotalRevenue, err = a.Revenue(ctx); err != nil {
		return nil, fmt.Errorf("revenue: %w", err)
	}
	if snap.TopProducts, err = a.TopProducts(ctx, topProductsLimit); err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	if snap.RecentOrders, err = a.RecentOrders(ctx, recentOrdersLimit); err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	if snap.InventoryValue, err = a.InventoryValue(ctx); err != nil {
		return nil, fmt.Errorf("inventory value: %w", err)
	}
	if snap.LowStockCount, err = a.CountLowStock(ctx, s.lowStock); err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	return &snap, nil
}
