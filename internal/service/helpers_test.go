package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"fulfillment-service/internal/migrate"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"
	"fulfillment-service/internal/service"
	"fulfillment-service/pkg/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingNotifier запоминает типы опубликованных событий.
type recordingNotifier struct {
	mu     sync.Mutex
	events []service.Event
}

func (n *recordingNotifier) Publish(_ context.Context, e service.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	n.events = nil
	n.mu.Unlock()
}

// memCache кэш аналитики в памяти.
type memCache struct {
	mu            sync.Mutex
	snap          *service.AnalyticsSnapshot
	invalidations int
}

func (c *memCache) Get(context.Context) (*service.AnalyticsSnapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap, c.snap != nil, nil
}

func (c *memCache) Set(_ context.Context, s *service.AnalyticsSnapshot) error {
	c.mu.Lock()
	c.snap = s
	c.mu.Unlock()
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.snap = nil
	c.invalidations++
	c.mu.Unlock()
	return nil
}

type env struct {
	repo      *repository.Repository
	ledger    service.StockLedger
	catalog   service.CatalogService
	orders    service.OrderService
	workers   service.WorkerService
	analytics service.AnalyticsService
	events    *recordingNotifier
	cache     *memCache
}

func setup(t *testing.T, policy service.DriftPolicy) *env {
	t.Helper()
	db := testutil.SetupTestPostgres(t)
	require.NoError(t, migrate.MigrateFulfillmentDB(context.Background(), db, zap.NewNop(), migrate.DefaultMigrateOptions()))

	e := &env{
		repo:   repository.New(db),
		events: &recordingNotifier{},
		cache:  &memCache{},
	}
	deps := service.Deps{Repo: e.repo, Notifier: e.events, Cache: e.cache, Log: zap.NewNop()}

	orders, err := service.NewOrderService(deps, service.OrderConfig{Priority: []uint{1, 2, 3}, DriftPolicy: policy})
	require.NoError(t, err)

	e.ledger = service.NewStockLedger(deps)
	e.catalog = service.NewCatalogService(deps, 1)
	e.orders = orders
	e.workers = service.NewWorkerService(deps)
	e.analytics = service.NewAnalyticsService(deps, 5)
	return e
}

func (e *env) product(t *testing.T, name string, price string) *models.Product {
	t.Helper()
	p, err := e.catalog.AddProductClass(context.Background(), service.ProductClassInput{
		Name:  name,
		Price: decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return p
}

func (e *env) stock(t *testing.T, productID, warehouseID uint, qty int64) {
	t.Helper()
	require.NoError(t, e.ledger.AddStock(context.Background(), service.AddStockInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    qty,
		Barcode:     fmt.Sprintf("STK-%d-%d", productID, warehouseID),
	}))
}

// levels возвращает общий остаток и разбивку по складам.
func (e *env) levels(t *testing.T, productID uint) (int64, map[uint]int64) {
	t.Helper()
	v, err := e.catalog.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return v.Quantity, v.StockBreakdown
}

func (e *env) allocations(t *testing.T, orderID uint) map[uint]int64 {
	t.Helper()
	list, err := e.repo.Allocations.ListByOrder(context.Background(), orderID)
	require.NoError(t, err)
	out := make(map[uint]int64, len(list))
	for _, a := range list {
		out[a.WarehouseID] += a.Quantity
	}
	return out
}

func (e *env) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.repo.DB.Model(model).Count(&n).Error)
	return n
}

func sum(m map[uint]int64) int64 {
	var s int64
	for _, v := range m {
		s += v
	}
	return s
}
