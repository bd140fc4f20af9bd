package router_test

import (
	"context"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"
	"fulfillment-service/internal/service"
)

// Моки сервисов: незаданная функция возвращает нулевой результат.

type MockLedger struct {
	AddStockFunc    func(ctx context.Context, in service.AddStockInput) error
	AdjustStockFunc func(ctx context.Context, productID, warehouseID uint, delta int64) error
	LogScanFunc     func(ctx context.Context, barcode string, quantity int64) error
	ScanHistoryFunc func(ctx context.Context, limit int) ([]repository.ScanHistoryRow, error)
}

func (m *MockLedger) AddStock(ctx context.Context, in service.AddStockInput) error {
	if m.AddStockFunc != nil {
		return m.AddStockFunc(ctx, in)
	}
	return nil
}

func (m *MockLedger) AdjustStock(ctx context.Context, productID, warehouseID uint, delta int64) error {
	if m.AdjustStockFunc != nil {
		return m.AdjustStockFunc(ctx, productID, warehouseID, delta)
	}
	return nil
}

func (m *MockLedger) LogScan(ctx context.Context, barcode string, quantity int64) error {
	if m.LogScanFunc != nil {
		return m.LogScanFunc(ctx, barcode, quantity)
	}
	return nil
}

func (m *MockLedger) ScanHistory(ctx context.Context, limit int) ([]repository.ScanHistoryRow, error) {
	if m.ScanHistoryFunc != nil {
		return m.ScanHistoryFunc(ctx, limit)
	}
	return nil, nil
}

type MockCatalog struct {
	AddProductClassFunc   func(ctx context.Context, in service.ProductClassInput) (*models.Product, error)
	ImportProductsFunc    func(ctx context.Context, in []service.ProductClassInput) (int, error)
	ListProductsFunc      func(ctx context.Context) ([]service.ProductView, error)
	GetProductFunc        func(ctx context.Context, id uint) (*service.ProductView, error)
	ListWarehousesFunc    func(ctx context.Context) ([]models.Warehouse, error)
	RegisterInstancesFunc func(ctx context.Context, in service.RegisterInstancesInput) (int64, error)
	ListInstancesFunc     func(ctx context.Context, productID uint) ([]models.ItemInstance, error)
}

func (m *MockCatalog) AddProductClass(ctx context.Context, in service.ProductClassInput) (*models.Product, error) {
	if m.AddProductClassFunc != nil {
		return m.AddProductClassFunc(ctx, in)
	}
	return &models.Product{Name: in.Name}, nil
}

func (m *MockCatalog) ImportProducts(ctx context.Context, in []service.ProductClassInput) (int, error) {
	if m.ImportProductsFunc != nil {
		return m.ImportProductsFunc(ctx, in)
	}
	return len(in), nil
}

func (m *MockCatalog) ListProducts(ctx context.Context) ([]service.ProductView, error) {
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx)
	}
	return nil, nil
}

func (m *MockCatalog) GetProduct(ctx context.Context, id uint) (*service.ProductView, error) {
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, id)
	}
	return nil, service.ErrProductNotFound
}

func (m *MockCatalog) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	if m.ListWarehousesFunc != nil {
		return m.ListWarehousesFunc(ctx)
	}
	return nil, nil
}

func (m *MockCatalog) RegisterInstances(ctx context.Context, in service.RegisterInstancesInput) (int64, error) {
	if m.RegisterInstancesFunc != nil {
		return m.RegisterInstancesFunc(ctx, in)
	}
	return in.Quantity, nil
}

func (m *MockCatalog) ListInstances(ctx context.Context, productID uint) ([]models.ItemInstance, error) {
	if m.ListInstancesFunc != nil {
		return m.ListInstancesFunc(ctx, productID)
	}
	return nil, nil
}

type MockOrders struct {
	CreateOrderFunc       func(ctx context.Context, in service.CreateOrderInput) (*models.Order, error)
	RecordPickFunc        func(ctx context.Context, in service.PickInput) (*service.PickResult, error)
	UpdateOrderStatusFunc func(ctx context.Context, orderID uint, status models.OrderStatus, workerName *string) (*models.Order, error)
	GetOrderFunc          func(ctx context.Context, id uint) (*models.Order, error)
	ListOrdersFunc        func(ctx context.Context) ([]repository.OrderSummary, error)
	ListActiveOrdersFunc  func(ctx context.Context, warehouseID *uint) ([]repository.OrderSummary, error)
	OrderDetailsFunc      func(ctx context.Context, id uint) (*service.OrderDetails, error)
}

func (m *MockOrders) CreateOrder(ctx context.Context, in service.CreateOrderInput) (*models.Order, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, in)
	}
	return &models.Order{ID: 1, BusinessName: in.BusinessName, Status: models.OrderPending}, nil
}

func (m *MockOrders) RecordPick(ctx context.Context, in service.PickInput) (*service.PickResult, error) {
	if m.RecordPickFunc != nil {
		return m.RecordPickFunc(ctx, in)
	}
	return &service.PickResult{OrderID: in.OrderID}, nil
}

func (m *MockOrders) UpdateOrderStatus(ctx context.Context, orderID uint, status models.OrderStatus, workerName *string) (*models.Order, error) {
	if m.UpdateOrderStatusFunc != nil {
		return m.UpdateOrderStatusFunc(ctx, orderID, status, workerName)
	}
	return &models.Order{ID: orderID, Status: status}, nil
}

func (m *MockOrders) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	if m.GetOrderFunc != nil {
		return m.GetOrderFunc(ctx, id)
	}
	return nil, service.ErrOrderNotFound
}

func (m *MockOrders) ListOrders(ctx context.Context) ([]repository.OrderSummary, error) {
	if m.ListOrdersFunc != nil {
		return m.ListOrdersFunc(ctx)
	}
	return nil, nil
}

func (m *MockOrders) ListActiveOrders(ctx context.Context, warehouseID *uint) ([]repository.OrderSummary, error) {
	if m.ListActiveOrdersFunc != nil {
		return m.ListActiveOrdersFunc(ctx, warehouseID)
	}
	return nil, nil
}

func (m *MockOrders) OrderDetails(ctx context.Context, id uint) (*service.OrderDetails, error) {
	if m.OrderDetailsFunc != nil {
		return m.OrderDetailsFunc(ctx, id)
	}
	return nil, service.ErrOrderNotFound
}

type MockWorkers struct {
	ListWorkersFunc  func(ctx context.Context) ([]models.Worker, error)
	AddWorkerFunc    func(ctx context.Context, name string) (*models.Worker, error)
	DeleteWorkerFunc func(ctx context.Context, id uint) error
}

func (m *MockWorkers) ListWorkers(ctx context.Context) ([]models.Worker, error) {
	if m.ListWorkersFunc != nil {
		return m.ListWorkersFunc(ctx)
	}
	return nil, nil
}

func (m *MockWorkers) AddWorker(ctx context.Context, name string) (*models.Worker, error) {
	if m.AddWorkerFunc != nil {
		return m.AddWorkerFunc(ctx, name)
	}
	return &models.Worker{ID: 1, Name: name, Status: "Active"}, nil
}

func (m *MockWorkers) DeleteWorker(ctx context.Context, id uint) error {
	if m.DeleteWorkerFunc != nil {
		return m.DeleteWorkerFunc(ctx, id)
	}
	return nil
}

type MockAnalytics struct {
	SnapshotFunc func(ctx context.Context) (*service.AnalyticsSnapshot, error)
}

func (m *MockAnalytics) Snapshot(ctx context.Context) (*service.AnalyticsSnapshot, error) {
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc(ctx)
	}
	return &service.AnalyticsSnapshot{}, nil
}

// MockEvents отдаёт один управляемый тестом канал.
type MockEvents struct {
	ch        chan service.Event
	cancelled chan struct{}
}

func newMockEvents() *MockEvents {
	return &MockEvents{ch: make(chan service.Event, 4), cancelled: make(chan struct{})}
}

func (m *MockEvents) Subscribe() (<-chan service.Event, func()) {
	return m.ch, func() { close(m.cancelled) }
}
