package service

import (
	"context"
	"fmt"
	"strings"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"

	"github.com/shopspring/decimal"
)

type DriftPolicy string

const (
	// DriftCompensate списывает остаток с первого по приоритету склада, даже в минус.
	DriftCompensate DriftPolicy = "compensate"
	DriftReject     DriftPolicy = "reject"
)

func ParseDriftPolicy(s string) (DriftPolicy, error) {
	switch DriftPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DriftCompensate:
		return DriftCompensate, nil
	case DriftReject:
		return DriftReject, nil
	}
	return "", fmt.Errorf("unknown drift policy %q", s)
}

type AddStockInput struct {
	ProductID   uint
	WarehouseID uint
	Quantity    int64
	Barcode     string
}

type ProductClassInput struct {
	Name        string
	Price       decimal.Decimal
	Description string
	Category    string
	PackSize    int32
	ImagePath   *string
}

type RegisterInstancesInput struct {
	ProductID   uint
	Barcode     string
	Quantity    int64
	Notes       string
	WarehouseID uint // 0 означает первый склад по приоритету
}

type OrderLine struct {
	ProductID uint
	Quantity  int64
}

type CreateOrderInput struct {
	BusinessName string
	Items        []OrderLine
}

type PickInput struct {
	OrderID     uint
	WarehouseID uint
	Barcode     string
	WorkerName  string
}

type PickResult struct {
	OrderID        uint   `json:"order_id"`
	ProductID      uint   `json:"product_id"`
	WarehouseID    uint   `json:"warehouse_id"`
	InstanceID     uint   `json:"instance_id"`
	PickedQuantity int64  `json:"picked_quantity"`
	Quantity       int64  `json:"quantity"`
	Message        string `json:"message"`
}

type ProductView struct {
	models.Product
	StockBreakdown map[uint]int64 `json:"stock_breakdown"`
}

type OrderDetails struct {
	Order       *models.Order               `json:"order"`
	Items       []repository.OrderItemView  `json:"items"`
	Allocations []repository.AllocationView `json:"allocations"`
}

type AnalyticsSnapshot struct {
	TotalOrders    int64                    `json:"total_orders"`
	TotalRevenue   decimal.Decimal          `json:"total_revenue"`
	TopProducts    []repository.TopProduct  `json:"top_products"`
	RecentOrders   []repository.RecentOrder `json:"recent_orders"`
	InventoryValue decimal.Decimal          `json:"inventory_value"`
	LowStockCount  int64                    `json:"low_stock_count"`
}

type StockLedger interface {
	AddStock(ctx context.Context, in AddStockInput) error
	AdjustStock(ctx context.Context, productID, warehouseID uint, delta int64) error
	LogScan(ctx context.Context, barcode string, quantity int64) error
	ScanHistory(ctx context.Context, limit int) ([]repository.ScanHistoryRow, error)
}

type CatalogService interface {
	AddProductClass(ctx context.Context, in ProductClassInput) (*models.Product, error)
	ImportProducts(ctx context.Context, in []ProductClassInput) (int, error)
	ListProducts(ctx context.Context) ([]ProductView, error)
	GetProduct(ctx context.Context, id uint) (*ProductView, error)
	ListWarehouses(ctx context.Context) ([]models.Warehouse, error)
	RegisterInstances(ctx context.Context, in RegisterInstancesInput) (int64, error)
	ListInstances(ctx context.Context, productID uint) ([]models.ItemInstance, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error)
	RecordPick(ctx context.Context, in PickInput) (*PickResult, error)
	UpdateOrderStatus(ctx context.Context, orderID uint, status models.OrderStatus, workerName *string) (*models.Order, error)
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	ListOrders(ctx context.Context) ([]repository.OrderSummary, error)
	ListActiveOrders(ctx context.Context, warehouseID *uint) ([]repository.OrderSummary, error)
	OrderDetails(ctx context.Context, id uint) (*OrderDetails, error)
}

type WorkerService interface {
	ListWorkers(ctx context.Context) ([]models.Worker, error)
	AddWorker(ctx context.Context, name string) (*models.Worker, error)
	DeleteWorker(ctx context.Context, id uint) error
}

type AnalyticsService interface {
	Snapshot(ctx context.Context) (*AnalyticsSnapshot, error)
}
