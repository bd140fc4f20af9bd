package repository

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	DB          *gorm.DB
	Products    ProductRepo
	Warehouses  WarehouseRepo
	Stock       StockRepo
	Instances   InstanceRepo
	Scans       ScanRepo
	Orders      OrderRepo
	OrderItems  OrderItemRepo
	Allocations AllocationRepo
	Workers     WorkerRepo
	Analytics   AnalyticsRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:          db,
		Products:    NewProductRepo(db),
		Warehouses:  NewWarehouseRepo(db),
		Stock:       NewStockRepo(db),
		Instances:   NewInstanceRepo(db),
		Scans:       NewScanRepo(db),
		Orders:      NewOrderRepo(db),
		OrderItems:  NewOrderItemRepo(db),
		Allocations: NewAllocationRepo(db),
		Workers:     NewWorkerRepo(db),
		Analytics:   NewAnalyticsRepo(db),
	}
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }

// WithTx выполняет fn в одной транзакции на весь набор репозиториев.
// Любая ошибка из fn откатывает все записи, сделанные через tx.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(buildRepository(tx))
	})
}
