package repository

import (
	"context"
	"errors"
	"time"

	"fulfillment-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderSummary struct {
	ID           uint               `json:"id"`
	BusinessName string             `json:"business_name"`
	Timestamp    time.Time          `json:"timestamp"`
	Status       models.OrderStatus `json:"status"`
	WorkerName   *string            `json:"worker_name"`
	ItemCount    int64              `json:"item_count"`
	TotalQty     int64              `json:"total_qty"`
}

type OrderRepo interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Order, error)
	// UpdateStatus для COMPLETED проставляет completed_at, для остальных
	// статусов оставляет прежнего работника, если новый не передан.
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, workerName *string, at time.Time) (bool, error)
	List(ctx context.Context) ([]OrderSummary, error)
	ListActive(ctx context.Context, warehouseID *uint) ([]OrderSummary, error)
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) OrderRepo { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, workerName *string, at time.Time) (bool, error) {
	var tx *gorm.DB
	if status == models.OrderCompleted {
		tx = r.db.WithContext(ctx).Exec(`
UPDATE orders
SET status = @status,
    completed_at = @at,
    worker_name = COALESCE(@worker, worker_name)
WHERE id = @id
`, map[string]any{
			"id":     id,
			"status": string(status),
			"at":     at,
			"worker": workerName,
		})
	} else {
		tx = r.db.WithContext(ctx).Exec(`
UPDATE orders
SET status = @status,
    completed_at = NULL,
    worker_name = COALESCE(@worker, worker_name)
WHERE id = @id
`, map[string]any{
			"id":     id,
			"status": string(status),
			"worker": workerName,
		})
	}
	return tx.RowsAffected > 0, tx.Error
}

func (r *orderRepo) List(ctx context.Context) ([]OrderSummary, error) {
	var rows []OrderSummary
	err := r.db.WithContext(ctx).Raw(`
SELECT o.id, o.business_name, o.timestamp, o.status, o.worker_name,
       COUNT(oi.id) AS item_count,
       COALESCE(SUM(oi.quantity), 0) AS total_qty
FROM orders o
LEFT JOIN order_items oi ON oi.order_id = o.id
GROUP BY o.id
ORDER BY o.timestamp DESC, o.id DESC
`).Scan(&rows).Error
	return rows, err
}

func (r *orderRepo) ListActive(ctx context.Context, warehouseID *uint) ([]OrderSummary, error) {
	var rows []OrderSummary
	if warehouseID != nil {
		// В разрезе склада считаем строки распределения, а не позиции заказа.
		err := r.db.WithContext(ctx).Raw(`
SELECT o.id, o.business_name, o.timestamp, o.status, o.worker_name,
       COUNT(a.id) AS item_count,
       COALESCE(SUM(a.quantity), 0) AS total_qty
FROM orders o
JOIN order_item_allocations a ON a.order_id = o.id
WHERE o.status IN ('PENDING', 'PROCESSING')
  AND a.warehouse_id = ?
GROUP BY o.id
ORDER BY o.timestamp ASC, o.id ASC
`, *warehouseID).Scan(&rows).Error
		return rows, err
	}
	err := r.db.WithContext(ctx).Raw(`
SELECT o.id, o.business_name, o.timestamp, o.status, o.worker_name,
       COUNT(oi.id) AS item_count,
       COALESCE(SUM(oi.quantity), 0) AS total_qty
FROM orders o
LEFT JOIN order_items oi ON oi.order_id = o.id
WHERE o.status IN ('PENDING', 'PROCESSING')
GROUP BY o.id
ORDER BY o.timestamp ASC, o.id ASC
`).Scan(&rows).Error
	return rows, err
}
