package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TopProduct struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	TotalSold int64  `json:"total_sold"`
}

type RecentOrder struct {
	ID           uint      `json:"id"`
	BusinessName string    `json:"business_name"`
	Timestamp    time.Time `json:"timestamp"`
}

type AnalyticsRepo interface {
	CountOrders(ctx context.Context) (int64, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error)
	InventoryValue(ctx context.Context) (decimal.Decimal, error)
	CountLowStock(ctx context.Context, threshold int64) (int64, error)
}

type analyticsRepo struct{ db *gorm.DB }

func NewAnalyticsRepo(db *gorm.DB) AnalyticsRepo { return &analyticsRepo{db: db} }

func (r *analyticsRepo) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("orders").Count(&n).Error
	return n, err
}

func (r *analyticsRepo) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var out struct{ Revenue decimal.Decimal }
	err := r.db.WithContext(ctx).Raw(`
SELECT COALESCE(SUM(oi.quantity * p.price), 0) AS revenue
FROM order_items oi
JOIN products p ON p.id = oi.product_id
`).Scan(&out).Error
	return out.Revenue, err
}

func (r *analyticsRepo) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	var rows []TopProduct
	err := r.db.WithContext(ctx).Raw(`
SELECT p.id AS product_id, p.name, SUM(oi.quantity) AS total_sold
FROM order_items oi
JOIN products p ON p.id = oi.product_id
GROUP BY p.id, p.name
ORDER BY total_sold DESC, p.id ASC
LIMIT ?
`, limit).Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepo) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	var rows []RecentOrder
	err := r.db.WithContext(ctx).
		Table("orders").
		Select("id, business_name, timestamp").
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepo) InventoryValue(ctx context.Context) (decimal.Decimal, error) {
	var out struct{ Value decimal.Decimal }
	err := r.db.WithContext(ctx).Raw(`
SELECT COALESCE(SUM(price * quantity * pack_size), 0) AS value
FROM products
`).Scan(&out).Error
	return out.Value, err
}

func (r *analyticsRepo) CountLowStock(ctx context.Context, threshold int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("products").Where("quantity < ?", threshold).Count(&n).Error
	return n, err
}
