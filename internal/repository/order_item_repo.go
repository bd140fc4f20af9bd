package repository

import (
	"context"

	"fulfillment-service/internal/models"

	"gorm.io/gorm"
)

type OrderItemView struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
}

type OrderItemRepo interface {
	Create(ctx context.Context, it *models.OrderItem) error
	ListWithNames(ctx context.Context, orderID uint) ([]OrderItemView, error)
}

type orderItemRepo struct{ db *gorm.DB }

func NewOrderItemRepo(db *gorm.DB) OrderItemRepo { return &orderItemRepo{db: db} }

func (r *orderItemRepo) Create(ctx context.Context, it *models.OrderItem) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *orderItemRepo) ListWithNames(ctx context.Context, orderID uint) ([]OrderItemView, error) {
	var rows []OrderItemView
	err := r.db.WithContext(ctx).
		Table("order_items oi").
		Select("oi.product_id, p.name, oi.quantity").
		Joins("JOIN products p ON p.id = oi.product_id").
		Where("oi.order_id = ?", orderID).
		Order("oi.id ASC").
		Scan(&rows).Error
	return rows, err
}
