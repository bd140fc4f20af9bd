package repository

import (
	"context"
	"errors"

	"fulfillment-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AllocationView struct {
	ProductID      uint   `json:"product_id"`
	WarehouseID    uint   `json:"warehouse_id"`
	Name           string `json:"name"`
	Quantity       int64  `json:"quantity"`
	PickedQuantity int64  `json:"picked_quantity"`
}

type AllocationRepo interface {
	// Add накапливает количество в строке (order, product, warehouse).
	Add(ctx context.Context, orderID, productID, warehouseID uint, qty int64) error
	GetForUpdate(ctx context.Context, orderID, productID, warehouseID uint) (*models.OrderItemAllocation, error)
	IncrementPicked(ctx context.Context, id uint) (bool, error)
	ListByOrder(ctx context.Context, orderID uint) ([]models.OrderItemAllocation, error)
	ListWithNames(ctx context.Context, orderID uint) ([]AllocationView, error)
}

type allocationRepo struct{ db *gorm.DB }

func NewAllocationRepo(db *gorm.DB) AllocationRepo { return &allocationRepo{db: db} }

func (r *allocationRepo) Add(ctx context.Context, orderID, productID, warehouseID uint, qty int64) error {
	row := models.OrderItemAllocation{
		OrderID:     orderID,
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    qty,
	}
	return r.db.WithContext(ctx).
		Select("order_id", "product_id", "warehouse_id", "quantity", "picked_quantity").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "order_id"}, {Name: "product_id"}, {Name: "warehouse_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("order_item_allocations.quantity + ?", qty),
			}),
		}).
		Create(&row).Error
}

func (r *allocationRepo) GetForUpdate(ctx context.Context, orderID, productID, warehouseID uint) (*models.OrderItemAllocation, error) {
	var a models.OrderItemAllocation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, "order_id = ? AND product_id = ? AND warehouse_id = ?", orderID, productID, warehouseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *allocationRepo) IncrementPicked(ctx context.Context, id uint) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE order_item_allocations
SET picked_quantity = picked_quantity + 1
WHERE id = @id
  AND picked_quantity < quantity
`, map[string]any{"id": id})
	return tx.RowsAffected > 0, tx.Error
}

func (r *allocationRepo) ListByOrder(ctx context.Context, orderID uint) ([]models.OrderItemAllocation, error) {
	var list []models.OrderItemAllocation
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *allocationRepo) ListWithNames(ctx context.Context, orderID uint) ([]AllocationView, error) {
	var rows []AllocationView
	err := r.db.WithContext(ctx).
		Table("order_item_allocations a").
		Select("a.product_id, a.warehouse_id, p.name, a.quantity, a.picked_quantity").
		Joins("JOIN products p ON p.id = a.product_id").
		Where("a.order_id = ?", orderID).
		Order("a.warehouse_id ASC, a.id ASC").
		Scan(&rows).Error
	return rows, err
}
