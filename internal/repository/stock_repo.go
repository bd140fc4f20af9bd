package repository

import (
	"context"
	"errors"

	"fulfillment-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DriftRow: товар, у которого кэш общего остатка разошёлся с суммой по складам.
type DriftRow struct {
	ProductID      uint
	TotalQuantity  int64
	WarehouseTotal int64
}

func (d DriftRow) Diff() int64 { return d.TotalQuantity - d.WarehouseTotal }

type StockRepo interface {
	// Upsert прибавляет delta к остатку; если строки нет, создаёт её с quantity = delta.
	Upsert(ctx context.Context, productID, warehouseID uint, delta int64) error
	GetForUpdate(ctx context.Context, productID, warehouseID uint) (*models.WarehouseStock, error)
	Decrement(ctx context.Context, productID, warehouseID uint, qty int64) (bool, error)
	EnsureRow(ctx context.Context, productID, warehouseID uint) error
	ListByProduct(ctx context.Context, productID uint) ([]models.WarehouseStock, error)
	ListAll(ctx context.Context) ([]models.WarehouseStock, error)
	ListDrift(ctx context.Context) ([]DriftRow, error)
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepo(db *gorm.DB) StockRepo { return &stockRepo{db: db} }

func (r *stockRepo) Upsert(ctx context.Context, productID, warehouseID uint, delta int64) error {
	row := models.WarehouseStock{ProductID: productID, WarehouseID: warehouseID, Quantity: delta}
	return r.db.WithContext(ctx).
		Select("product_id", "warehouse_id", "quantity").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("warehouse_stock.quantity + ?", delta),
			}),
		}).
		Create(&row).Error
}

func (r *stockRepo) GetForUpdate(ctx context.Context, productID, warehouseID uint) (*models.WarehouseStock, error) {
	var ws models.WarehouseStock
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ws, "product_id = ? AND warehouse_id = ?", productID, warehouseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *stockRepo) Decrement(ctx context.Context, productID, warehouseID uint, qty int64) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE warehouse_stock
SET quantity = quantity - @q
WHERE product_id = @pid
  AND warehouse_id = @wid
`, map[string]any{
		"pid": productID,
		"wid": warehouseID,
		"q":   qty,
	})
	return tx.RowsAffected > 0, tx.Error
}

func (r *stockRepo) EnsureRow(ctx context.Context, productID, warehouseID uint) error {
	row := models.WarehouseStock{ProductID: productID, WarehouseID: warehouseID}
	return r.db.WithContext(ctx).
		Select("product_id", "warehouse_id", "quantity").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

func (r *stockRepo) ListByProduct(ctx context.Context, productID uint) ([]models.WarehouseStock, error) {
	var list []models.WarehouseStock
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("warehouse_id ASC").Find(&list).Error
	return list, err
}

func (r *stockRepo) ListAll(ctx context.Context) ([]models.WarehouseStock, error) {
	var list []models.WarehouseStock
	err := r.db.WithContext(ctx).Order("product_id ASC, warehouse_id ASC").Find(&list).Error
	return list, err
}

func (r *stockRepo) ListDrift(ctx context.Context) ([]DriftRow, error) {
	var rows []DriftRow
	err := r.db.WithContext(ctx).Raw(`
SELECT p.id AS product_id,
       p.quantity AS total_quantity,
       COALESCE(SUM(ws.quantity), 0) AS warehouse_total
FROM products p
LEFT JOIN warehouse_stock ws ON ws.product_id = p.id
GROUP BY p.id, p.quantity
HAVING p.quantity <> COALESCE(SUM(ws.quantity), 0)
ORDER BY p.id ASC
`).Scan(&rows).Error
	return rows, err
}
