package repository

import (
	"context"
	"errors"

	"fulfillment-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InstanceRepo interface {
	BulkCreate(ctx context.Context, items []models.ItemInstance) error
	// FindForPick ищет единицу по штрихкоду строго в пределах склада.
	// Единицы "In Stock" имеют приоритет над уже собранными.
	FindForPick(ctx context.Context, barcode string, warehouseID uint) (*models.ItemInstance, error)
	MarkPicked(ctx context.Context, id uint, note string) (bool, error)
	ListByProduct(ctx context.Context, productID uint) ([]models.ItemInstance, error)
}

type instanceRepo struct{ db *gorm.DB }

func NewInstanceRepo(db *gorm.DB) InstanceRepo { return &instanceRepo{db: db} }

func (r *instanceRepo) BulkCreate(ctx context.Context, items []models.ItemInstance) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&items, 500).Error
}

func (r *instanceRepo) FindForPick(ctx context.Context, barcode string, warehouseID uint) (*models.ItemInstance, error) {
	var it models.ItemInstance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("barcode = ? AND warehouse_id = ?", barcode, warehouseID).
		Order("CASE WHEN status = 'In Stock' THEN 0 ELSE 1 END, id ASC").
		Take(&it).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *instanceRepo) MarkPicked(ctx context.Context, id uint, note string) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.ItemInstance{}).
		Where("id = ? AND status = ?", id, models.InstanceInStock).
		Updates(map[string]any{
			"status": models.InstancePicked,
			"notes":  note,
		})
	return tx.RowsAffected > 0, tx.Error
}

func (r *instanceRepo) ListByProduct(ctx context.Context, productID uint) ([]models.ItemInstance, error) {
	var list []models.ItemInstance
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("scan_time DESC, id DESC").
		Find(&list).Error
	return list, err
}
