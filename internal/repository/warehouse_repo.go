package repository

import (
	"context"

	"fulfillment-service/internal/models"

	"gorm.io/gorm"
)

type WarehouseRepo interface {
	List(ctx context.Context) ([]models.Warehouse, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

type warehouseRepo struct{ db *gorm.DB }

func NewWarehouseRepo(db *gorm.DB) WarehouseRepo { return &warehouseRepo{db: db} }

func (r *warehouseRepo) List(ctx context.Context) ([]models.Warehouse, error) {
	var list []models.Warehouse
	err := r.db.WithContext(ctx).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *warehouseRepo) Exists(ctx context.Context, id uint) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&models.Warehouse{}).Where("id = ?", id).Count(&cnt).Error
	return cnt > 0, err
}
