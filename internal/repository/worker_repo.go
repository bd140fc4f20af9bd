package repository

import (
	"context"
	"time"

	"fulfillment-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkerRepo interface {
	List(ctx context.Context) ([]models.Worker, error)
	// Create возвращает false, если работник с таким именем уже есть.
	Create(ctx context.Context, w *models.Worker) (bool, error)
	Delete(ctx context.Context, id uint) (bool, error)
	TouchByName(ctx context.Context, name string, at time.Time) (bool, error)
}

type workerRepo struct{ db *gorm.DB }

func NewWorkerRepo(db *gorm.DB) WorkerRepo { return &workerRepo{db: db} }

func (r *workerRepo) List(ctx context.Context) ([]models.Worker, error) {
	var list []models.Worker
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

func (r *workerRepo) Create(ctx context.Context, w *models.Worker) (bool, error) {
	tx := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(w)
	return tx.RowsAffected > 0, tx.Error
}

func (r *workerRepo) Delete(ctx context.Context, id uint) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.Worker{}, id)
	return tx.RowsAffected > 0, tx.Error
}

func (r *workerRepo) TouchByName(ctx context.Context, name string, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE workers
SET last_active = @at
WHERE name = @name
`, map[string]any{
		"name": name,
		"at":   at,
	})
	return tx.RowsAffected > 0, tx.Error
}
