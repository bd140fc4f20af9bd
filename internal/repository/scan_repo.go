package repository

import (
	"context"
	"time"

	"fulfillment-service/internal/models"

	"gorm.io/gorm"
)

type ScanHistoryRow struct {
	Barcode       string    `json:"barcode"`
	Timestamp     time.Time `json:"timestamp"`
	Name          *string   `json:"name"`
	ScannedAmount int64     `json:"scanned_amount"`
}

type ScanRepo interface {
	Create(ctx context.Context, s *models.Scan) error
	History(ctx context.Context, limit int) ([]ScanHistoryRow, error)
}

type scanRepo struct{ db *gorm.DB }

func NewScanRepo(db *gorm.DB) ScanRepo { return &scanRepo{db: db} }

func (r *scanRepo) Create(ctx context.Context, s *models.Scan) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *scanRepo) History(ctx context.Context, limit int) ([]ScanHistoryRow, error) {
	if limit <= 0 {
		limit = 50
	}
	// Один штрихкод может стоять на нескольких единицах, берём имя по первой.
	var rows []ScanHistoryRow
	err := r.db.WithContext(ctx).Raw(`
SELECT s.barcode, s.timestamp, pn.name, s.quantity AS scanned_amount
FROM scans s
LEFT JOIN LATERAL (
	SELECT p.name
	FROM item_instances i
	JOIN products p ON p.id = i.product_id
	WHERE i.barcode = s.barcode
	ORDER BY i.id ASC
	LIMIT 1
) pn ON true
ORDER BY s.timestamp DESC, s.id DESC
LIMIT ?
`, limit).Scan(&rows).Error
	return rows, err
}
