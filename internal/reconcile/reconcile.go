package reconcile

import (
	"context"
	"fmt"
	"slices"

	"fulfillment-service/internal/repository"

	"go.uber.org/zap"
)

// Invalidator сбрасывает производные данные после ремонта (кэш аналитики).
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Report struct {
	Repaired   []repository.DriftRow
	RowsEnsure int
}

// Service сверяет кэш общего остатка товара с суммой по складам.
type Service struct {
	repo  *repository.Repository
	first uint
	inv   Invalidator
	log   *zap.Logger
}

func NewService(repo *repository.Repository, firstWarehouse uint, inv Invalidator, log *zap.Logger) *Service {
	if firstWarehouse == 0 {
		firstWarehouse = 1
	}
	return &Service{repo: repo, first: firstWarehouse, inv: inv, log: log}
}

// DetectDrift только читает и логирует расхождения.
func (s *Service) DetectDrift(ctx context.Context) ([]repository.DriftRow, error) {
	rows, err := s.repo.Stock.ListDrift(ctx)
	if err != nil {
		s.log.Error("failed to detect stock drift", zap.Error(err))
		return nil, err
	}
	for _, d := range rows {
		s.log.Warn("stock drift detected",
			zap.Uint("product_id", d.ProductID),
			zap.Int64("total", d.TotalQuantity),
			zap.Int64("warehouse_total", d.WarehouseTotal),
			zap.Int64("diff", d.Diff()),
		)
	}
	return rows, nil
}

// RepairDrift доводит сумму по складам до общего остатка: разница уходит
// на первый по приоритету склад. Заодно для каждого товара заводятся
// нулевые строки на всех складах.
func (s *Service) RepairDrift(ctx context.Context) (*Report, error) {
	rep := &Report{}
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		drift, err := tx.Stock.ListDrift(ctx)
		if err != nil {
			return fmt.Errorf("list drift: %w", err)
		}
		if len(drift) > 0 {
			ids := make([]uint, 0, len(drift))
			for _, d := range drift {
				ids = append(ids, d.ProductID)
			}
			slices.Sort(ids)
			if _, err := tx.Products.LockByIDs(ctx, ids); err != nil {
				return fmt.Errorf("lock products: %w", err)
			}
			// после блокировки пересчитываем, заказ мог успеть поменять остатки
			if drift, err = tx.Stock.ListDrift(ctx); err != nil {
				return fmt.Errorf("list drift: %w", err)
			}
		}

		for _, d := range drift {
			if err := tx.Stock.Upsert(ctx, d.ProductID, s.first, d.Diff()); err != nil {
				return fmt.Errorf("compensate product %d: %w", d.ProductID, err)
			}
			rep.Repaired = append(rep.Repaired, d)
		}

		products, err := tx.Products.List(ctx)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		warehouses, err := tx.Warehouses.List(ctx)
		if err != nil {
			return fmt.Errorf("list warehouses: %w", err)
		}
		for _, p := range products {
			for _, w := range warehouses {
				if err := tx.Stock.EnsureRow(ctx, p.ID, w.ID); err != nil {
					return fmt.Errorf("ensure stock row: %w", err)
				}
				rep.RowsEnsure++
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("stock drift repair failed", zap.Error(err))
		return nil, err
	}

	for _, d := range rep.Repaired {
		s.log.Info("stock drift repaired",
			zap.Uint("product_id", d.ProductID),
			zap.Uint("warehouse_id", s.first),
			zap.Int64("diff", d.Diff()),
		)
	}
	if s.inv != nil && len(rep.Repaired) > 0 {
		if err := s.inv.Invalidate(ctx); err != nil {
			s.log.Warn("failed to invalidate analytics cache", zap.Error(err))
		}
	}
	return rep, nil
}
