package service

import (
	"context"
	"fmt"
	"strings"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"

	"go.uber.org/zap"
)

type ledgerService struct {
	base
}

func NewStockLedger(d Deps) *ledgerService {
	return &ledgerService{base: newBase(d)}
}

// applyStockDelta меняет общий остаток товара и остаток на складе в рамках tx.
// Строка warehouse_stock создаётся при первом обращении.
func applyStockDelta(ctx context.Context, tx *repository.Repository, productID, warehouseID uint, delta int64) error {
	ok, err := tx.Warehouses.Exists(ctx, warehouseID)
	if err != nil {
		return fmt.Errorf("check warehouse: %w", err)
	}
	if !ok {
		return ErrWarehouseNotFound
	}
	ok, err = tx.Products.AddQuantity(ctx, productID, delta)
	if err != nil {
		return fmt.Errorf("update product total: %w", err)
	}
	if !ok {
		return ErrProductNotFound
	}
	if err := tx.Stock.Upsert(ctx, productID, warehouseID, delta); err != nil {
		return fmt.Errorf("upsert warehouse stock: %w", err)
	}
	return nil
}

func (s *ledgerService) AddStock(ctx context.Context, in AddStockInput) error {
	in.Barcode = strings.TrimSpace(in.Barcode)
	if in.Quantity <= 0 {
		return invalid("quantity", "must be > 0")
	}
	if in.ProductID == 0 {
		return invalid("product_id", "required")
	}
	if in.WarehouseID == 0 {
		return invalid("warehouse_id", "required")
	}
	if in.Barcode == "" {
		return invalid("barcode", "required")
	}

	// остатки и строка истории пишутся вместе
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := applyStockDelta(ctx, tx, in.ProductID, in.WarehouseID, in.Quantity); err != nil {
			return err
		}
		scan := &models.Scan{Barcode: in.Barcode, Quantity: in.Quantity, Timestamp: s.now().UTC()}
		if err := tx.Scans.Create(ctx, scan); err != nil {
			return fmt.Errorf("append scan: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("остаток пополнен",
		zap.Uint("product_id", in.ProductID),
		zap.Uint("warehouse_id", in.WarehouseID),
		zap.Int64("quantity", in.Quantity),
	)
	s.publishHistory(ctx)
	s.invalidate(ctx)
	return nil
}

func (s *ledgerService) AdjustStock(ctx context.Context, productID, warehouseID uint, delta int64) error {
	if productID == 0 {
		return invalid("product_id", "required")
	}
	if warehouseID == 0 {
		return invalid("warehouse_id", "required")
	}
	if delta == 0 {
		return invalid("change", "must not be 0")
	}

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		return applyStockDelta(ctx, tx, productID, warehouseID, delta)
	})
	if err != nil {
		return err
	}

	s.log.Info("остаток скорректирован",
		zap.Uint("product_id", productID),
		zap.Uint("warehouse_id", warehouseID),
		zap.Int64("delta", delta),
	)
	s.invalidate(ctx)
	return nil
}

func (s *ledgerService) LogScan(ctx context.Context, barcode string, quantity int64) error {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return invalid("barcode", "required")
	}
	// 0 приходит от сканера и означает одну единицу
	if quantity < 0 {
		return invalid("quantity", "must be > 0")
	}
	if quantity == 0 {
		quantity = 1
	}

	scan := &models.Scan{Barcode: barcode, Quantity: quantity, Timestamp: s.now().UTC()}
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Scans.Create(ctx, scan); err != nil {
			return fmt.Errorf("append scan: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, EventScan, ScanEvent{Barcode: scan.Barcode, Quantity: scan.Quantity, Timestamp: scan.Timestamp})
	s.publishHistory(ctx)
	return nil
}

func (s *ledgerService) ScanHistory(ctx context.Context, limit int) ([]repository.ScanHistoryRow, error) {
	if limit <= 0 {
		limit = historyLimit
	}
	rows, err := s.repo.Scans.History(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	return rows, nil
}
