package service

import (
	"context"
	"fmt"
	"strings"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"

	"go.uber.org/zap"
)

const defaultCategory = "Uncategorized"

type catalogService struct {
	base
	defaultWarehouse uint
}

// NewCatalogService: defaultWarehouse используется, когда при регистрации
// единиц склад не указан.
func NewCatalogService(d Deps, defaultWarehouse uint) *catalogService {
	if defaultWarehouse == 0 {
		defaultWarehouse = 1
	}
	return &catalogService{base: newBase(d), defaultWarehouse: defaultWarehouse}
}

func normalizeProduct(in ProductClassInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "required")
	}
	if in.Price.IsNegative() {
		return nil, invalid("price", "must be >= 0")
	}
	if in.PackSize < 0 {
		return nil, invalid("pack_size", "must be >= 1")
	}
	p := &models.Product{
		Name:        name,
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price.Round(2),
		Description: in.Description,
		PackSize:    in.PackSize,
		ImagePath:   in.ImagePath,
	}
	if p.Category == "" {
		p.Category = defaultCategory
	}
	if p.PackSize == 0 {
		p.PackSize = 1
	}
	return p, nil
}

func (s *catalogService) AddProductClass(ctx context.Context, in ProductClassInput) (*models.Product, error) {
	p, err := normalizeProduct(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.log.Info("класс товара создан", zap.Uint("product_id", p.ID), zap.String("name", p.Name))
	s.invalidate(ctx)
	return p, nil
}

// ImportProducts создаёт классы товаров одной транзакцией. Дубликаты по имени допускаются.
func (s *catalogService) ImportProducts(ctx context.Context, in []ProductClassInput) (int, error) {
	products := make([]*models.Product, 0, len(in))
	for i, row := range in {
		p, err := normalizeProduct(row)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		products = append(products, p)
	}
	if len(products) == 0 {
		return 0, nil
	}

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		for _, p := range products {
			if err := tx.Products.Create(ctx, p); err != nil {
				return fmt.Errorf("create product %q: %w", p.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("импорт товаров завершён", zap.Int("count", len(products)))
	s.invalidate(ctx)
	return len(products), nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]ProductView, error) {
	products, err := s.repo.Products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	stock, err := s.repo.Stock.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}

	byProduct := make(map[uint]map[uint]int64, len(products))
	for _, ws := range stock {
		m, ok := byProduct[ws.ProductID]
		if !ok {
			m = make(map[uint]int64)
			byProduct[ws.ProductID] = m
		}
		m[ws.WarehouseID] = ws.Quantity
	}

	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		bd := byProduct[p.ID]
		if bd == nil {
			bd = map[uint]int64{}
		}
		out = append(out, ProductView{Product: p, StockBreakdown: bd})
	}
	return out, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uint) (*ProductView, error) {
	p, err := s.repo.Products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	stock, err := s.repo.Stock.ListByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	bd := make(map[uint]int64, len(stock))
	for _, ws := range stock {
		bd[ws.WarehouseID] = ws.Quantity
	}
	return &ProductView{Product: *p, StockBreakdown: bd}, nil
}

func (s *catalogService) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	list, err := s.repo.Warehouses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	return list, nil
}

// RegisterInstances заводит quantity единиц с общим штрихкодом и в той же
// транзакции пополняет остатки, как AddStock.
func (s *catalogService) RegisterInstances(ctx context.Context, in RegisterInstancesInput) (int64, error) {
	in.Barcode = strings.TrimSpace(in.Barcode)
	if in.ProductID == 0 {
		return 0, invalid("product_id", "required")
	}
	if in.Barcode == "" {
		return 0, invalid("barcode", "required")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		return 0, invalid("quantity", "must be > 0")
	}
	if in.WarehouseID == 0 {
		in.WarehouseID = s.defaultWarehouse
	}

	now := s.now().UTC()
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := applyStockDelta(ctx, tx, in.ProductID, in.WarehouseID, in.Quantity); err != nil {
			return err
		}
		items := make([]models.ItemInstance, 0, in.Quantity)
		for i := int64(0); i < in.Quantity; i++ {
			items = append(items, models.ItemInstance{
				ProductID:   in.ProductID,
				WarehouseID: in.WarehouseID,
				Barcode:     in.Barcode,
				ScanTime:    now,
				Notes:       in.Notes,
				Status:      models.InstanceInStock,
			})
		}
		if err := tx.Instances.BulkCreate(ctx, items); err != nil {
			return fmt.Errorf("create instances: %w", err)
		}
		scan := &models.Scan{Barcode: in.Barcode, Quantity: in.Quantity, Timestamp: now}
		if err := tx.Scans.Create(ctx, scan); err != nil {
			return fmt.Errorf("append scan: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("единицы товара зарегистрированы",
		zap.Uint("product_id", in.ProductID),
		zap.Uint("warehouse_id", in.WarehouseID),
		zap.String("barcode", in.Barcode),
		zap.Int64("quantity", in.Quantity),
	)
	s.publishHistory(ctx)
	s.invalidate(ctx)
	return in.Quantity, nil
}

func (s *catalogService) ListInstances(ctx context.Context, productID uint) ([]models.ItemInstance, error) {
	list, err := s.repo.Instances.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	return list, nil
}
