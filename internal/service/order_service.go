package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"

	"go.uber.org/zap"
)

type OrderConfig struct {
	// Priority порядок складов при списании, первый склад принимает компенсацию.
	Priority    []uint
	DriftPolicy DriftPolicy
}

type orderService struct {
	base
	priority []uint
	drift    DriftPolicy
}

func NewOrderService(d Deps, cfg OrderConfig) (*orderService, error) {
	if len(cfg.Priority) == 0 {
		return nil, fmt.Errorf("warehouse priority is empty")
	}
	if cfg.DriftPolicy == "" {
		cfg.DriftPolicy = DriftCompensate
	}
	if cfg.DriftPolicy != DriftCompensate && cfg.DriftPolicy != DriftReject {
		return nil, fmt.Errorf("unknown drift policy %q", cfg.DriftPolicy)
	}
	return &orderService{
		base:     newBase(d),
		priority: slices.Clone(cfg.Priority),
		drift:    cfg.DriftPolicy,
	}, nil
}

func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	name := strings.TrimSpace(in.BusinessName)
	if name == "" {
		return nil, invalid("business_name", "required")
	}
	lines, err := mergeLines(in.Items)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	slices.Sort(ids)

	var order *models.Order
	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		products, err := tx.Products.LockByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}

		hdr := &models.Order{
			BusinessName: name,
			Timestamp:    s.now().UTC(),
			Status:       models.OrderPending,
		}
		if err := tx.Orders.Create(ctx, hdr); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, l := range lines {
			p, ok := products[l.ProductID]
			if !ok {
				return fmt.Errorf("%w: id %d", ErrProductNotFound, l.ProductID)
			}
			if p.Quantity < l.Quantity {
				return fmt.Errorf("%w: %s (available %d, requested %d)", ErrInsufficientStock, p.Name, p.Quantity, l.Quantity)
			}
			if err := s.allocateLine(ctx, tx, hdr.ID, p, l.Quantity); err != nil {
				return err
			}
			item := &models.OrderItem{OrderID: hdr.ID, ProductID: p.ID, Quantity: l.Quantity}
			if err := tx.OrderItems.Create(ctx, item); err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		order, err = tx.Orders.GetByID(ctx, hdr.ID)
		if err != nil {
			return fmt.Errorf("reload order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("заказ создан",
		zap.Uint("order_id", order.ID),
		zap.String("business_name", order.BusinessName),
		zap.Int("lines", len(lines)),
	)
	s.publishHistory(ctx)
	s.publish(ctx, EventOrderUpdate, OrderUpdateEvent{OrderID: order.ID, Status: order.Status, Action: "created"})
	s.invalidate(ctx)
	return order, nil
}

// allocateLine списывает qty товара: общий остаток, затем склады по приоритету.
// Строки товара уже заблокированы вызывающим.
func (s *orderService) allocateLine(ctx context.Context, tx *repository.Repository, orderID uint, p *models.Product, qty int64) error {
	ok, err := tx.Products.AddQuantity(ctx, p.ID, -qty)
	if err != nil {
		return fmt.Errorf("update product total: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: id %d", ErrProductNotFound, p.ID)
	}
	p.Quantity -= qty

	stock := make(map[uint]int64, len(s.priority))
	for _, wid := range s.priority {
		ws, err := tx.Stock.GetForUpdate(ctx, p.ID, wid)
		if err != nil {
			return fmt.Errorf("lock warehouse stock: %w", err)
		}
		if ws != nil {
			stock[wid] = ws.Quantity
		}
	}

	plan, remaining := planCascade(s.priority, stock, qty)
	for _, t := range plan {
		if _, err := tx.Stock.Decrement(ctx, p.ID, t.WarehouseID, t.Quantity); err != nil {
			return fmt.Errorf("decrement warehouse stock: %w", err)
		}
		if err := tx.Allocations.Add(ctx, orderID, p.ID, t.WarehouseID, t.Quantity); err != nil {
			return fmt.Errorf("add allocation: %w", err)
		}
	}
	if remaining == 0 {
		return nil
	}

	if s.drift == DriftReject {
		return fmt.Errorf("%w: %s (missing %d)", ErrStockDrift, p.Name, remaining)
	}

	first := s.priority[0]
	s.log.Warn("расхождение остатков: компенсация на первый склад",
		zap.Uint("order_id", orderID),
		zap.Uint("product_id", p.ID),
		zap.Uint("warehouse_id", first),
		zap.Int64("remaining", remaining),
	)
	if err := tx.Stock.Upsert(ctx, p.ID, first, -remaining); err != nil {
		return fmt.Errorf("compensate warehouse stock: %w", err)
	}
	if err := tx.Allocations.Add(ctx, orderID, p.ID, first, remaining); err != nil {
		return fmt.Errorf("add allocation: %w", err)
	}
	return nil
}

func (s *orderService) RecordPick(ctx context.Context, in PickInput) (*PickResult, error) {
	in.Barcode = strings.TrimSpace(in.Barcode)
	in.WorkerName = strings.TrimSpace(in.WorkerName)
	switch {
	case in.OrderID == 0:
		return nil, invalid("order_id", "required")
	case in.WarehouseID == 0:
		return nil, invalid("warehouse_id", "required")
	case in.Barcode == "":
		return nil, invalid("barcode", "required")
	case in.WorkerName == "":
		return nil, invalid("worker_name", "required")
	}

	var res *PickResult
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		o, err := tx.Orders.GetForUpdate(ctx, in.OrderID)
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		if o == nil {
			return ErrOrderNotFound
		}

		inst, err := tx.Instances.FindForPick(ctx, in.Barcode, in.WarehouseID)
		if err != nil {
			return fmt.Errorf("find instance: %w", err)
		}
		if inst == nil {
			return ErrItemNotFoundInWarehouse
		}

		alloc, err := tx.Allocations.GetForUpdate(ctx, in.OrderID, inst.ProductID, in.WarehouseID)
		if err != nil {
			return fmt.Errorf("lock allocation: %w", err)
		}
		if alloc == nil {
			return ErrNotPartOfOrder
		}
		if alloc.FullyPicked() {
			return ErrAlreadyFullyPicked
		}
		if inst.Status == models.InstancePicked {
			return ErrUnitAlreadyPicked
		}

		ok, err := tx.Allocations.IncrementPicked(ctx, alloc.ID)
		if err != nil {
			return fmt.Errorf("increment picked: %w", err)
		}
		if !ok {
			return ErrAlreadyFullyPicked
		}

		note := fmt.Sprintf("Picked for Order #%d by %s", in.OrderID, in.WorkerName)
		ok, err = tx.Instances.MarkPicked(ctx, inst.ID, note)
		if err != nil {
			return fmt.Errorf("mark instance picked: %w", err)
		}
		if !ok {
			return ErrUnitAlreadyPicked
		}

		if _, err := tx.Workers.TouchByName(ctx, in.WorkerName, s.now().UTC()); err != nil {
			return fmt.Errorf("touch worker: %w", err)
		}

		res = &PickResult{
			OrderID:        in.OrderID,
			ProductID:      inst.ProductID,
			WarehouseID:    in.WarehouseID,
			InstanceID:     inst.ID,
			PickedQuantity: alloc.PickedQuantity + 1,
			Quantity:       alloc.Quantity,
			Message:        fmt.Sprintf("Picked %d/%d", alloc.PickedQuantity+1, alloc.Quantity),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("единица собрана",
		zap.Uint("order_id", res.OrderID),
		zap.Uint("product_id", res.ProductID),
		zap.Uint("warehouse_id", res.WarehouseID),
		zap.String("worker", in.WorkerName),
	)
	s.publish(ctx, EventOrderUpdate, OrderUpdateEvent{OrderID: res.OrderID, Action: "picked"})
	return res, nil
}

// UpdateOrderStatus: COMPLETED терминален, из него выйти нельзя.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID uint, status models.OrderStatus, workerName *string) (*models.Order, error) {
	if orderID == 0 {
		return nil, invalid("order_id", "required")
	}
	status = models.OrderStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", status))
	}
	if workerName != nil {
		w := strings.TrimSpace(*workerName)
		if w == "" {
			workerName = nil
		} else {
			workerName = &w
		}
	}

	var order *models.Order
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		cur, err := tx.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		if cur == nil {
			return ErrOrderNotFound
		}
		if cur.Status == models.OrderCompleted {
			if status != models.OrderCompleted {
				return ErrOrderCompleted
			}
		} else if _, err := tx.Orders.UpdateStatus(ctx, orderID, status, workerName, s.now().UTC()); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		order, err = tx.Orders.GetByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("reload order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("статус заказа обновлён", zap.Uint("order_id", orderID), zap.String("status", string(order.Status)))
	s.publish(ctx, EventOrderUpdate, OrderUpdateEvent{OrderID: orderID, Status: order.Status, Action: "status"})
	s.invalidate(ctx)
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	o, err := s.repo.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]repository.OrderSummary, error) {
	rows, err := s.repo.Orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return rows, nil
}

func (s *orderService) ListActiveOrders(ctx context.Context, warehouseID *uint) ([]repository.OrderSummary, error) {
	rows, err := s.repo.Orders.ListActive(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}
	return rows, nil
}

func (s *orderService) OrderDetails(ctx context.Context, id uint) (*OrderDetails, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.OrderItems.ListWithNames(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	allocs, err := s.repo.Allocations.ListWithNames(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return &OrderDetails{Order: o, Items: items, Allocations: allocs}, nil
}
