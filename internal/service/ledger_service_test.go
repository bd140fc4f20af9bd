package service_test

import (
	"context"
	"testing"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockLedger_TotalMatchesWarehouses(t *testing.T) {
	e := setup(t, service.DriftCompensate)
	ctx := context.Background()
	p := e.product(t, "Widget", "1.00")

	require.NoError(t, e.ledger.AddStock(ctx, service.AddStockInput{ProductID: p.ID, WarehouseID: 1, Quantity: 7, Barcode: "W-1"}))
	require.NoError(t, e.ledger.AddStock(ctx, service.AddStockInput{ProductID: p.ID, WarehouseID: 3, Quantity: 4, Barcode: "W-3"}))
	require.NoError(t, e.ledger.AdjustStock(ctx, p.ID, 1, -2))
	require.NoError(t, e.ledger.AdjustStock(ctx, p.ID, 2, 6))

	total, bd := e.levels(t, p.ID)
	assert.Equal(t, int64(15), total)
	assert.Equal(t, map[uint]int64{1: 5, 2: 6, 3: 4}, bd)
	assert.Equal(t, total, sum(bd))

	drift, err := e.repo.Stock.ListDrift(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)

	// каждое пополнение пишет строку истории, корректировка нет
	assert.Equal(t, int64(2), e.count(t, &models.Scan{}))
	rows, err := e.ledger.ScanHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "W-3", rows[0].Barcode)
	assert.Equal(t, int64(4), rows[0].ScannedAmount)
	assert.Equal(t, "W-1", rows[1].Barcode)
	assert.Equal(t, int64(7), rows[1].ScannedAmount)
}

func TestStockLedger_Rejections(t *testing.T) {
	e := setup(t, service.DriftCompensate)
	ctx := context.Background()
	p := e.product(t, "Widget", "1.00")
	e.stock(t, p.ID, 1, 3)

	err := e.ledger.AddStock(ctx, service.AddStockInput{ProductID: p.ID, WarehouseID: 1, Quantity: 0, Barcode: "X"})
	assert.True(t, service.IsValidation(err))

	// без штрихкода партию не записать в историю, пополнение отклоняется целиком
	err = e.ledger.AddStock(ctx, service.AddStockInput{ProductID: p.ID, WarehouseID: 1, Quantity: 4, Barcode: "  "})
	assert.True(t, service.IsValidation(err))

	err = e.ledger.AdjustStock(ctx, p.ID, 1, 0)
	assert.True(t, service.IsValidation(err))

	err = e.ledger.AddStock(ctx, service.AddStockInput{ProductID: p.ID, WarehouseID: 42, Quantity: 5, Barcode: "X"})
	assert.ErrorIs(t, err, service.ErrWarehouseNotFound)

	err = e.ledger.AdjustStock(ctx, 9999, 1, 5)
	assert.ErrorIs(t, err, service.ErrProductNotFound)

	total, bd := e.levels(t, p.ID)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, map[uint]int64{1: 3}, bd)
	// только строка начального пополнения
	assert.Equal(t, int64(1), e.count(t, &models.Scan{}))
}

func TestStockLedger_LogScan(t *testing.T) {
	e := setup(t, service.DriftCompensate)
	ctx := context.Background()
	p := e.product(t, "Widget", "1.00")
	_, err := e.catalog.RegisterInstances(ctx, service.RegisterInstancesInput{ProductID: p.ID, Barcode: "BC-9", Quantity: 1})
	require.NoError(t, err)
	e.events.reset()

	require.NoError(t, e.ledger.LogScan(ctx, "  BC-9 ", 0))
	assert.Equal(t, []string{service.EventScan, service.EventHistoryUpdate}, e.events.types())

	assert.True(t, service.IsValidation(e.ledger.LogScan(ctx, "   ", 1)))
	assert.True(t, service.IsValidation(e.ledger.LogScan(ctx, "BC-9", -3)))

	rows, err := e.ledger.ScanHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "BC-9", rows[0].Barcode)
	assert.Equal(t, int64(1), rows[0].ScannedAmount)
	require.NotNil(t, rows[0].Name)
	assert.Equal(t, "Widget", *rows[0].Name)

	// сканирование не двигает остатки
	total, _ := e.levels(t, p.ID)
	assert.Equal(t, int64(1), total)
}

func TestCatalog_ProductsAndInstances(t *testing.T) {
	e := setup(t, service.DriftCompensate)
	ctx := context.Background()

	p, err := e.catalog.AddProductClass(ctx, service.ProductClassInput{
		Name:  "  Crate ",
		Price: decimal.RequireFromString("3.456"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Crate", p.Name)
	assert.Equal(t, "Uncategorized", p.Category)
	assert.Equal(t, int32(1), p.PackSize)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("3.46")), "price %s", p.Price)

	_, err = e.catalog.AddProductClass(ctx, service.ProductClassInput{Name: " "})
	assert.True(t, service.IsValidation(err))
	_, err = e.catalog.AddProductClass(ctx, service.ProductClassInput{Name: "Bad", Price: decimal.NewFromInt(-1)})
	assert.True(t, service.IsValidation(err))

	n, err := e.catalog.ImportProducts(ctx, []service.ProductClassInput{
		{Name: "Crate", Price: decimal.NewFromInt(1), Category: "Boxes"},
		{Name: "Pallet", Price: decimal.NewFromInt(20)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = e.catalog.ImportProducts(ctx, []service.ProductClassInput{{Name: "Ok"}, {Name: ""}})
	assert.True(t, service.IsValidation(err))

	list, err := e.catalog.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	for _, v := range list {
		assert.NotNil(t, v.StockBreakdown)
	}

	// склад по умолчанию и одна единица, если количество не указано
	added, err := e.catalog.RegisterInstances(ctx, service.RegisterInstancesInput{ProductID: p.ID, Barcode: "CR-1", Notes: "dock"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), added)

	instances, err := e.catalog.ListInstances(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, uint(1), instances[0].WarehouseID)
	assert.Equal(t, models.InstanceInStock, instances[0].Status)
	assert.Equal(t, "dock", instances[0].Notes)

	v, err := e.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Quantity)
	assert.Equal(t, map[uint]int64{1: 1}, v.StockBreakdown)

	_, err = e.catalog.GetProduct(ctx, 9999)
	assert.ErrorIs(t, err, service.ErrProductNotFound)

	_, err = e.catalog.RegisterInstances(ctx, service.RegisterInstancesInput{ProductID: p.ID, Barcode: "CR-2", WarehouseID: 77})
	assert.ErrorIs(t, err, service.ErrWarehouseNotFound)

	whs, err := e.catalog.ListWarehouses(ctx)
	require.NoError(t, err)
	assert.Len(t, whs, 3)
}

func TestWorkers(t *testing.T) {
	e := setup(t, service.DriftCompensate)
	ctx := context.Background()

	w, err := e.workers.AddWorker(ctx, " Alice ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", w.Name)
	assert.Equal(t, "Active", w.Status)

	_, err = e.workers.AddWorker(ctx, "Alice")
	assert.ErrorIs(t, err, service.ErrWorkerExists)

	_, err = e.workers.AddWorker(ctx, "")
	assert.True(t, service.IsValidation(err))

	_, err = e.workers.AddWorker(ctx, "Bob")
	require.NoError(t, err)

	list, err := e.workers.ListWorkers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0].Name)

	require.NoError(t, e.workers.DeleteWorker(ctx, w.ID))
	assert.ErrorIs(t, e.workers.DeleteWorker(ctx, w.ID), service.ErrWorkerNotFound)
}

func TestAnalytics_SnapshotAndCache(t *testing.T) {
	e := setup(t, service.DriftCompensate)
	ctx := context.Background()

	p := e.product(t, "Widget", "2.50")
	e.stock(t, p.ID, 1, 10)
	cheap := e.product(t, "Nut", "0.10")
	e.stock(t, cheap.ID, 1, 2)

	_, err := e.orders.CreateOrder(ctx, service.CreateOrderInput{
		BusinessName: "Acme",
		Items:        []service.OrderLine{{ProductID: p.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	snap, err := e.analytics.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.TotalOrders)
	assert.True(t, snap.TotalRevenue.Equal(decimal.RequireFromString("10.00")), "revenue %s", snap.TotalRevenue)
	// 2.50*6 + 0.10*2
	assert.True(t, snap.InventoryValue.Equal(decimal.RequireFromString("15.20")), "inventory %s", snap.InventoryValue)
	assert.Equal(t, int64(1), snap.LowStockCount)
	require.Len(t, snap.TopProducts, 1)
	assert.Equal(t, p.ID, snap.TopProducts[0].ProductID)
	assert.Equal(t, int64(4), snap.TopProducts[0].TotalSold)
	require.Len(t, snap.RecentOrders, 1)
	assert.Equal(t, "Acme", snap.RecentOrders[0].BusinessName)

	// изменение в обход сервисов не видно, пока кэш не сброшен
	_, err = e.repo.Products.AddQuantity(ctx, cheap.ID, 100)
	require.NoError(t, err)
	cached, err := e.analytics.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.LowStockCount)

	require.NoError(t, e.cache.Invalidate(ctx))
	fresh, err := e.analytics.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fresh.LowStockCount)
}
