package migrate

import (
	"context"
	"fmt"

	"fulfillment-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateChecks    bool // CHECK-ограничения
	CreateIndexes   bool // индексы и UNIQUE
	CreateFKsViaSQL bool // FK через Exec после AutoMigrate
	SeedWarehouses  int  // сколько складов создать, если таблица пуста
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateChecks:    true,
		CreateIndexes:   true,
		CreateFKsViaSQL: true,
		SeedWarehouses:  3,
	}
}

func MigrateFulfillmentDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	db = db.WithContext(ctx)
	log.Info("Начало миграции базы склада и заказов")

	log.Info("Создание таблиц")
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Warehouse{},
		&models.WarehouseStock{},
		&models.ItemInstance{},
		&models.Scan{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemAllocation{},
		&models.Worker{},
	); err != nil {
		log.Error("AutoMigrate error", zap.Error(err))
		return err
	}
	log.Info("Таблицы созданы")

	if opt.CreateChecks {
		log.Info("Создание CHECK-ограничений")
		checks := []struct{ name, sql string }{
			{"chk_products_pack_size", `
ALTER TABLE products
	DROP CONSTRAINT IF EXISTS chk_products_pack_size,
	ADD CONSTRAINT chk_products_pack_size CHECK (pack_size >= 1);`},
			{"chk_products_price", `
ALTER TABLE products
	DROP CONSTRAINT IF EXISTS chk_products_price_non_negative,
	ADD CONSTRAINT chk_products_price_non_negative CHECK (price >= 0);`},
			{"chk_order_items_quantity", `
ALTER TABLE order_items
	DROP CONSTRAINT IF EXISTS chk_order_items_quantity_gt_zero,
	ADD CONSTRAINT chk_order_items_quantity_gt_zero CHECK (quantity > 0);`},
			{"chk_allocations_picked", `
ALTER TABLE order_item_allocations
	DROP CONSTRAINT IF EXISTS chk_allocations_picked_range,
	ADD CONSTRAINT chk_allocations_picked_range
	CHECK (picked_quantity >= 0 AND picked_quantity <= quantity);`},
			{"chk_orders_status", `
ALTER TABLE orders
	DROP CONSTRAINT IF EXISTS chk_orders_status_allowed,
	ADD CONSTRAINT chk_orders_status_allowed
	CHECK (status IN ('PENDING','PROCESSING','COMPLETED'));`},
			{"chk_item_instances_status", `
ALTER TABLE item_instances
	DROP CONSTRAINT IF EXISTS chk_item_instances_status_allowed,
	ADD CONSTRAINT chk_item_instances_status_allowed
	CHECK (status IN ('In Stock','Picked'));`},
		}
		for _, c := range checks {
			if err := db.Exec(c.sql).Error; err != nil {
				log.Error("check constraint", zap.String("name", c.name), zap.Error(err))
				return err
			}
		}
		log.Info("CHECK-и созданы")
	}

	if opt.CreateIndexes {
		log.Info("Создание индексов")
		// Поиск экземпляра по штрихкоду всегда идёт в разрезе склада.
		if err := db.Exec(`
CREATE INDEX IF NOT EXISTS ix_item_instances_barcode_wh
ON item_instances (barcode, warehouse_id);
`).Error; err != nil {
			log.Error("ix item_instances barcode_wh", zap.Error(err))
			return err
		}
		if err := db.Exec(`
CREATE INDEX IF NOT EXISTS ix_allocations_wh_order
ON order_item_allocations (warehouse_id, order_id);
`).Error; err != nil {
			log.Error("ix allocations wh_order", zap.Error(err))
			return err
		}
		log.Info("Индексы созданы")
	}

	if opt.CreateFKsViaSQL {
		log.Info("Создание внешних ключей")
		fks := []struct{ table, name, col, ref string }{
			{"warehouse_stock", "fk_warehouse_stock_product", "product_id", "products(id)"},
			{"warehouse_stock", "fk_warehouse_stock_warehouse", "warehouse_id", "warehouses(id)"},
			{"item_instances", "fk_item_instances_product", "product_id", "products(id)"},
			{"item_instances", "fk_item_instances_warehouse", "warehouse_id", "warehouses(id)"},
			{"order_items", "fk_order_items_order", "order_id", "orders(id)"},
			{"order_items", "fk_order_items_product", "product_id", "products(id)"},
			{"order_item_allocations", "fk_allocations_order", "order_id", "orders(id)"},
			{"order_item_allocations", "fk_allocations_product", "product_id", "products(id)"},
			{"order_item_allocations", "fk_allocations_warehouse", "warehouse_id", "warehouses(id)"},
		}
		for _, fk := range fks {
			stmt := fmt.Sprintf(`
ALTER TABLE %s
  DROP CONSTRAINT IF EXISTS %s,
  ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s ON DELETE RESTRICT;`,
				fk.table, fk.name, fk.name, fk.col, fk.ref)
			if err := db.Exec(stmt).Error; err != nil {
				log.Error("foreign key", zap.String("name", fk.name), zap.Error(err))
				return err
			}
		}
		log.Info("Внешние ключи созданы")
	}

	if opt.SeedWarehouses > 0 {
		if err := SeedWarehouses(ctx, db, log, opt.SeedWarehouses); err != nil {
			return err
		}
	}

	log.Info("Миграция успешно завершена")
	return nil
}

// SeedWarehouses создаёт склады "Warehouse 1..n", только если таблица пуста.
func SeedWarehouses(ctx context.Context, db *gorm.DB, log *zap.Logger, n int) error {
	var cnt int64
	if err := db.WithContext(ctx).Model(&models.Warehouse{}).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt > 0 {
		return nil
	}
	rows := make([]models.Warehouse, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, models.Warehouse{Name: fmt.Sprintf("Warehouse %d", i)})
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		log.Error("seed warehouses", zap.Error(err))
		return err
	}
	log.Info("Склады по умолчанию созданы", zap.Int("count", n))
	return nil
}
