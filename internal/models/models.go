package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product: класс товара. Quantity хранит кэш общего остатка, должен совпадать
// с суммой warehouse_stock.quantity по всем складам.
type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	Name        string          `gorm:"type:text;not null"`
	Category    string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Description string          `gorm:"type:text"`
	Quantity    int64           `gorm:"not null;default:0"`
	PackSize    int32           `gorm:"column:pack_size;not null;default:1"`
	ImagePath   *string         `gorm:"column:image_path;type:text"`
}

func (Product) TableName() string { return "products" }

type Warehouse struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"type:text;not null"`
}

func (Warehouse) TableName() string { return "warehouses" }

// WarehouseStock: остаток товара на складе. После компенсации расхождения
// количество может уйти в минус, поэтому CHECK >= 0 здесь нет.
type WarehouseStock struct {
	ProductID   uint  `gorm:"primaryKey;autoIncrement:false"`
	WarehouseID uint  `gorm:"primaryKey;autoIncrement:false"`
	Quantity    int64 `gorm:"not null;default:0"`
}

func (WarehouseStock) TableName() string { return "warehouse_stock" }

type InstanceStatus string

const (
	InstanceInStock InstanceStatus = "In Stock"
	InstancePicked  InstanceStatus = "Picked"
)

type ItemInstance struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"`
	ProductID   uint           `gorm:"not null;index"`
	WarehouseID uint           `gorm:"not null;default:1"`
	Barcode     string         `gorm:"type:text;not null"`
	ScanTime    time.Time      `gorm:"column:scan_time;not null;default:now()"`
	Notes       string         `gorm:"type:text"`
	Status      InstanceStatus `gorm:"type:text;not null;default:'In Stock'"`
}

func (ItemInstance) TableName() string { return "item_instances" }

// Scan: журнал сканирований, только добавление.
type Scan struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Barcode   string    `gorm:"type:text;not null"`
	Quantity  int64     `gorm:"not null;default:1"`
	Timestamp time.Time `gorm:"not null;default:now();index"`
}

func (Scan) TableName() string { return "scans" }

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderCompleted  OrderStatus = "COMPLETED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted:
		return true
	}
	return false
}

type Order struct {
	ID           uint        `gorm:"primaryKey;autoIncrement"`
	BusinessName string      `gorm:"column:business_name;type:text;not null"`
	Timestamp    time.Time   `gorm:"not null;default:now();index"`
	Status       OrderStatus `gorm:"type:text;not null;default:'PENDING';index"`
	WorkerName   *string     `gorm:"column:worker_name;type:text"`
	CompletedAt  *time.Time  `gorm:"column:completed_at"`

	Items       []OrderItem           `gorm:"foreignKey:OrderID"`
	Allocations []OrderItemAllocation `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        uint  `gorm:"primaryKey;autoIncrement"`
	OrderID   uint  `gorm:"not null;index"`
	ProductID uint  `gorm:"not null;index"`
	Quantity  int64 `gorm:"not null"`
}

func (OrderItem) TableName() string { return "order_items" }

// OrderItemAllocation: сколько единиц товара заказа берётся с конкретного склада
// и сколько из них уже собрано.
type OrderItemAllocation struct {
	ID             uint  `gorm:"primaryKey;autoIncrement"`
	OrderID        uint  `gorm:"not null;index;uniqueIndex:ux_allocations_order_product_wh"`
	ProductID      uint  `gorm:"not null;uniqueIndex:ux_allocations_order_product_wh"`
	WarehouseID    uint  `gorm:"not null;uniqueIndex:ux_allocations_order_product_wh"`
	Quantity       int64 `gorm:"not null"`
	PickedQuantity int64 `gorm:"column:picked_quantity;not null;default:0"`
}

func (OrderItemAllocation) TableName() string { return "order_item_allocations" }

func (a OrderItemAllocation) FullyPicked() bool { return a.PickedQuantity >= a.Quantity }

type Worker struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Name       string    `gorm:"type:text;not null;uniqueIndex"`
	Status     string    `gorm:"type:text;not null;default:'Active'"`
	LastActive time.Time `gorm:"column:last_active;not null;default:now()"`
}

func (Worker) TableName() string { return "workers" }
