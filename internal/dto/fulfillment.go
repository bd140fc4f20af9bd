package dto

import (
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"
	"fulfillment-service/internal/service"

	"github.com/shopspring/decimal"
)

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type AddInstancesRequest struct {
	ProductID   uint   `json:"product_id" binding:"required"`
	Barcode     string `json:"barcode" binding:"required"`
	Quantity    int64  `json:"quantity"`
	Notes       string `json:"notes"`
	WarehouseID uint   `json:"warehouse_id"`
}

type AddStockRequest struct {
	ProductID   uint   `json:"product_id" binding:"required"`
	WarehouseID uint   `json:"warehouse_id"`
	Quantity    int64  `json:"quantity" binding:"required"`
	Barcode     string `json:"barcode" binding:"required"`
}

type AdjustQuantityRequest struct {
	ProductID   uint   `json:"product_id" binding:"required"`
	Change      *int64 `json:"change" binding:"required"`
	WarehouseID uint   `json:"warehouse_id"`
}

type ScanRequest struct {
	Barcode  string `json:"barcode" binding:"required"`
	Quantity int64  `json:"quantity"`
}

type WorkerRequest struct {
	Name string `json:"name" binding:"required"`
}

type OrderLineRequest struct {
	ProductID uint  `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CreateOrderRequest struct {
	BusinessName string             `json:"business_name" binding:"required"`
	Items        []OrderLineRequest `json:"items" binding:"required"`
}

type CreateOrderResponse struct {
	Status  string         `json:"status"`
	OrderID uint           `json:"order_id"`
	Order   *OrderResponse `json:"order"`
}

type PickRequest struct {
	OrderID     uint   `json:"order_id" binding:"required"`
	WarehouseID uint   `json:"warehouse_id" binding:"required"`
	Barcode     string `json:"barcode" binding:"required"`
	WorkerName  string `json:"worker_name" binding:"required"`
}

type UpdateStatusRequest struct {
	Status     string  `json:"status" binding:"required"`
	WorkerName *string `json:"worker_name"`
}

type ImportResponse struct {
	Status        string `json:"status"`
	ImportedCount int    `json:"imported_count"`
	Message       string `json:"message"`
}

type ProductResponse struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Price          decimal.Decimal `json:"price"`
	Description    string          `json:"description"`
	Quantity       int64           `json:"quantity"`
	PackSize       int32           `json:"pack_size"`
	ImagePath      *string         `json:"image_path"`
	StockBreakdown map[uint]int64  `json:"stock_breakdown,omitempty"`
}

type WarehouseResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type InstanceResponse struct {
	ID          uint      `json:"id"`
	ProductID   uint      `json:"product_id"`
	WarehouseID uint      `json:"warehouse_id"`
	Barcode     string    `json:"barcode"`
	ScanTime    time.Time `json:"scan_time"`
	Notes       string    `json:"notes"`
	Status      string    `json:"status"`
}

type WorkerResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	LastActive time.Time `json:"last_active"`
}

type OrderItemResponse struct {
	ProductID uint  `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type AllocationResponse struct {
	ProductID      uint  `json:"product_id"`
	WarehouseID    uint  `json:"warehouse_id"`
	Quantity       int64 `json:"quantity"`
	PickedQuantity int64 `json:"picked_quantity"`
}

type OrderResponse struct {
	ID           uint                 `json:"id"`
	BusinessName string               `json:"business_name"`
	Timestamp    time.Time            `json:"timestamp"`
	Status       string               `json:"status"`
	WorkerName   *string              `json:"worker_name"`
	CompletedAt  *time.Time           `json:"completed_at"`
	Items        []OrderItemResponse  `json:"items,omitempty"`
	Allocations  []AllocationResponse `json:"allocations,omitempty"`
}

type OrderDetailsResponse struct {
	Order       OrderResponse               `json:"order"`
	Items       []repository.OrderItemView  `json:"items"`
	Allocations []repository.AllocationView `json:"allocations"`
}

func ToProduct(p models.Product, breakdown map[uint]int64) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Category:       p.Category,
		Price:          p.Price,
		Description:    p.Description,
		Quantity:       p.Quantity,
		PackSize:       p.PackSize,
		ImagePath:      p.ImagePath,
		StockBreakdown: breakdown,
	}
}

func ToProducts(list []service.ProductView) []ProductResponse {
	out := make([]ProductResponse, 0, len(list))
	for _, v := range list {
		out = append(out, ToProduct(v.Product, v.StockBreakdown))
	}
	return out
}

func ToWarehouses(list []models.Warehouse) []WarehouseResponse {
	out := make([]WarehouseResponse, 0, len(list))
	for _, w := range list {
		out = append(out, WarehouseResponse{ID: w.ID, Name: w.Name})
	}
	return out
}

func ToInstances(list []models.ItemInstance) []InstanceResponse {
	out := make([]InstanceResponse, 0, len(list))
	for _, it := range list {
		out = append(out, InstanceResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			WarehouseID: it.WarehouseID,
			Barcode:     it.Barcode,
			ScanTime:    it.ScanTime,
			Notes:       it.Notes,
			Status:      string(it.Status),
		})
	}
	return out
}

func ToWorker(w models.Worker) WorkerResponse {
	return WorkerResponse{ID: w.ID, Name: w.Name, Status: w.Status, LastActive: w.LastActive}
}

func ToWorkers(list []models.Worker) []WorkerResponse {
	out := make([]WorkerResponse, 0, len(list))
	for _, w := range list {
		out = append(out, ToWorker(w))
	}
	return out
}

func ToOrder(o *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:           o.ID,
		BusinessName: o.BusinessName,
		Timestamp:    o.Timestamp,
		Status:       string(o.Status),
		WorkerName:   o.WorkerName,
		CompletedAt:  o.CompletedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	for _, a := range o.Allocations {
		resp.Allocations = append(resp.Allocations, AllocationResponse{
			ProductID:      a.ProductID,
			WarehouseID:    a.WarehouseID,
			Quantity:       a.Quantity,
			PickedQuantity: a.PickedQuantity,
		})
	}
	return resp
}

func ToOrderDetails(d *service.OrderDetails) OrderDetailsResponse {
	return OrderDetailsResponse{
		Order:       ToOrder(d.Order),
		Items:       d.Items,
		Allocations: d.Allocations,
	}
}
