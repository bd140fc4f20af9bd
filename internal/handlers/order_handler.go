package handlers

import (
	"net/http"
	"strconv"

	"fulfillment-service/internal/dto"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders service.OrderService
	log    *zap.Logger
}

func NewOrderHandler(orders service.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, log: log}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "business name and items required", err)
		return
	}
	lines := make([]service.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, service.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, err := h.orders.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		BusinessName: req.BusinessName,
		Items:        lines,
	})
	if err != nil {
		if !service.IsValidation(err) {
			h.log.Warn("Заказ отклонён", zap.String("business_name", req.BusinessName), zap.Error(err))
		}
		writeError(c, h.log, err)
		return
	}
	resp := dto.ToOrder(o)
	c.JSON(http.StatusCreated, dto.CreateOrderResponse{Status: "success", OrderID: o.ID, Order: &resp})
}

func (h *OrderHandler) List(c *gin.Context) {
	rows, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ListActive: ?warehouse_id=N ограничивает выдачу заказами с распределением на этот склад.
func (h *OrderHandler) ListActive(c *gin.Context) {
	var wid *uint
	if raw := c.Query("warehouse_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || n == 0 {
			badRequest(c, h.log, "invalid warehouse_id", err)
			return
		}
		v := uint(n)
		wid = &v
	}
	rows, err := h.orders.ListActiveOrders(c.Request.Context(), wid)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *OrderHandler) Details(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	d, err := h.orders.OrderDetails(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderDetails(d))
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "status required", err)
		return
	}
	o, err := h.orders.UpdateOrderStatus(c.Request.Context(), id, models.OrderStatus(req.Status), req.WorkerName)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrder(o))
}

func (h *OrderHandler) Pick(c *gin.Context) {
	var req dto.PickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "missing data", err)
		return
	}
	res, err := h.orders.RecordPick(c.Request.Context(), service.PickInput{
		OrderID:     req.OrderID,
		WarehouseID: req.WarehouseID,
		Barcode:     req.Barcode,
		WorkerName:  req.WorkerName,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": res.Message, "pick": res})
}
