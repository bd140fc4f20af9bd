package router

import (
	"fulfillment-service/internal/handlers"
	"fulfillment-service/internal/middleware"
	"fulfillment-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Services struct {
	Ledger    service.StockLedger
	Catalog   service.CatalogService
	Orders    service.OrderService
	Workers   service.WorkerService
	Analytics service.AnalyticsService
	Events    handlers.Subscriber

	UploadDir        string
	DefaultWarehouse uint
}

func Router(s Services, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
	}))

	r.MaxMultipartMemory = 16 << 20
	if s.UploadDir != "" {
		r.Static("/uploads", s.UploadDir)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	products := handlers.NewProductHandler(s.Catalog, s.Ledger, s.UploadDir, s.DefaultWarehouse, log)
	orders := handlers.NewOrderHandler(s.Orders, log)
	workers := handlers.NewWorkerHandler(s.Workers, log)
	scans := handlers.NewScanHandler(s.Ledger, s.Analytics, s.Events, log)

	api := r.Group("/api")
	{
		api.GET("/products", products.List)
		api.POST("/products", products.Create)
		api.POST("/products/quantity", products.AdjustQuantity)
		api.POST("/stock", products.AddStock)
		api.GET("/products/:id", products.Get)
		api.GET("/products/:id/instances", products.ListInstances)
		api.GET("/warehouses", products.ListWarehouses)
		api.POST("/instances", products.AddInstances)
		api.POST("/import", products.Import)

		api.POST("/scan", scans.LogScan)
		api.GET("/scans/history", scans.History)
		api.GET("/analytics", scans.Analytics)

		api.GET("/workers", workers.List)
		api.POST("/workers", workers.Create)
		api.DELETE("/workers/:id", workers.Delete)

		api.POST("/scan/pick", orders.Pick)
		api.GET("/orders", orders.List)
		api.POST("/orders", orders.Create)
		api.GET("/orders/active", orders.ListActive)
		api.GET("/orders/:id", orders.Details)
		api.POST("/orders/:id/status", orders.UpdateStatus)
	}

	r.GET("/events", scans.Stream)

	return r
}
