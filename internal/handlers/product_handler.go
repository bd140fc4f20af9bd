package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fulfillment-service/internal/dto"
	"fulfillment-service/internal/importer"
	"fulfillment-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductHandler struct {
	catalog          service.CatalogService
	ledger           service.StockLedger
	uploadDir        string
	defaultWarehouse uint
	log              *zap.Logger
}

func NewProductHandler(catalog service.CatalogService, ledger service.StockLedger, uploadDir string, defaultWarehouse uint, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog:          catalog,
		ledger:           ledger,
		uploadDir:        uploadDir,
		defaultWarehouse: defaultWarehouse,
		log:              log,
	}
}

func (h *ProductHandler) List(c *gin.Context) {
	list, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProducts(list))
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProduct(p.Product, p.StockBreakdown))
}

// Create принимает multipart-форму: name, price, category, description,
// pack_size и необязательный файл image. Нечитаемые price/pack_size
// заменяются значениями по умолчанию.
func (h *ProductHandler) Create(c *gin.Context) {
	in := service.ProductClassInput{
		Name:        c.PostForm("name"),
		Price:       decimal.Zero,
		Category:    c.PostForm("category"),
		Description: c.PostForm("description"),
		PackSize:    1,
	}
	if p, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("price"))); err == nil {
		in.Price = p
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(c.PostForm("pack_size")), 10, 32); err == nil {
		in.PackSize = int32(n)
	}

	if strings.TrimSpace(in.Name) == "" {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("name is required", []dto.FieldError{{Field: "name", Message: "required"}}))
		return
	}

	if fh, err := c.FormFile("image"); err == nil && fh.Filename != "" {
		name := fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(fh.Filename))
		if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
			writeError(c, h.log, fmt.Errorf("create upload dir: %w", err))
			return
		}
		if err := c.SaveUploadedFile(fh, filepath.Join(h.uploadDir, name)); err != nil {
			writeError(c, h.log, fmt.Errorf("save image: %w", err))
			return
		}
		path := "uploads/" + name
		in.ImagePath = &path
	}

	p, err := h.catalog.AddProductClass(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToProduct(*p, nil))
}

func (h *ProductHandler) ListWarehouses(c *gin.Context) {
	list, err := h.catalog.ListWarehouses(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToWarehouses(list))
}

func (h *ProductHandler) AddInstances(c *gin.Context) {
	var req dto.AddInstancesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "product_id and barcode required", err)
		return
	}
	n, err := h.catalog.RegisterInstances(c.Request.Context(), service.RegisterInstancesInput{
		ProductID:   req.ProductID,
		Barcode:     req.Barcode,
		Quantity:    req.Quantity,
		Notes:       req.Notes,
		WarehouseID: req.WarehouseID,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "success", Message: fmt.Sprintf("Added %d items", n)})
}

func (h *ProductHandler) ListInstances(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.catalog.ListInstances(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToInstances(list))
}

// AddStock пополняет склад без регистрации единиц. Партия с её штрихкодом пишется в историю.
func (h *ProductHandler) AddStock(c *gin.Context) {
	var req dto.AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "product_id, quantity and barcode required", err)
		return
	}
	wid := req.WarehouseID
	if wid == 0 {
		wid = h.defaultWarehouse
	}
	err := h.ledger.AddStock(c.Request.Context(), service.AddStockInput{
		ProductID:   req.ProductID,
		WarehouseID: wid,
		Quantity:    req.Quantity,
		Barcode:     req.Barcode,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "success"})
}

func (h *ProductHandler) AdjustQuantity(c *gin.Context) {
	var req dto.AdjustQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "product_id and change required", err)
		return
	}
	wid := req.WarehouseID
	if wid == 0 {
		wid = h.defaultWarehouse
	}
	if err := h.ledger.AdjustStock(c.Request.Context(), req.ProductID, wid, *req.Change); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "success"})
}

func (h *ProductHandler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil || fh.Filename == "" {
		badRequest(c, h.log, "no file uploaded", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, h.log, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	rows, err := importer.ParseProducts(f)
	if err != nil {
		badRequest(c, h.log, err.Error(), err)
		return
	}
	n, err := h.catalog.ImportProducts(c.Request.Context(), rows)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ImportResponse{
		Status:        "success",
		ImportedCount: n,
		Message:       fmt.Sprintf("Imported %d product classes.", n),
	})
}
