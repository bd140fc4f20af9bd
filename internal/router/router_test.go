package router_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fulfillment-service/internal/dto"
	"fulfillment-service/internal/middleware"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"
	"fulfillment-service/internal/router"
	"fulfillment-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() { gin.SetMode(gin.TestMode) }

type mocks struct {
	ledger    *MockLedger
	catalog   *MockCatalog
	orders    *MockOrders
	workers   *MockWorkers
	analytics *MockAnalytics
	events    *MockEvents
}

func newMocks() *mocks {
	return &mocks{
		ledger:    &MockLedger{},
		catalog:   &MockCatalog{},
		orders:    &MockOrders{},
		workers:   &MockWorkers{},
		analytics: &MockAnalytics{},
		events:    newMockEvents(),
	}
}

func (m *mocks) engine(t *testing.T) *gin.Engine {
	t.Helper()
	return router.Router(router.Services{
		Ledger:           m.ledger,
		Catalog:          m.catalog,
		Orders:           m.orders,
		Workers:          m.workers,
		Analytics:        m.analytics,
		Events:           m.events,
		UploadDir:        t.TempDir(),
		DefaultWarehouse: 1,
	}, zap.NewNop())
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var e dto.BaseError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e.Code
}

func TestHealthAndRequestID(t *testing.T) {
	r := newMocks().engine(t)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	id := "5f2b8c1e-0000-4000-8000-000000000001"
	req.Header.Set(middleware.RequestIDHeader, id)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(middleware.RequestIDHeader))
}

func TestCreateOrder(t *testing.T) {
	m := newMocks()
	var got service.CreateOrderInput
	m.orders.CreateOrderFunc = func(_ context.Context, in service.CreateOrderInput) (*models.Order, error) {
		got = in
		return &models.Order{ID: 42, BusinessName: in.BusinessName, Status: models.OrderPending}, nil
	}
	r := m.engine(t)

	w := doJSON(t, r, http.MethodPost, "/api/orders", map[string]any{
		"business_name": "Acme",
		"items":         []map[string]any{{"product_id": 3, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp dto.CreateOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(42), resp.OrderID)
	assert.Equal(t, "PENDING", resp.Order.Status)
	assert.Equal(t, []service.OrderLine{{ProductID: 3, Quantity: 2}}, got.Items)

	w = doJSON(t, r, http.MethodPost, "/api/orders", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", errorCode(t, w))
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
		body string
	}{
		{fmt.Errorf("%w: Widget", service.ErrInsufficientStock), http.StatusBadRequest, "rejected"},
		{service.ErrStockDrift, http.StatusBadRequest, "rejected"},
		{service.ErrProductNotFound, http.StatusNotFound, "not_found"},
		{service.ErrOrderCompleted, http.StatusConflict, "conflict"},
		{&service.ValidationError{Field: "items", Reason: "required"}, http.StatusBadRequest, "validation_error"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.body+"/"+tc.err.Error(), func(t *testing.T) {
			m := newMocks()
			m.orders.CreateOrderFunc = func(context.Context, service.CreateOrderInput) (*models.Order, error) {
				return nil, tc.err
			}
			w := doJSON(t, m.engine(t), http.MethodPost, "/api/orders", map[string]any{
				"business_name": "Acme",
				"items":         []map[string]any{{"product_id": 1, "quantity": 1}},
			})
			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, tc.body, errorCode(t, w))
		})
	}
}

func TestPick(t *testing.T) {
	m := newMocks()
	var got service.PickInput
	m.orders.RecordPickFunc = func(_ context.Context, in service.PickInput) (*service.PickResult, error) {
		got = in
		switch in.Barcode {
		case "FULL":
			return nil, service.ErrAlreadyFullyPicked
		case "OTHER":
			return nil, service.ErrNotPartOfOrder
		}
		return &service.PickResult{OrderID: in.OrderID, PickedQuantity: 1, Quantity: 2, Message: "Picked 1/2"}, nil
	}
	r := m.engine(t)

	body := func(barcode string) map[string]any {
		return map[string]any{"order_id": 7, "warehouse_id": 2, "barcode": barcode, "worker_name": "Alice"}
	}

	w := doJSON(t, r, http.MethodPost, "/api/scan/pick", body("BC-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Picked 1/2")
	assert.Equal(t, service.PickInput{OrderID: 7, WarehouseID: 2, Barcode: "BC-1", WorkerName: "Alice"}, got)

	w = doJSON(t, r, http.MethodPost, "/api/scan/pick", body("FULL"))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/scan/pick", body("OTHER"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "rejected", errorCode(t, w))

	w = doJSON(t, r, http.MethodPost, "/api/scan/pick", map[string]any{"order_id": 7, "barcode": "BC-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", errorCode(t, w))
}

func TestUpdateStatus(t *testing.T) {
	m := newMocks()
	var (
		gotID     uint
		gotStatus models.OrderStatus
		gotWorker *string
	)
	m.orders.UpdateOrderStatusFunc = func(_ context.Context, id uint, st models.OrderStatus, w *string) (*models.Order, error) {
		gotID, gotStatus, gotWorker = id, st, w
		if id == 9 {
			return nil, service.ErrOrderCompleted
		}
		return &models.Order{ID: id, Status: models.OrderProcessing, WorkerName: w}, nil
	}
	r := m.engine(t)

	w := doJSON(t, r, http.MethodPost, "/api/orders/5/status", map[string]any{"status": "PROCESSING", "worker_name": "Bob"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint(5), gotID)
	assert.Equal(t, models.OrderStatus("PROCESSING"), gotStatus)
	require.NotNil(t, gotWorker)
	assert.Equal(t, "Bob", *gotWorker)

	w = doJSON(t, r, http.MethodPost, "/api/orders/9/status", map[string]any{"status": "PENDING"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/orders/abc/status", map[string]any{"status": "PENDING"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListActiveOrders(t *testing.T) {
	m := newMocks()
	var got *uint
	m.orders.ListActiveOrdersFunc = func(_ context.Context, wid *uint) ([]repository.OrderSummary, error) {
		got = wid
		return []repository.OrderSummary{{ID: 1, BusinessName: "Acme", Status: models.OrderPending}}, nil
	}
	r := m.engine(t)

	w := doJSON(t, r, http.MethodGet, "/api/orders/active?warehouse_id=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, uint(2), *got)

	w = doJSON(t, r, http.MethodGet, "/api/orders/active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, got)

	w = doJSON(t, r, http.MethodGet, "/api/orders/active?warehouse_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderDetails(t *testing.T) {
	m := newMocks()
	name := "Widget"
	m.orders.OrderDetailsFunc = func(_ context.Context, id uint) (*service.OrderDetails, error) {
		return &service.OrderDetails{
			Order:       &models.Order{ID: id, BusinessName: "Acme", Status: models.OrderPending},
			Items:       []repository.OrderItemView{{ProductID: 1, Name: name, Quantity: 3}},
			Allocations: []repository.AllocationView{{ProductID: 1, WarehouseID: 1, Name: name, Quantity: 3}},
		}, nil
	}
	r := m.engine(t)

	w := doJSON(t, r, http.MethodGet, "/api/orders/12", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.OrderDetailsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(12), resp.Order.ID)
	require.Len(t, resp.Allocations, 1)
	assert.Equal(t, int64(3), resp.Allocations[0].Quantity)
}

func TestStockEndpoints(t *testing.T) {
	m := newMocks()
	var (
		adjWID   uint
		adjDelta int64
		added    service.AddStockInput
	)
	m.ledger.AdjustStockFunc = func(_ context.Context, _ uint, wid uint, delta int64) error {
		adjWID, adjDelta = wid, delta
		return nil
	}
	m.ledger.AddStockFunc = func(_ context.Context, in service.AddStockInput) error {
		added = in
		return nil
	}
	r := m.engine(t)

	w := doJSON(t, r, http.MethodPost, "/api/products/quantity", map[string]any{"product_id": 4, "change": -3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint(1), adjWID)
	assert.Equal(t, int64(-3), adjDelta)

	w = doJSON(t, r, http.MethodPost, "/api/products/quantity", map[string]any{"product_id": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/stock", map[string]any{"product_id": 4, "warehouse_id": 3, "quantity": 6, "barcode": "B"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, service.AddStockInput{ProductID: 4, WarehouseID: 3, Quantity: 6, Barcode: "B"}, added)

	added = service.AddStockInput{}
	w = doJSON(t, r, http.MethodPost, "/api/stock", map[string]any{"product_id": 4, "quantity": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", errorCode(t, w))
	assert.Zero(t, added)
}

func TestWorkers(t *testing.T) {
	m := newMocks()
	m.workers.AddWorkerFunc = func(_ context.Context, name string) (*models.Worker, error) {
		if name == "Alice" {
			return nil, service.ErrWorkerExists
		}
		return &models.Worker{ID: 2, Name: name, Status: "Active"}, nil
	}
	m.workers.DeleteWorkerFunc = func(_ context.Context, id uint) error {
		if id == 5 {
			return service.ErrWorkerNotFound
		}
		return nil
	}
	r := m.engine(t)

	assert.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/api/workers", map[string]any{"name": "Bob"}).Code)
	assert.Equal(t, http.StatusConflict, doJSON(t, r, http.MethodPost, "/api/workers", map[string]any{"name": "Alice"}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodDelete, "/api/workers/5", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodDelete, "/api/workers/6", nil).Code)
}

func multipartRequest(t *testing.T, path string, fields map[string]string, fileField, fileName, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateProduct(t *testing.T) {
	m := newMocks()
	var got service.ProductClassInput
	m.catalog.AddProductClassFunc = func(_ context.Context, in service.ProductClassInput) (*models.Product, error) {
		got = in
		return &models.Product{ID: 1, Name: in.Name, Price: in.Price, PackSize: in.PackSize, ImagePath: in.ImagePath}, nil
	}
	r := m.engine(t)

	req := multipartRequest(t, "/api/products",
		map[string]string{"name": "Crate", "price": "12.5", "pack_size": "6", "category": "Boxes"},
		"image", "crate.png", "png-bytes")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Crate", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, int32(6), got.PackSize)
	require.NotNil(t, got.ImagePath)
	assert.True(t, strings.HasPrefix(*got.ImagePath, "uploads/"))
	assert.True(t, strings.HasSuffix(*got.ImagePath, "_crate.png"))

	req = multipartRequest(t, "/api/products", map[string]string{"price": "1"}, "", "", "")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImport(t *testing.T) {
	m := newMocks()
	var got []service.ProductClassInput
	m.catalog.ImportProductsFunc = func(_ context.Context, in []service.ProductClassInput) (int, error) {
		got = in
		return len(in), nil
	}
	r := m.engine(t)

	csv := "Name,Price,Category\nBolt,0.10,Hardware\nNut,0.05,\n"
	req := multipartRequest(t, "/api/import", nil, "file", "products.csv", csv)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.ImportedCount)
	require.Len(t, got, 2)
	assert.Equal(t, "Bolt", got[0].Name)

	req = multipartRequest(t, "/api/import", nil, "", "", "")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProductNotFound(t *testing.T) {
	w := doJSON(t, newMocks().engine(t), http.MethodGet, "/api/products/7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorCode(t, w))
}

func TestEventStream(t *testing.T) {
	m := newMocks()
	m.ledger.ScanHistoryFunc = func(context.Context, int) ([]repository.ScanHistoryRow, error) {
		return []repository.ScanHistoryRow{{Barcode: "BC-1", ScannedAmount: 1}}, nil
	}
	srv := httptest.NewServer(m.engine(t))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	waitFor := func(substr string) {
		t.Helper()
		timeout := time.After(5 * time.Second)
		for {
			select {
			case l, ok := <-lines:
				require.True(t, ok, "stream closed before %q", substr)
				if strings.Contains(l, substr) {
					return
				}
			case <-timeout:
				t.Fatalf("no %q in stream", substr)
			}
		}
	}

	waitFor(service.EventHistoryUpdate)
	waitFor("BC-1")

	m.events.ch <- service.Event{Type: service.EventScan, Payload: service.ScanEvent{Barcode: "BC-2", Quantity: 1}}
	waitFor(service.EventScan)
	waitFor("BC-2")

	close(m.events.ch)
	select {
	case <-m.events.cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("subscription not cancelled after stream end")
	}
}
