package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"fulfillment-service/internal/dto"
	"fulfillment-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Subscriber источник живых событий для SSE.
type Subscriber interface {
	Subscribe() (<-chan service.Event, func())
}

type ScanHandler struct {
	ledger    service.StockLedger
	analytics service.AnalyticsService
	events    Subscriber
	keepAlive time.Duration
	log       *zap.Logger
}

func NewScanHandler(ledger service.StockLedger, analytics service.AnalyticsService, events Subscriber, log *zap.Logger) *ScanHandler {
	return &ScanHandler{
		ledger:    ledger,
		analytics: analytics,
		events:    events,
		keepAlive: 25 * time.Second,
		log:       log,
	}
}

func (h *ScanHandler) LogScan(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, "barcode required", err)
		return
	}
	if err := h.ledger.LogScan(c.Request.Context(), req.Barcode, req.Quantity); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "success"})
}

func (h *ScanHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.ledger.ScanHistory(c.Request.Context(), limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ScanHandler) Analytics(c *gin.Context) {
	snap, err := h.analytics.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Stream отдаёт события через SSE. Сразу после подключения клиент
// получает актуальную историю сканирований.
func (h *ScanHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	ch, cancel := h.events.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if rows, err := h.ledger.ScanHistory(ctx, 50); err != nil {
		h.log.Warn("Не удалось получить историю для нового подписчика", zap.Error(err))
	} else {
		c.SSEvent(service.EventHistoryUpdate, service.Event{
			ID:      uuid.New(),
			Type:    service.EventHistoryUpdate,
			At:      time.Now().UTC(),
			Payload: service.HistoryUpdateEvent{History: rows},
		})
		c.Writer.Flush()
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(e.Type, e)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		case <-ctx.Done():
			return false
		}
	})
}
