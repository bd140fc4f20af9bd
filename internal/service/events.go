package service

import (
	"context"
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"

	"github.com/google/uuid"
)

const (
	EventScan          = "scan_event"
	EventHistoryUpdate = "history_update"
	EventOrderUpdate   = "order_update"
)

type Event struct {
	ID      uuid.UUID `json:"id"`
	Type    string    `json:"type"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

type ScanEvent struct {
	Barcode   string    `json:"barcode"`
	Quantity  int64     `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

type HistoryUpdateEvent struct {
	History []repository.ScanHistoryRow `json:"history"`
}

type OrderUpdateEvent struct {
	OrderID uint               `json:"order_id"`
	Status  models.OrderStatus `json:"status,omitempty"`
	Action  string             `json:"action"`
}

// Notifier доставляет события подписчикам. Доставка не гарантируется:
// ошибки только логируются и не влияют на результат операции.
type Notifier interface {
	Publish(ctx context.Context, e Event) error
}

// AnalyticsCache хранит последний снимок аналитики.
type AnalyticsCache interface {
	Get(ctx context.Context) (*AnalyticsSnapshot, bool, error)
	Set(ctx context.Context, s *AnalyticsSnapshot) error
	Invalidate(ctx context.Context) error
}
