package notify

import (
	"context"
	"errors"
	"sync"

	"fulfillment-service/internal/service"

	"go.uber.org/zap"
)

const defaultBuffer = 16

// Hub раздаёт события подключённым клиентам (SSE). Медленный подписчик
// теряет события, издатель никогда не блокируется.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan service.Event
	next   uint64
	buf    int
	closed bool
	log    *zap.Logger
}

func NewHub(buf int, log *zap.Logger) *Hub {
	if buf <= 0 {
		buf = defaultBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		subs: make(map[uint64]chan service.Event),
		buf:  buf,
		log:  log,
	}
}

// Subscribe возвращает канал событий и функцию отписки. После Close канал закрыт.
func (h *Hub) Subscribe() (<-chan service.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan service.Event, h.buf)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

func (h *Hub) Publish(_ context.Context, e service.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.log.Debug("подписчик не успевает, событие отброшено",
				zap.Uint64("subscriber", id),
				zap.String("type", e.Type),
			)
		}
	}
	return nil
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Multi рассылает событие всем получателям и собирает их ошибки.
type Multi []service.Notifier

func (m Multi) Publish(ctx context.Context, e service.Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
