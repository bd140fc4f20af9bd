package producer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"fulfillment-service/internal/service"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const defaultQueueSize = 256

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventProducer публикует события склада в Kafka. Ключом сообщения служит
// тип события, события одного типа идут в одну партицию.
// Запись идёт в фоне через ограниченную очередь, Publish не ждёт брокер.
type EventProducer struct {
	writer  messageWriter
	timeout time.Duration
	log     *zap.Logger

	queue chan kafka.Message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewEventProducer(brokers []string, topic string, log *zap.Logger) *EventProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return newEventProducer(w, 5*time.Second, defaultQueueSize, log)
}

func newEventProducer(w messageWriter, timeout time.Duration, queueSize int, log *zap.Logger) *EventProducer {
	p := &EventProducer{
		writer:  w,
		timeout: timeout,
		log:     log,
		queue:   make(chan kafka.Message, queueSize),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish ставит событие в очередь. При переполненной очереди событие
// отбрасывается с предупреждением.
func (p *EventProducer) Publish(_ context.Context, e service.Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(e.Type),
		Value: value,
		Time:  e.At,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(e.ID.String())},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil
	}
	select {
	case p.queue <- msg:
	default:
		p.log.Warn("kafka queue full, event dropped",
			zap.String("type", e.Type), zap.String("event_id", e.ID.String()))
	}
	return nil
}

func (p *EventProducer) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			p.log.Error("kafka publish failed", zap.String("type", string(msg.Key)), zap.Error(err))
		}
		cancel()
	}
}

// Close дожидается отправки очереди и закрывает writer.
func (p *EventProducer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.writer.Close()
}
