package service

import (
	"context"
	"time"

	"fulfillment-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const historyLimit = 50

// Deps общие зависимости сервисов. Notifier и Cache могут быть nil.
type Deps struct {
	Repo     *repository.Repository
	Notifier Notifier
	Cache    AnalyticsCache
	Log      *zap.Logger
}

type base struct {
	repo   *repository.Repository
	notify Notifier
	cache  AnalyticsCache
	log    *zap.Logger
	now    func() time.Time
}

func newBase(d Deps) base {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return base{
		repo:   d.Repo,
		notify: d.Notifier,
		cache:  d.Cache,
		log:    log,
		now:    time.Now,
	}
}

func (b *base) publish(ctx context.Context, typ string, payload any) {
	if b.notify == nil {
		return
	}
	e := Event{ID: uuid.New(), Type: typ, At: b.now().UTC(), Payload: payload}
	if err := b.notify.Publish(ctx, e); err != nil {
		b.log.Warn("не удалось отправить событие", zap.String("type", typ), zap.Error(err))
	}
}

// publishHistory рассылает свежий срез истории сканирований.
func (b *base) publishHistory(ctx context.Context) {
	if b.notify == nil {
		return
	}
	rows, err := b.repo.Scans.History(ctx, historyLimit)
	if err != nil {
		b.log.Warn("не удалось получить историю сканирований", zap.Error(err))
		return
	}
	b.publish(ctx, EventHistoryUpdate, HistoryUpdateEvent{History: rows})
}

// invalidate сбрасывает кэш аналитики после изменяющей операции.
func (b *base) invalidate(ctx context.Context) {
	if b.cache == nil {
		return
	}
	if err := b.cache.Invalidate(ctx); err != nil {
		b.log.Warn("не удалось сбросить кэш аналитики", zap.Error(err))
	}
}
