package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Scheduler struct {
	svc      *Service
	interval time.Duration
	log      *zap.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewScheduler(svc *Service, interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{
		svc:      svc,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start запускает периодическую проверку расхождений
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("starting drift detection scheduler", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

// Stop останавливает планировщик и ждёт выхода горутины
func (s *Scheduler) Stop() {
	s.log.Info("stopping drift detection scheduler")
	close(s.stopCh)
	<-s.doneCh
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Выполняем сразу при старте
	if _, err := s.svc.DetectDrift(ctx); err != nil {
		s.log.Error("initial drift detection failed", zap.Error(err))
	}

	for {
		select {
		case <-ticker.C:
			if _, err := s.svc.DetectDrift(ctx); err != nil {
				s.log.Error("drift detection failed", zap.Error(err))
			}
		case <-s.stopCh:
			s.log.Info("drift detection stopped")
			return
		case <-ctx.Done():
			s.log.Info("drift detection cancelled")
			return
		}
	}
}

// RunOnceNow выполняет ремонт немедленно
func (s *Scheduler) RunOnceNow(ctx context.Context) (*Report, error) {
	return s.svc.RepairDrift(ctx)
}
