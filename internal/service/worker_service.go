package service

import (
	"context"
	"fmt"
	"strings"

	"fulfillment-service/internal/models"

	"go.uber.org/zap"
)

type workerService struct {
	base
}

func NewWorkerService(d Deps) *workerService {
	return &workerService{base: newBase(d)}
}

func (s *workerService) ListWorkers(ctx context.Context) ([]models.Worker, error) {
	list, err := s.repo.Workers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	return list, nil
}

func (s *workerService) AddWorker(ctx context.Context, name string) (*models.Worker, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "required")
	}
	w := &models.Worker{Name: name, Status: "Active", LastActive: s.now().UTC()}
	created, err := s.repo.Workers.Create(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("create worker: %w", err)
	}
	if !created {
		return nil, ErrWorkerExists
	}
	s.log.Info("работник добавлен", zap.Uint("worker_id", w.ID), zap.String("name", w.Name))
	return w, nil
}

func (s *workerService) DeleteWorker(ctx context.Context, id uint) error {
	ok, err := s.repo.Workers.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete worker: %w", err)
	}
	if !ok {
		return ErrWorkerNotFound
	}
	s.log.Info("работник удалён", zap.Uint("worker_id", id))
	return nil
}
