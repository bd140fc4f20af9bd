package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// Pinger проверка зависимости, от которой зависит статус health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type OpsServer struct {
	Server *grpc.Server
	health *health.Server
	db     Pinger
	log    *zap.Logger
}

// NewOpsServer собирает служебный gRPC-сервер: health, reflection и логирование вызовов.
func NewOpsServer(db Pinger, log *zap.Logger) *OpsServer {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(NewLoggingUnaryServerInterceptor(log)),
	)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(srv, healthSrv)

	reflection.Register(srv)

	return &OpsServer{Server: srv, health: healthSrv, db: db, log: log}
}

// WatchDB периодически пингует БД и переключает статус health.
func (s *OpsServer) WatchDB(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := s.db.PingContext(pctx)
			cancel()
			switch {
			case err != nil && serving:
				s.log.Warn("БД недоступна, health NOT_SERVING", zap.Error(err))
				s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
				serving = false
			case err == nil && !serving:
				s.log.Info("БД снова доступна, health SERVING")
				s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
				serving = true
			}
		}
	}
}

func (s *OpsServer) Shutdown() {
	s.health.Shutdown()
	s.Server.GracefulStop()
}

func NewLoggingUnaryServerInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("latency", time.Since(start)),
			zap.String("code", status.Code(err).String()),
		}
		if err != nil {
			log.Warn("grpc call failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("grpc call", fields...)
		}
		return resp, err
	}
}
