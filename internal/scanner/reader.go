package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ScanLogger принимает считанные штрихкоды.
type ScanLogger interface {
	LogScan(ctx context.Context, barcode string, quantity int64) error
}

type Opener func() (io.ReadCloser, error)

var errDisconnected = errors.New("scanner disconnected")

// Reader читает штрихкоды построчно из устройства сканера и при обрыве
// переподключается с экспоненциальной задержкой.
type Reader struct {
	path   string
	open   Opener
	ledger ScanLogger
	log    *zap.Logger

	initialInterval time.Duration
	maxInterval     time.Duration
}

func NewReader(path string, ledger ScanLogger, log *zap.Logger) *Reader {
	return &Reader{
		path:            path,
		open:            func() (io.ReadCloser, error) { return os.Open(path) },
		ledger:          ledger,
		log:             log.With(zap.String("device", path)),
		initialInterval: 500 * time.Millisecond,
		maxInterval:     30 * time.Second,
	}
}

// Run блокируется до отмены ctx.
func (r *Reader) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = 0

	err := backoff.RetryNotify(
		func() error { return r.session(ctx, b) },
		backoff.WithContext(b, ctx),
		func(err error, wait time.Duration) {
			r.log.Warn("сканер недоступен, повтор подключения", zap.Error(err), zap.Duration("wait", wait))
		},
	)
	if ctx.Err() != nil {
		r.log.Info("чтение сканера остановлено")
		return nil
	}
	return err
}

func (r *Reader) session(ctx context.Context, b backoff.BackOff) error {
	if ctx.Err() != nil {
		return backoff.Permanent(ctx.Err())
	}
	rc, err := r.open()
	if err != nil {
		return fmt.Errorf("open %s: %w", r.path, err)
	}
	r.log.Info("сканер подключён")
	b.Reset()

	// чтение из устройства не реагирует на ctx, поэтому закрываем его сами
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = rc.Close()
		case <-done:
		}
	}()
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		code := strings.TrimSpace(sc.Text())
		if code == "" {
			continue
		}
		if err := r.ledger.LogScan(ctx, code, 1); err != nil {
			r.log.Error("не удалось записать сканирование", zap.String("barcode", code), zap.Error(err))
			continue
		}
		r.log.Debug("штрихкод считан", zap.String("barcode", code))
	}
	if ctx.Err() != nil {
		return backoff.Permanent(ctx.Err())
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return errDisconnected
}
