package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shelfmate/core/internal/infrastructure/metrics"
	"github.com/shelfmate/core/internal/ports"
)

// InstrumentedStorage records Prometheus metrics around another storage.
type InstrumentedStorage struct {
	next    ports.SnapshotStorage
	metrics *metrics.Metrics
}

// NewInstrumentedStorage decorates next
func NewInstrumentedStorage(next ports.SnapshotStorage, m *metrics.Metrics) *InstrumentedStorage {
	return &InstrumentedStorage{next: next, metrics: m}
}

func (s *InstrumentedStorage) observe(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case errors.Is(err, ports.ErrKeyNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	s.metrics.StorageOps.WithLabelValues(op, result).Inc()
	s.metrics.StorageDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *InstrumentedStorage) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	data, err := s.next.Get(ctx, key)
	s.observe("get", start, err)
	return data, err
}

func (s *InstrumentedStorage) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.next.Set(ctx, key, value)
	s.observe("set", start, err)
	if err == nil {
		s.metrics.SnapshotBytes.Set(float64(len(value)))
	}
	return err
}

func (s *InstrumentedStorage) Remove(ctx context.Context, key string) error {
	start := time.Now()
	err := s.next.Remove(ctx, key)
	s.observe("remove", start, err)
	if err == nil {
		s.metrics.SnapshotBytes.Set(0)
	}
	return err
}

func (s *InstrumentedStorage) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Unwrap returns the decorated storage
func (s *InstrumentedStorage) Unwrap() ports.SnapshotStorage {
	return s.next
}

func (s *InstrumentedStorage) Close() error {
	return s.next.Close()
}
