// Package otelstore wraps a session store with OpenTelemetry metrics.
//
// The wrapper is transparent: records, results, and errors pass through the
// wrapped store unchanged. Two instruments are registered on the supplied
// meter, a counter of operations partitioned by operation and outcome, and a
// latency histogram partitioned by operation.
package otelstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sesskit/sesskit"
)

// Instrument names registered on the meter.
const (
	OperationsName = "sesskit.store.operations"
	DurationName   = "sesskit.store.duration"
)

var (
	ErrNilMeter = errors.New("nil meter")
	ErrNilStore = errors.New("nil store")
)

// Store decorates another [sesskit.Store] with metrics. It adds no other
// behavior: no retries, no caching, no error translation.
type Store struct {
	next     sesskit.Store
	ops      metric.Int64Counter
	duration metric.Float64Histogram
}

var _ sesskit.Store = (*Store)(nil)

// New wraps next with instruments registered on meter.
func New(next sesskit.Store, meter metric.Meter) (*Store, error) {
	if next == nil {
		return nil, ErrNilStore
	}
	if meter == nil {
		return nil, ErrNilMeter
	}

	ops, err := meter.Int64Counter(
		OperationsName,
		metric.WithDescription("Session store operations partitioned by operation and outcome."),
	)
	if err != nil {
		return nil, fmt.Errorf("create operations counter: %w", err)
	}
	duration, err := meter.Float64Histogram(
		DurationName,
		metric.WithDescription("Session store operation latency."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return &Store{next: next, ops: ops, duration: duration}, nil
}

// Save forwards to the wrapped store and records the outcome.
func (s *Store) Save(ctx context.Context, rec *sesskit.Record) error {
	start := time.Now()
	err := s.next.Save(ctx, rec)
	s.observe(ctx, "save", start, err, false)
	return err
}

// Load forwards to the wrapped store and records the outcome. An absent
// record counts as outcome "miss", not as an error.
func (s *Store) Load(ctx context.Context, id string) (*sesskit.Record, error) {
	start := time.Now()
	rec, err := s.next.Load(ctx, id)
	s.observe(ctx, "load", start, err, err == nil && rec == nil)
	return rec, err
}

// Delete forwards to the wrapped store and records the outcome.
func (s *Store) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, id)
	s.observe(ctx, "delete", start, err, false)
	return err
}

func (s *Store) observe(ctx context.Context, op string, start time.Time, err error, miss bool) {
	s.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome(err, miss)),
	))
	s.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", op),
	))
}

func outcome(err error, miss bool) string {
	switch {
	case err == nil && miss:
		return "miss"
	case err == nil:
		return "ok"
	case errors.Is(err, sesskit.ErrEncode):
		return "encode_error"
	case errors.Is(err, sesskit.ErrDecode):
		return "decode_error"
	case errors.Is(err, sesskit.ErrBackend):
		return "backend_error"
	default:
		return "error"
	}
}
