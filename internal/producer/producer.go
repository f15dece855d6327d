// Package producer hands out API handles built under rate-limited admission.
//
// Every Acquire call asks the admission gate for a permit, retrying with a
// fixed delay until one is granted, and then runs the factory. Handles are
// not memoized; wrap a Producer in Cached when reuse is wanted.
package producer

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/investflow/errs"
	"github.com/coachpo/investflow/internal/admission"
	"github.com/coachpo/investflow/internal/observability"
	"github.com/coachpo/investflow/internal/telemetry"
)

// DefaultRetryDelay is the fixed pause between denied admission attempts.
const DefaultRetryDelay = time.Second

// ErrNotAdmitted marks an attempt the admission gate turned away.
var ErrNotAdmitted = errors.New("admission not granted")

// Factory constructs one handle. It may be expensive and it may fail.
type Factory[T any] func() (T, error)

// Source is anything that can hand out a handle on demand.
type Source[T any] interface {
	Acquire(ctx context.Context) (T, error)
}

// delayer is implemented by admitters that can tell when the next permit is due.
type delayer interface {
	Delay() time.Duration
}

// Producer builds handles through a rate-limited admission gate.
type Producer[T any] struct {
	name       string
	gate       admission.Admitter
	factory    Factory[T]
	retryDelay time.Duration
	maxWait    time.Duration
	logger     observability.Logger

	granted  metric.Int64Counter
	denied   metric.Int64Counter
	failures metric.Int64Counter
	waited   metric.Float64Histogram
}

type options struct {
	name          string
	retryDelay    time.Duration
	maxWait       time.Duration
	logger        observability.Logger
	meterProvider metric.MeterProvider
	admitter      admission.Admitter
}

// Option configures a Producer.
type Option func(*options)

// WithName labels logs and metrics with the API domain served by the producer.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithRetryDelay overrides the fixed delay between denied attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retryDelay = d
		}
	}
}

// WithMaxWait bounds how long Acquire keeps retrying a denied admission.
// Zero, the default, retries until admitted or the context ends.
func WithMaxWait(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.maxWait = d
		}
	}
}

// WithLogger sets the logger used for admission diagnostics.
func WithLogger(logger observability.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMeterProvider sets the provider for producer metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithAdmitter replaces the internally built gate. The configured rate is still validated.
func WithAdmitter(a admission.Admitter) Option {
	return func(o *options) { o.admitter = a }
}

// New creates a producer admitting at most permitsPerSecond factory runs per second.
func New[T any](permitsPerSecond float64, factory Factory[T], opts ...Option) (*Producer[T], error) {
	if factory == nil {
		return nil, errs.New("producer", errs.CodeInvalid, errs.WithMessage("factory must not be nil"))
	}
	cfg := options{retryDelay: DefaultRetryDelay}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	gate, err := admission.NewGate(permitsPerSecond)
	if err != nil {
		return nil, err
	}
	var admitter admission.Admitter = gate
	if cfg.admitter != nil {
		admitter = cfg.admitter
	}
	logger := cfg.logger
	if logger == nil {
		logger = observability.Log()
	}
	mp := cfg.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	p := &Producer[T]{
		name:       cfg.name,
		gate:       admitter,
		factory:    factory,
		retryDelay: cfg.retryDelay,
		maxWait:    cfg.maxWait,
		logger:     logger,
	}
	p.initMetrics(mp)
	return p, nil
}

func (p *Producer[T]) initMetrics(mp metric.MeterProvider) {
	meter := mp.Meter("producer")
	p.granted, _ = meter.Int64Counter(telemetry.MetricAdmissionGranted,
		metric.WithDescription("Admission attempts granted by the gate"),
		metric.WithUnit("{attempt}"))
	p.denied, _ = meter.Int64Counter(telemetry.MetricAdmissionDenied,
		metric.WithDescription("Admission attempts denied by the gate"),
		metric.WithUnit("{attempt}"))
	p.failures, _ = meter.Int64Counter(telemetry.MetricFactoryFailures,
		metric.WithDescription("Handle construction failures"),
		metric.WithUnit("{failure}"))
	p.waited, _ = meter.Float64Histogram(telemetry.MetricAcquireDuration,
		metric.WithDescription("Time spent acquiring a handle"),
		metric.WithUnit("ms"))
}

// Name returns the domain label of the producer.
func (p *Producer[T]) Name() string {
	return p.name
}

// Acquire waits for admission and then builds a fresh handle.
//
// Denied attempts are retried every retry delay without limit unless a max
// wait was configured. A factory error is returned as is and is not retried.
// If ctx ends before admission, the factory is not run and ctx.Err() is returned.
func (p *Producer[T]) Acquire(ctx context.Context) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	attempt := 0
	handle, err := backoff.Retry(ctx, func() (T, error) {
		var zero T
		attempt++
		if err := ctx.Err(); err != nil {
			return zero, backoff.Permanent(err)
		}
		if !p.gate.TryAdmit() {
			p.add(ctx, p.denied)
			fields := []observability.Field{
				observability.F("domain", p.name),
				observability.F("attempt", attempt),
				observability.F("retry_in", p.retryDelay),
			}
			if d, ok := p.gate.(delayer); ok {
				fields = append(fields, observability.F("next_permit_in", d.Delay()))
			}
			p.logger.Debug("admission denied", fields...)
			return zero, ErrNotAdmitted
		}
		p.add(ctx, p.granted)
		p.logger.Debug("admission granted",
			observability.F("domain", p.name),
			observability.F("attempt", attempt))
		h, err := p.factory()
		if err != nil {
			p.add(ctx, p.failures)
			return zero, backoff.Permanent(err)
		}
		return h, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(p.retryDelay)),
		backoff.WithMaxElapsedTime(p.maxWait),
	)
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Cause(ctx)) {
		err = ctx.Err()
	}
	p.observe(ctx, start, err)
	if errors.Is(err, ErrNotAdmitted) {
		var zero T
		return zero, errs.New("producer", errs.CodeRateLimited,
			errs.WithMessage("admission wait exceeded"),
			errs.WithField("domain", p.name),
			errs.WithField("max_wait", p.maxWait.String()),
			errs.WithCause(err))
	}
	return handle, err
}

func (p *Producer[T]) add(ctx context.Context, counter metric.Int64Counter) {
	if counter == nil {
		return
	}
	counter.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(telemetry.DomainAttributes(p.name)...))
}

func (p *Producer[T]) observe(ctx context.Context, start time.Time, err error) {
	if p.waited == nil {
		return
	}
	result := telemetry.ResultSuccess
	switch {
	case err == nil:
	case errors.Is(err, ErrNotAdmitted):
		result = telemetry.ResultTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result = telemetry.ResultCanceled
	default:
		result = telemetry.ResultFailure
	}
	elapsed := float64(time.Since(start)) / float64(time.Millisecond)
	p.waited.Record(context.WithoutCancel(ctx), elapsed,
		metric.WithAttributes(telemetry.AcquireAttributes(p.name, result)...))
}
