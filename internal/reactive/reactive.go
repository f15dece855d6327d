// Package reactive exposes each trading API domain as cold streams.
//
// Every adapter owns one resource producer bound to one handle factory of the
// underlying client. An operation acquires a handle, issues exactly one
// remote call and reshapes the result: lists become element streams,
// optional results become zero-or-one values, void calls become completions.
// Rate limiting applies to handle acquisition only, not to the calls made
// with a handle. Remote failures are returned unchanged and never retried.
package reactive

import (
	"context"
	"reflect"
	"time"

	"github.com/coachpo/investflow/errs"
	"github.com/coachpo/investflow/internal/openapi"
	"github.com/coachpo/investflow/internal/observability"
	"github.com/coachpo/investflow/internal/producer"
	"github.com/coachpo/investflow/internal/stream"
)

// Domain names used as producer labels.
const (
	DomainMarket     = "market"
	DomainOrders     = "orders"
	DomainOrdersList = "orders_list"
	DomainPortfolio  = "portfolio"
	DomainOperations = "operations"
	DomainSandbox    = "sandbox"
	DomainUser       = "user"
)

// Default handle acquisition rates in permits per second.
const (
	DefaultMarketRate     = 2.0
	DefaultOrdersRate     = 0.83
	DefaultOrdersListRate = 1.65
	DefaultPortfolioRate  = 2.0
	DefaultOperationsRate = 2.0
	DefaultSandboxRate    = 2.0
	DefaultUserRate       = 2.0
)

type settings struct {
	rate         float64
	cacheEnabled bool
	cacheTTL     time.Duration
	logger       observability.Logger
	producerOpts []producer.Option
}

// Option configures an adapter.
type Option func(*settings)

// WithRate overrides the adapter's handle acquisition rate. Non-positive values keep the default.
func WithRate(permitsPerSecond float64) Option {
	return func(s *settings) {
		if permitsPerSecond > 0 {
			s.rate = permitsPerSecond
		}
	}
}

// WithHandleCache reuses acquired handles for ttl instead of rebuilding them
// on every call. A zero ttl keeps a handle until the adapter's Invalidate is called.
func WithHandleCache(ttl time.Duration) Option {
	return func(s *settings) {
		s.cacheEnabled = true
		s.cacheTTL = ttl
	}
}

// WithLogger sets the logger for handle construction and admission diagnostics.
func WithLogger(logger observability.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithProducerOptions forwards options to the adapter's resource producer.
func WithProducerOptions(opts ...producer.Option) Option {
	return func(s *settings) { s.producerOpts = append(s.producerOpts, opts...) }
}

// handleSource is the acquisition side of an adapter.
type handleSource[H any] struct {
	domain string
	source producer.Source[H]
	cache  *producer.Cached[H]
}

func newHandleSource[H any](domain string, defaultRate float64, factory producer.Factory[H], opts []Option) (handleSource[H], error) {
	s := settings{rate: defaultRate}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	logger := s.logger
	if logger == nil {
		logger = observability.Log()
	}
	build := func() (H, error) {
		logger.Debug("creating handle", observability.F("domain", domain))
		return factory()
	}
	popts := append([]producer.Option{producer.WithName(domain), producer.WithLogger(logger)}, s.producerOpts...)
	p, err := producer.New[H](s.rate, build, popts...)
	if err != nil {
		return handleSource[H]{}, err
	}
	hs := handleSource[H]{domain: domain, source: p}
	if s.cacheEnabled {
		hs.cache = producer.NewCached[H](p, s.cacheTTL)
		hs.source = hs.cache
	}
	return hs, nil
}

// invalidate drops a cached handle, if caching is enabled.
func (hs handleSource[H]) invalidate() {
	if hs.cache != nil {
		hs.cache.Invalidate()
	}
}

func requireClient(api openapi.Client, domain string) error {
	if isNil(api) {
		return errs.New("reactive", errs.CodeInvalid,
			errs.WithMessage("api client must not be nil"),
			errs.WithField("domain", domain))
	}
	return nil
}

// isNil reports whether api is nil or an interface holding a nil pointer.
func isNil(api openapi.Client) bool {
	if api == nil {
		return true
	}
	v := reflect.ValueOf(api)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func list[H, T any](hs handleSource[H], call func(context.Context, H) ([]T, error)) stream.Stream[T] {
	return stream.FromList(func(ctx context.Context) ([]T, error) {
		h, err := hs.source.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		return call(ctx, h)
	})
}

func optional[H, T any](hs handleSource[H], call func(context.Context, H) (*T, error)) stream.Optional[T] {
	return stream.FromPointer(func(ctx context.Context) (*T, error) {
		h, err := hs.source.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		return call(ctx, h)
	})
}

func value[H, T any](hs handleSource[H], call func(context.Context, H) (T, error)) stream.Optional[T] {
	return stream.FromValue(func(ctx context.Context) (T, error) {
		h, err := hs.source.Acquire(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		return call(ctx, h)
	})
}

func action[H any](hs handleSource[H], call func(context.Context, H) error) stream.Completion {
	return stream.FromAction(func(ctx context.Context) error {
		h, err := hs.source.Acquire(ctx)
		if err != nil {
			return err
		}
		return call(ctx, h)
	})
}
