// Package admission bounds how often an expensive step may run.
//
// A Gate is a token bucket with a burst of one: permits that are not consumed
// do not pile up, so a burst never exceeds a single admission.
package admission

import (
	"math"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/coachpo/investflow/errs"
)

const burst = 1

// Admitter decides whether an operation may proceed right now.
type Admitter interface {
	TryAdmit() bool
}

// Gate is a non-blocking token-bucket admission gate. It is safe for concurrent use.
type Gate struct {
	limiter *rate.Limiter
	rate    float64
	now     func() time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithClock overrides the time source, primarily for testing.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGate creates a gate admitting at most permitsPerSecond operations per second.
// Fractional rates are allowed: 0.83 admits roughly one operation every 1.2s.
func NewGate(permitsPerSecond float64, opts ...GateOption) (*Gate, error) {
	if math.IsNaN(permitsPerSecond) || math.IsInf(permitsPerSecond, 0) || permitsPerSecond <= 0 {
		return nil, errs.New("admission", errs.CodeInvalid,
			errs.WithMessage("rate must be a positive finite number of permits per second"),
			errs.WithField("rate", formatRate(permitsPerSecond)))
	}
	g := &Gate{
		limiter: rate.NewLimiter(rate.Limit(permitsPerSecond), burst),
		rate:    permitsPerSecond,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// TryAdmit reports whether a permit is available now and consumes it if so.
// A false result is a normal "not yet", never an error.
func (g *Gate) TryAdmit() bool {
	return g.limiter.AllowN(g.now(), 1)
}

// Delay returns how long until the next permit becomes available, zero if one is available now.
// It does not consume a permit.
func (g *Gate) Delay() time.Duration {
	tokens := g.limiter.TokensAt(g.now())
	if tokens >= 1 {
		return 0
	}
	missing := 1 - tokens
	return time.Duration(missing / g.rate * float64(time.Second))
}

// Rate returns the configured permits per second.
func (g *Gate) Rate() float64 {
	return g.rate
}

// Burst returns the maximum number of permits that can be granted back to back.
func (g *Gate) Burst() int {
	return g.limiter.Burst()
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
