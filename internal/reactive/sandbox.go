package reactive

import (
	"context"

	"github.com/coachpo/investflow/internal/openapi"
	"github.com/coachpo/investflow/internal/stream"
)

// Sandbox manages sandbox accounts. Every mutation is one remote change per subscription.
type Sandbox struct {
	handles handleSource[openapi.SandboxContext]
}

// NewSandbox binds a sandbox adapter to the client's sandbox handle factory.
func NewSandbox(api openapi.Client, opts ...Option) (*Sandbox, error) {
	if err := requireClient(api, DomainSandbox); err != nil {
		return nil, err
	}
	hs, err := newHandleSource[openapi.SandboxContext](DomainSandbox, DefaultSandboxRate, api.Sandbox, opts)
	if err != nil {
		return nil, err
	}
	return &Sandbox{handles: hs}, nil
}

// Register creates a sandbox broker account.
func (s *Sandbox) Register(req openapi.SandboxRegisterRequest) stream.Optional[openapi.SandboxAccount] {
	return value(s.handles, func(ctx context.Context, h openapi.SandboxContext) (openapi.SandboxAccount, error) {
		return h.Register(ctx, req)
	})
}

// SetCurrencyBalance sets a cash balance.
func (s *Sandbox) SetCurrencyBalance(req openapi.SandboxSetCurrencyBalanceRequest, brokerAccountID string) stream.Completion {
	return action(s.handles, func(ctx context.Context, h openapi.SandboxContext) error {
		return h.SetCurrencyBalance(ctx, req, brokerAccountID)
	})
}

// SetPositionBalance sets an instrument holding.
func (s *Sandbox) SetPositionBalance(req openapi.SandboxSetPositionBalanceRequest, brokerAccountID string) stream.Completion {
	return action(s.handles, func(ctx context.Context, h openapi.SandboxContext) error {
		return h.SetPositionBalance(ctx, req, brokerAccountID)
	})
}

// RemoveAccount deletes a sandbox broker account.
func (s *Sandbox) RemoveAccount(brokerAccountID string) stream.Completion {
	return action(s.handles, func(ctx context.Context, h openapi.SandboxContext) error {
		return h.RemoveAccount(ctx, brokerAccountID)
	})
}

// ClearAll resets every balance and position of the account.
func (s *Sandbox) ClearAll(brokerAccountID string) stream.Completion {
	return action(s.handles, func(ctx context.Context, h openapi.SandboxContext) error {
		return h.ClearAll(ctx, brokerAccountID)
	})
}

// Invalidate drops a cached sandbox handle.
func (s *Sandbox) Invalidate() {
	s.handles.invalidate()
}
