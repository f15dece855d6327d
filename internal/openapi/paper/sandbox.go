package paper

import (
	"context"

	"github.com/coachpo/investflow/errs"
	"github.com/coachpo/investflow/internal/openapi"
)

type sandboxHandle struct {
	c *Client
}

func (h sandboxHandle) Register(ctx context.Context, req openapi.SandboxRegisterRequest) (openapi.SandboxAccount, error) {
	if err := h.c.call(ctx); err != nil {
		return openapi.SandboxAccount{}, err
	}
	kind := req.BrokerAccountType
	if kind == "" {
		kind = openapi.BrokerAccountTinkoff
	}
	acct := newAccount(newID(), kind)

	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	h.c.accounts[acct.id] = acct
	h.c.accountSeq = append(h.c.accountSeq, acct.id)
	return openapi.SandboxAccount{BrokerAccountType: kind, BrokerAccountID: acct.id}, nil
}

func (h sandboxHandle) SetCurrencyBalance(ctx context.Context, req openapi.SandboxSetCurrencyBalanceRequest, brokerAccountID string) error {
	if err := h.c.call(ctx); err != nil {
		return err
	}
	if req.Currency == "" || req.Balance.IsNegative() {
		return errs.New(component, errs.CodeInvalid,
			errs.WithMessage("currency balance requires a currency and a non-negative amount"),
			errs.WithField("currency", string(req.Currency)))
	}
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	acct, err := h.c.accountLocked(brokerAccountID)
	if err != nil {
		return err
	}
	acct.currencies[req.Currency] = req.Balance
	return nil
}

func (h sandboxHandle) SetPositionBalance(ctx context.Context, req openapi.SandboxSetPositionBalanceRequest, brokerAccountID string) error {
	if err := h.c.call(ctx); err != nil {
		return err
	}
	if req.Balance.IsNegative() {
		return errs.New(component, errs.CodeInvalid,
			errs.WithMessage("position balance must not be negative"),
			errs.WithField("figi", req.Figi))
	}
	inst, ok := h.c.byFigi[req.Figi]
	if !ok {
		return errs.New(component, errs.CodeNotFound,
			errs.WithMessage("instrument not found"),
			errs.WithField("figi", req.Figi))
	}
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	acct, err := h.c.accountLocked(brokerAccountID)
	if err != nil {
		return err
	}
	if req.Balance.IsZero() {
		delete(acct.positions, req.Figi)
		return nil
	}
	acct.positions[req.Figi] = &position{balance: req.Balance, averagePrice: inst.LastPrice}
	return nil
}

func (h sandboxHandle) RemoveAccount(ctx context.Context, brokerAccountID string) error {
	if err := h.c.call(ctx); err != nil {
		return err
	}
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	acct, err := h.c.accountLocked(brokerAccountID)
	if err != nil {
		return err
	}
	if acct.id == h.c.opts.DefaultAccountID {
		return errs.New(component, errs.CodeConflict,
			errs.WithMessage("the default account cannot be removed"),
			errs.WithField("broker_account_id", acct.id))
	}
	delete(h.c.accounts, acct.id)
	for i, id := range h.c.accountSeq {
		if id == acct.id {
			h.c.accountSeq = append(h.c.accountSeq[:i], h.c.accountSeq[i+1:]...)
			break
		}
	}
	return nil
}

func (h sandboxHandle) ClearAll(ctx context.Context, brokerAccountID string) error {
	if err := h.c.call(ctx); err != nil {
		return err
	}
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	acct, err := h.c.accountLocked(brokerAccountID)
	if err != nil {
		return err
	}
	clear(acct.currencies)
	clear(acct.positions)
	acct.orders = nil
	return nil
}

type userHandle struct {
	c *Client
}

func (h userHandle) Accounts(ctx context.Context) (openapi.UserAccounts, error) {
	if err := h.c.call(ctx); err != nil {
		return openapi.UserAccounts{}, err
	}
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	out := openapi.UserAccounts{Accounts: make([]openapi.UserAccount, 0, len(h.c.accountSeq))}
	for _, id := range h.c.accountSeq {
		acct := h.c.accounts[id]
		out.Accounts = append(out.Accounts, openapi.UserAccount{BrokerAccountType: acct.kind, BrokerAccountID: acct.id})
	}
	return out, nil
}
