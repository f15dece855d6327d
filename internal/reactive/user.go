package reactive

import (
	"context"

	"github.com/coachpo/investflow/internal/openapi"
	"github.com/coachpo/investflow/internal/stream"
)

// User streams the user's broker accounts.
type User struct {
	handles handleSource[openapi.UserContext]
}

// NewUser binds a user adapter to the client's user handle factory.
func NewUser(api openapi.Client, opts ...Option) (*User, error) {
	if err := requireClient(api, DomainUser); err != nil {
		return nil, err
	}
	hs, err := newHandleSource[openapi.UserContext](DomainUser, DefaultUserRate, api.User, opts)
	if err != nil {
		return nil, err
	}
	return &User{handles: hs}, nil
}

// Accounts streams the broker accounts.
func (u *User) Accounts() stream.Stream[openapi.UserAccount] {
	return list(u.handles, func(ctx context.Context, h openapi.UserContext) ([]openapi.UserAccount, error) {
		accounts, err := h.Accounts(ctx)
		if err != nil {
			return nil, err
		}
		return accounts.Accounts, nil
	})
}

// Invalidate drops a cached user handle.
func (u *User) Invalidate() {
	u.handles.invalidate()
}
