package adapter

import (
	"context"
	"time"
)

// CodeService is the contract to the external CDK backend that mints and
// renews redemption codes. A failed call returns an error; an empty code
// with a nil error never happens.
type CodeService interface {
	// Acquire mints a code valid through expiry, drawn from group's pool.
	Acquire(ctx context.Context, expiry time.Time, group string) (string, error)
	// Renew moves an existing code's expiry. The backend rejects past
	// timestamps; callers add a small forward buffer when setting "now".
	Renew(ctx context.Context, cdk string, expiry time.Time) error
}

// TokenValidator checks a caller-supplied bearer credential for a scope
// against the external validation service. Fails closed: any transport or
// protocol error yields false.
type TokenValidator interface {
	Validate(ctx context.Context, rid, token string) bool
}
