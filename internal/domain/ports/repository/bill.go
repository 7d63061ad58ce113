package repository

import (
	"context"
	"time"

	"cdk-billing/internal/domain/model"
)

type BillRepository interface {
	// GetOrCreate inserts the bill derived from data if no row exists for
	// (platform, platform trade no) and returns the current row either way.
	// The insert must be atomic under the composite-key unique constraint:
	// two concurrent calls for the same order yield the same row, created
	// exactly once.
	GetOrCreate(ctx context.Context, tx Tx, data model.OrderData) (*model.Bill, bool, error)

	FindByCustomOrderID(ctx context.Context, tx Tx, customOrderID string) (*model.Bill, error)
	Find(ctx context.Context, tx Tx, platform, orderID string) (*model.Bill, error)

	// FindByCDK returns all bills sharing a code, newest expiry first.
	FindByCDK(ctx context.Context, tx Tx, cdk string) ([]*model.Bill, error)

	// SetCDK attaches a freshly minted code and its expiry. Ingestion-only.
	SetCDK(ctx context.Context, tx Tx, platform, orderID, cdk string, expiredAt time.Time) error

	// Update rewrites the mutable fields (cdk, expiry, transfer state).
	// Transfer-engine only.
	Update(ctx context.Context, tx Tx, bill *model.Bill) error

	// Lock serializes writers on one bill for the duration of the
	// surrounding transaction.
	Lock(ctx context.Context, tx Tx, platform, orderID string) error

	// ListByCDKs returns non-superseded bills whose cdk is in the given set.
	ListByCDKs(ctx context.Context, tx Tx, cdks []string) ([]*model.Bill, error)
}
