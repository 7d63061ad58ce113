package repository

import (
	"context"

	"cdk-billing/internal/domain/model"
)

type TransactionRepository interface {
	// Create appends an audit transaction. Returns domain.ErrAlreadyExists
	// when a row with the same (from_platform, from_order_id, to_platform,
	// to_order_id) already exists; reward redemption relies on this as its
	// exactly-once guard.
	Create(ctx context.Context, tx Tx, t *model.Transaction) error

	ListByOrder(ctx context.Context, tx Tx, platform, orderID string) ([]*model.Transaction, error)
}
