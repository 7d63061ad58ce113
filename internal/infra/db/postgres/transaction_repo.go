package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

// Create appends an audit transaction. The unique index on the
// (from_platform, from_order_id, to_platform, to_order_id) quadruple turns
// a concurrent duplicate into domain.ErrAlreadyExists, which the reward
// engine maps to "reward already given".
func (r *transactionRepo) Create(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	const q = `
INSERT INTO txn (id, from_platform, from_order_id, to_platform, to_order_id, transferred_at, days_delta, new_expired_at, why)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`
	_, err := execSQL(ctx, r.pool, tx, q,
		t.ID, t.FromPlatform, t.FromOrderID, t.ToPlatform, t.ToOrderID, t.TransferredAt, t.DaysDelta, t.NewExpiredAt, t.Why)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) ListByOrder(ctx context.Context, tx repository.Tx, platform, orderID string) ([]*model.Transaction, error) {
	const q = `
SELECT id, from_platform, from_order_id, to_platform, to_order_id, transferred_at, days_delta, new_expired_at, why
  FROM txn
 WHERE (from_platform=$1 AND from_order_id=$2) OR (to_platform=$1 AND to_order_id=$2)
 ORDER BY transferred_at;`
	rows, err := queryRows(ctx, r.pool, tx, q, platform, orderID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t := new(model.Transaction)
		if err := rows.Scan(&t.ID, &t.FromPlatform, &t.FromOrderID, &t.ToPlatform, &t.ToOrderID, &t.TransferredAt, &t.DaysDelta, &t.NewExpiredAt, &t.Why); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, t)
	}
	return out, nil
}
