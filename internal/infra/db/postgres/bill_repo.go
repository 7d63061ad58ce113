package postgres

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/repository"
)

var _ repository.BillRepository = (*billRepo)(nil)

type billRepo struct{ pool *pgxpool.Pool }

func NewBillRepo(pool *pgxpool.Pool) *billRepo {
	return &billRepo{pool: pool}
}

const billColumns = `platform, order_id, custom_order_id, plan_id, user_id, created_at, buy_count, actually_paid, original_price, raw_data, expired_at, cdk, transferred`

// GetOrCreate inserts the bill if absent and returns the current row.
// ON CONFLICT DO NOTHING plus the follow-up SELECT keeps concurrent
// duplicate deliveries down to a single created row; the returned bill is
// always re-read so callers never act on a stale pre-insert snapshot.
func (r *billRepo) GetOrCreate(ctx context.Context, tx repository.Tx, data model.OrderData) (*model.Bill, bool, error) {
	const ins = `
INSERT INTO bill (platform, order_id, custom_order_id, plan_id, user_id, created_at, buy_count, actually_paid, original_price, raw_data, expired_at, cdk, transferred)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$6,'',0)
ON CONFLICT (platform, order_id) DO NOTHING;`
	tag, err := execSQL(ctx, r.pool, tx, ins,
		data.Platform, data.PlatformTradeNo, data.CustomOrderID, data.PlanID, data.UserID,
		data.CreatedAt, data.BuyCount, data.ActuallyPaid, data.OriginalPrice, data.RawData)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, false, err
		}
		return nil, false, domain.ErrOperationFailed
	}
	created := tag.RowsAffected() == 1

	bill, err := r.Find(ctx, tx, data.Platform, data.PlatformTradeNo)
	if err != nil {
		return nil, false, err
	}
	return bill, created, nil
}

func (r *billRepo) Find(ctx context.Context, tx repository.Tx, platform, orderID string) (*model.Bill, error) {
	q := `SELECT ` + billColumns + ` FROM bill WHERE platform=$1 AND order_id=$2`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, platform, orderID)
	if err != nil {
		return nil, err
	}
	return scanBill(row)
}

func (r *billRepo) FindByCustomOrderID(ctx context.Context, tx repository.Tx, customOrderID string) (*model.Bill, error) {
	q := `SELECT ` + billColumns + ` FROM bill WHERE custom_order_id=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, customOrderID)
	if err != nil {
		return nil, err
	}
	return scanBill(row)
}

// FindByCDK returns every bill sharing the code, newest expiry first, so
// callers can take the head as the authoritative expiry after merges.
func (r *billRepo) FindByCDK(ctx context.Context, tx repository.Tx, cdk string) ([]*model.Bill, error) {
	q := `SELECT ` + billColumns + ` FROM bill WHERE cdk=$1 ORDER BY expired_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, cdk)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectBills(rows)
}

func (r *billRepo) SetCDK(ctx context.Context, tx repository.Tx, platform, orderID, cdk string, expiredAt time.Time) error {
	const q = `UPDATE bill SET cdk=$3, expired_at=$4 WHERE platform=$1 AND order_id=$2;`
	tag, err := execSQL(ctx, r.pool, tx, q, platform, orderID, cdk, expiredAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *billRepo) Update(ctx context.Context, tx repository.Tx, b *model.Bill) error {
	const q = `UPDATE bill SET cdk=$3, expired_at=$4, transferred=$5 WHERE platform=$1 AND order_id=$2;`
	tag, err := execSQL(ctx, r.pool, tx, q, b.Platform, b.OrderID, b.CDK, b.ExpiredAt, b.Transferred)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Lock takes a transaction-scoped advisory lock derived from the bill's
// composite key. Serializes concurrent transfers against one destination.
func (r *billRepo) Lock(ctx context.Context, tx repository.Tx, platform, orderID string) error {
	_, err := execSQL(ctx, r.pool, tx, "SELECT pg_advisory_xact_lock($1)", hashBillKey(platform, orderID))
	return err
}

func (r *billRepo) ListByCDKs(ctx context.Context, tx repository.Tx, cdks []string) ([]*model.Bill, error) {
	if len(cdks) == 0 {
		return nil, nil
	}
	q := `SELECT ` + billColumns + ` FROM bill WHERE cdk = ANY($1) AND transferred >= 0;`
	rows, err := queryRows(ctx, r.pool, tx, q, cdks)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectBills(rows)
}

func hashBillKey(platform, orderID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(platform))
	h.Write([]byte{0})
	h.Write([]byte(orderID))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

func scanBill(row pgx.Row) (*model.Bill, error) {
	b := new(model.Bill)
	err := row.Scan(&b.Platform, &b.OrderID, &b.CustomOrderID, &b.PlanID, &b.UserID, &b.CreatedAt,
		&b.BuyCount, &b.ActuallyPaid, &b.OriginalPrice, &b.RawData, &b.ExpiredAt, &b.CDK, &b.Transferred)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return b, nil
}

func collectBills(rows pgx.Rows) ([]*model.Bill, error) {
	var out []*model.Bill
	for rows.Next() {
		b := new(model.Bill)
		if err := rows.Scan(&b.Platform, &b.OrderID, &b.CustomOrderID, &b.PlanID, &b.UserID, &b.CreatedAt,
			&b.BuyCount, &b.ActuallyPaid, &b.OriginalPrice, &b.RawData, &b.ExpiredAt, &b.CDK, &b.Transferred); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, b)
	}
	return out, nil
}
