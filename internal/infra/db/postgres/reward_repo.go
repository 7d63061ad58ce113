package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/repository"
)

var _ repository.RewardRepository = (*rewardRepo)(nil)

type rewardRepo struct{ pool *pgxpool.Pool }

func NewRewardRepo(pool *pgxpool.Pool) *rewardRepo {
	return &rewardRepo{pool: pool}
}

const rewardColumns = `reward_key, title, start_at, expired_at, valid_days, applications, modules, remaining, received_count, order_created_after, order_created_before`

func (r *rewardRepo) FindByKey(ctx context.Context, tx repository.Tx, rewardKey string) (*model.Reward, error) {
	q := `SELECT ` + rewardColumns + ` FROM reward WHERE reward_key=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, rewardKey)
	if err != nil {
		return nil, err
	}
	rw := new(model.Reward)
	err = row.Scan(&rw.RewardKey, &rw.Title, &rw.StartAt, &rw.ExpiredAt, &rw.ValidDays, &rw.Applications, &rw.Modules,
		&rw.Remaining, &rw.ReceivedCount, &rw.OrderCreatedAfter, &rw.OrderCreatedBefore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return rw, nil
}

func (r *rewardRepo) Save(ctx context.Context, tx repository.Tx, rw *model.Reward) error {
	const q = `
INSERT INTO reward (reward_key, title, start_at, expired_at, valid_days, applications, modules, remaining, received_count, order_created_after, order_created_before)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (reward_key) DO UPDATE SET
  title=$2, start_at=$3, expired_at=$4, valid_days=$5, applications=$6, modules=$7, remaining=$8, received_count=$9, order_created_after=$10, order_created_before=$11;`
	_, err := execSQL(ctx, r.pool, tx, q,
		rw.RewardKey, rw.Title, rw.StartAt, rw.ExpiredAt, rw.ValidDays, rw.Applications, rw.Modules,
		rw.Remaining, rw.ReceivedCount, rw.OrderCreatedAfter, rw.OrderCreatedBefore)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *rewardRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Reward, error) {
	q := `SELECT ` + rewardColumns + ` FROM reward ORDER BY start_at;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Reward
	for rows.Next() {
		rw := new(model.Reward)
		if err := rows.Scan(&rw.RewardKey, &rw.Title, &rw.StartAt, &rw.ExpiredAt, &rw.ValidDays, &rw.Applications, &rw.Modules,
			&rw.Remaining, &rw.ReceivedCount, &rw.OrderCreatedAfter, &rw.OrderCreatedBefore); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, rw)
	}
	return out, nil
}

// MarkRedeemed moves one unit from remaining to received_count. The
// remaining > 0 guard keeps a losing concurrent redeemer from driving the
// counter negative.
func (r *rewardRepo) MarkRedeemed(ctx context.Context, tx repository.Tx, rewardKey string) error {
	const q = `
UPDATE reward SET remaining = remaining - 1, received_count = received_count + 1
 WHERE reward_key=$1 AND remaining > 0;`
	tag, err := execSQL(ctx, r.pool, tx, q, rewardKey)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRewardExhausted
	}
	return nil
}
