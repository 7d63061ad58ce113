package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/repository"
)

var _ repository.CheckInRepository = (*checkInRepo)(nil)

type checkInRepo struct{ pool *pgxpool.Pool }

func NewCheckInRepo(pool *pgxpool.Pool) *checkInRepo {
	return &checkInRepo{pool: pool}
}

// GetOrCreate records the first activation of a cdk. The unique index on
// checkin(cdk) makes repeated activations of the same code idempotent.
func (r *checkInRepo) GetOrCreate(ctx context.Context, tx repository.Tx, ci *model.CheckIn) (*model.CheckIn, bool, error) {
	if ci.ID == "" {
		ci.ID = uuid.NewString()
	}
	const ins = `
INSERT INTO checkin (id, cdk, activated_at, application, module, user_agent)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (cdk) DO NOTHING;`
	tag, err := execSQL(ctx, r.pool, tx, ins, ci.ID, ci.CDK, ci.ActivatedAt, ci.Application, ci.Module, ci.UserAgent)
	if err != nil {
		return nil, false, domain.ErrOperationFailed
	}
	created := tag.RowsAffected() == 1

	const sel = `SELECT id, cdk, activated_at, application, module, user_agent FROM checkin WHERE cdk=$1;`
	row, err := pickRow(ctx, r.pool, tx, sel, ci.CDK)
	if err != nil {
		return nil, false, err
	}
	got := new(model.CheckIn)
	if err := row.Scan(&got.ID, &got.CDK, &got.ActivatedAt, &got.Application, &got.Module, &got.UserAgent); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, domain.ErrReadDatabaseRow
	}
	return got, created, nil
}

func (r *checkInRepo) ListByApplication(ctx context.Context, tx repository.Tx, application string, from, to time.Time) ([]*model.CheckIn, error) {
	q := `SELECT id, cdk, activated_at, application, module, user_agent
  FROM checkin
 WHERE ($1 = '' OR application = $1) AND activated_at >= $2 AND activated_at < $3
 ORDER BY activated_at;`
	rows, err := queryRows(ctx, r.pool, tx, q, application, from, to)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.CheckIn
	for rows.Next() {
		ci := new(model.CheckIn)
		if err := rows.Scan(&ci.ID, &ci.CDK, &ci.ActivatedAt, &ci.Application, &ci.Module, &ci.UserAgent); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, ci)
	}
	return out, nil
}

var _ repository.IgnoreCheckInRepository = (*ignoreCheckInRepo)(nil)

type ignoreCheckInRepo struct{ pool *pgxpool.Pool }

func NewIgnoreCheckInRepo(pool *pgxpool.Pool) *ignoreCheckInRepo {
	return &ignoreCheckInRepo{pool: pool}
}

func (r *ignoreCheckInRepo) Matches(ctx context.Context, tx repository.Tx, application, module, userAgent string) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM ignore_checkin
   WHERE (application <> '' AND application = $1)
      OR (module <> '' AND module = $2)
      OR (user_agent <> '' AND user_agent = $3)
);`
	row, err := pickRow(ctx, r.pool, tx, q, application, module, userAgent)
	if err != nil {
		return false, err
	}
	var matched bool
	if err := row.Scan(&matched); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return matched, nil
}

func (r *ignoreCheckInRepo) Save(ctx context.Context, tx repository.Tx, e *model.IgnoreCheckIn) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	const q = `
INSERT INTO ignore_checkin (id, application, module, user_agent)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET application=$2, module=$3, user_agent=$4;`
	if _, err := execSQL(ctx, r.pool, tx, q, e.ID, e.Application, e.Module, e.UserAgent); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *ignoreCheckInRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.IgnoreCheckIn, error) {
	const q = `SELECT id, application, module, user_agent FROM ignore_checkin;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.IgnoreCheckIn
	for rows.Next() {
		e := new(model.IgnoreCheckIn)
		if err := rows.Scan(&e.ID, &e.Application, &e.Module, &e.UserAgent); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, e)
	}
	return out, nil
}
