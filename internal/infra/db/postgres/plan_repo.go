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

var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct{ pool *pgxpool.Pool }

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

const planColumns = `platform, plan_id, title, valid_days, app_group, applications, modules, cdk_number, amount_minor`

func (r *planRepo) Find(ctx context.Context, tx repository.Tx, platform, planID string) (*model.Plan, error) {
	q := `SELECT ` + planColumns + ` FROM plan WHERE platform=$1 AND plan_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, platform, planID)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	const q = `
INSERT INTO plan (platform, plan_id, title, valid_days, app_group, applications, modules, cdk_number, amount_minor)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (platform, plan_id) DO UPDATE SET
  title=$3, valid_days=$4, app_group=$5, applications=$6, modules=$7, cdk_number=$8, amount_minor=$9;`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.Platform, p.PlanID, p.Title, p.ValidDays, p.AppGroup, p.Applications, p.Modules, p.CDKNumber, p.AmountMinor)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *planRepo) Delete(ctx context.Context, tx repository.Tx, platform, planID string) error {
	const q = `DELETE FROM plan WHERE platform=$1 AND plan_id=$2;`
	tag, err := execSQL(ctx, r.pool, tx, q, platform, planID)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *planRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	q := `SELECT ` + planColumns + ` FROM plan ORDER BY platform, valid_days;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Plan
	for rows.Next() {
		p := new(model.Plan)
		if err := rows.Scan(&p.Platform, &p.PlanID, &p.Title, &p.ValidDays, &p.AppGroup, &p.Applications, &p.Modules, &p.CDKNumber, &p.AmountMinor); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}

func scanPlan(row pgx.Row) (*model.Plan, error) {
	p := new(model.Plan)
	err := row.Scan(&p.Platform, &p.PlanID, &p.Title, &p.ValidDays, &p.AppGroup, &p.Applications, &p.Modules, &p.CDKNumber, &p.AmountMinor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
