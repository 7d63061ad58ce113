package repository

import (
	"context"

	"cdk-billing/internal/domain/model"
)

type PlanRepository interface {
	// Find resolves a plan by its composite key.
	Find(ctx context.Context, tx Tx, platform, planID string) (*model.Plan, error)
	Save(ctx context.Context, tx Tx, plan *model.Plan) error
	Delete(ctx context.Context, tx Tx, platform, planID string) error
	ListAll(ctx context.Context, tx Tx) ([]*model.Plan, error)
}
