// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"

	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

// PlanUseCase administers the purchasable plan catalogue.
type PlanUseCase interface {
	Save(ctx context.Context, plan *model.Plan) error
	Find(ctx context.Context, platform, planID string) (*model.Plan, error)
	Delete(ctx context.Context, platform, planID string) error
	ListAll(ctx context.Context) ([]*model.Plan, error)
}

type planUC struct {
	plans repository.PlanRepository
}

func NewPlanUseCase(plans repository.PlanRepository) *planUC {
	return &planUC{plans: plans}
}

func (u *planUC) Save(ctx context.Context, plan *model.Plan) error {
	validated, err := model.NewPlan(plan.Platform, plan.PlanID, plan.Title, plan.ValidDays, plan.AppGroup)
	if err != nil {
		return err
	}
	validated.Applications = plan.Applications
	validated.Modules = plan.Modules
	validated.CDKNumber = plan.CDKNumber
	validated.AmountMinor = plan.AmountMinor
	return u.plans.Save(ctx, nil, validated)
}

func (u *planUC) Find(ctx context.Context, platform, planID string) (*model.Plan, error) {
	return u.plans.Find(ctx, nil, platform, planID)
}

func (u *planUC) Delete(ctx context.Context, platform, planID string) error {
	return u.plans.Delete(ctx, nil, platform, planID)
}

func (u *planUC) ListAll(ctx context.Context) ([]*model.Plan, error) {
	return u.plans.ListAll(ctx, nil)
}
