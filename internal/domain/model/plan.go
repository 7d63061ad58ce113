package model

import (
	"cdk-billing/internal/domain"
)

// Plan is a purchasable offering on one payment platform. The pair
// (Platform, PlanID) is the composite key. Plans are reference data
// administered through the admin API and read by ingestion.
type Plan struct {
	Platform     string
	PlanID       string
	Title        string
	ValidDays    int    // entitlement duration per purchased unit
	AppGroup     string // which CDK pool the code is drawn from
	Applications string
	Modules      string
	CDKNumber    int // code-batch size
	AmountMinor  int64
}

func (p *Plan) IsZero() bool { return p == nil || p.PlanID == "" }

// NewPlan validates and constructs a plan.
func NewPlan(platform, planID, title string, validDays int, appGroup string) (*Plan, error) {
	if platform == "" || planID == "" || title == "" || validDays <= 0 || appGroup == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		Platform:  platform,
		PlanID:    planID,
		Title:     title,
		ValidDays: validDays,
		AppGroup:  appGroup,
	}, nil
}
