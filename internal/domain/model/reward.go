package model

import (
	"time"

	"cdk-billing/internal/domain"
)

// Reward is an administrator-defined promotional grant. A reward key can
// be redeemed at most once per destination order; Remaining and
// ReceivedCount are mutated only by successful redemptions.
type Reward struct {
	RewardKey string
	Title     string
	StartAt   time.Time
	ExpiredAt time.Time
	ValidDays int

	Applications string
	Modules      string

	Remaining     int
	ReceivedCount int

	// eligibility window on the destination order's creation time
	OrderCreatedAfter  time.Time
	OrderCreatedBefore time.Time
}

// NewReward validates and constructs a reward.
func NewReward(key, title string, startAt, expiredAt time.Time, validDays, remaining int) (*Reward, error) {
	if key == "" || validDays <= 0 || remaining < 0 || !expiredAt.After(startAt) {
		return nil, domain.ErrInvalidArgument
	}
	return &Reward{
		RewardKey: key,
		Title:     title,
		StartAt:   startAt,
		ExpiredAt: expiredAt,
		ValidDays: validDays,
		Remaining: remaining,
	}, nil
}
