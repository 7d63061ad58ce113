// File: internal/usecase/reward_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/repository"
)

// RewardStatus is the public view of a reward: enough for a buyer to see
// whether a key is worth trying, without exposing admin bookkeeping.
type RewardStatus struct {
	RewardKey string    `json:"reward_key"`
	Title     string    `json:"title"`
	ValidDays int       `json:"valid_days"`
	StartAt   time.Time `json:"start_at"`
	ExpiredAt time.Time `json:"expired_at"`
	Remaining int       `json:"remaining"`
	Active    bool      `json:"active"`
}

// Compile-time check
var _ RewardUseCase = (*rewardUC)(nil)

type RewardUseCase interface {
	// Status is the public lookup used before redemption.
	Status(ctx context.Context, rewardKey string) (*RewardStatus, error)

	// admin surface
	Save(ctx context.Context, reward *model.Reward) error
	ListAll(ctx context.Context) ([]*model.Reward, error)
}

type rewardUC struct {
	rwds repository.RewardRepository
	now  func() time.Time
}

func NewRewardUseCase(rwds repository.RewardRepository) *rewardUC {
	return &rewardUC{rwds: rwds, now: time.Now}
}

func (u *rewardUC) Status(ctx context.Context, rewardKey string) (*RewardStatus, error) {
	r, err := u.rwds.FindByKey(ctx, nil, rewardKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrRewardNotFound
		}
		return nil, err
	}
	now := u.now()
	return &RewardStatus{
		RewardKey: r.RewardKey,
		Title:     r.Title,
		ValidDays: r.ValidDays,
		StartAt:   r.StartAt,
		ExpiredAt: r.ExpiredAt,
		Remaining: r.Remaining,
		Active:    !now.Before(r.StartAt) && !now.After(r.ExpiredAt) && r.Remaining > 0,
	}, nil
}

func (u *rewardUC) Save(ctx context.Context, reward *model.Reward) error {
	validated, err := model.NewReward(reward.RewardKey, reward.Title, reward.StartAt, reward.ExpiredAt, reward.ValidDays, reward.Remaining)
	if err != nil {
		return err
	}
	validated.Applications = reward.Applications
	validated.Modules = reward.Modules
	validated.OrderCreatedAfter = reward.OrderCreatedAfter
	validated.OrderCreatedBefore = reward.OrderCreatedBefore
	validated.ReceivedCount = reward.ReceivedCount
	return u.rwds.Save(ctx, nil, validated)
}

func (u *rewardUC) ListAll(ctx context.Context) ([]*model.Reward, error) {
	return u.rwds.ListAll(ctx, nil)
}
