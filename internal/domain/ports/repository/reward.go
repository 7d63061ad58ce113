package repository

import (
	"context"

	"cdk-billing/internal/domain/model"
)

type RewardRepository interface {
	FindByKey(ctx context.Context, tx Tx, rewardKey string) (*model.Reward, error)
	Save(ctx context.Context, tx Tx, reward *model.Reward) error
	ListAll(ctx context.Context, tx Tx) ([]*model.Reward, error)

	// MarkRedeemed decrements remaining and increments received_count,
	// guarded so remaining never goes below zero.
	MarkRedeemed(ctx context.Context, tx Tx, rewardKey string) error
}
