// File: internal/usecase/transfer_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/adapter"
	"cdk-billing/internal/domain/ports/repository"
	"cdk-billing/internal/infra/metrics"
)

// transferWindow is how long after purchase an order may still donate its
// entitlement to another order.
const transferWindow = 3 * 24 * time.Hour

// renewBuffer keeps the donor code's expiry slightly in the future when
// retiring it; the code backend rejects timestamps in the past.
const renewBuffer = 10 * time.Second

// Compile-time check
var _ TransferUseCase = (*transferUC)(nil)

// TransferUseCase merges entitlements between orders and applies
// promotional reward grants. Both operations extend the destination
// order's window and leave an audit transaction behind.
type TransferUseCase interface {
	// Transfer dispatches on the source id's shape: order ids merge the
	// source order into the destination, reward keys redeem a grant.
	Transfer(ctx context.Context, sourceID, destID string) (*model.Bill, error)

	// MergeOrders donates the source order's remaining time to the
	// destination. The source is marked superseded and its code retired.
	MergeOrders(ctx context.Context, fromOrderID, toOrderID string) (*model.Bill, error)

	// RedeemReward grants a reward's days to the destination order, at
	// most once per (reward, order) pair.
	RedeemReward(ctx context.Context, rewardKey, toOrderID string) (*model.Bill, error)

	// History lists the audit transactions touching one order.
	History(ctx context.Context, platform, orderID string) ([]*model.Transaction, error)
}

type transferUC struct {
	tm    repository.TransactionManager
	bills repository.BillRepository
	txns  repository.TransactionRepository
	rwds  repository.RewardRepository
	codes adapter.CodeService
	log   *zerolog.Logger
	now   func() time.Time
}

func NewTransferUseCase(tm repository.TransactionManager, bills repository.BillRepository, txns repository.TransactionRepository, rwds repository.RewardRepository, codes adapter.CodeService, logger *zerolog.Logger) *transferUC {
	return &transferUC{tm: tm, bills: bills, txns: txns, rwds: rwds, codes: codes, log: logger, now: time.Now}
}

func (u *transferUC) Transfer(ctx context.Context, sourceID, destID string) (*model.Bill, error) {
	if ClassifySource(sourceID) == SourceRewardKey {
		return u.RedeemReward(ctx, sourceID, destID)
	}
	return u.MergeOrders(ctx, sourceID, destID)
}

// resolveBill maps an opaque id to its bill using the id's shape.
func (u *transferUC) resolveBill(ctx context.Context, tx repository.Tx, id string) (*model.Bill, error) {
	var (
		b   *model.Bill
		err error
	)
	switch ClassifySource(id) {
	case SourceAfdianOrder:
		b, err = u.bills.Find(ctx, tx, model.PlatformAfdian, id)
	case SourceYimapayTradeNo:
		b, err = u.bills.Find(ctx, tx, model.PlatformYimapay, id)
	case SourceYimapayCustomOrder:
		b, err = u.bills.FindByCustomOrderID(ctx, tx, id)
	default:
		return nil, domain.ErrOrderNotFound
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	return b, err
}

func (u *transferUC) MergeOrders(ctx context.Context, fromOrderID, toOrderID string) (*model.Bill, error) {
	var (
		dest     *model.Bill
		donorCDK string
		retireAt time.Time
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// Resolve without row locks first; the advisory locks below fix
		// the serialization order regardless of argument order.
		from, err := u.resolveBill(ctx, nil, fromOrderID)
		if err != nil {
			return err
		}
		to, err := u.resolveBill(ctx, nil, toOrderID)
		if err != nil {
			return err
		}
		if err := u.lockPair(ctx, tx, from, to); err != nil {
			return err
		}

		// Re-read under lock; both rows may have changed.
		from, err = u.bills.Find(ctx, tx, from.Platform, from.OrderID)
		if err != nil {
			return err
		}
		to, err = u.bills.Find(ctx, tx, to.Platform, to.OrderID)
		if err != nil {
			return err
		}

		now := u.now()
		// A donor whose window already ran out has nothing left to donate.
		if from.Superseded() || !from.ExpiredAt.After(now) {
			return domain.ErrAlreadyTransferred
		}
		if now.Sub(from.CreatedAt) > transferWindow {
			return domain.ErrOrderTooOld
		}
		if from.CDK == to.CDK {
			return domain.ErrSameCDK
		}

		delta := from.ExpiredAt.Sub(now)
		newExpiredAt := now.Add(delta)
		if to.ExpiredAt.After(now) {
			newExpiredAt = to.ExpiredAt.Add(delta)
		}

		t := &model.Transaction{
			ID:            uuid.NewString(),
			FromPlatform:  from.Platform,
			FromOrderID:   from.OrderID,
			ToPlatform:    to.Platform,
			ToOrderID:     to.OrderID,
			TransferredAt: now,
			DaysDelta:     int(delta.Hours() / 24),
			NewExpiredAt:  newExpiredAt,
			Why:           model.ReasonTransferOrder,
		}
		if err := u.txns.Create(ctx, tx, t); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return domain.ErrAlreadyTransferred
			}
			return err
		}

		donorCDK = from.CDK
		retireAt = now.Add(renewBuffer)

		fromTransferred := from.Transferred
		from.CDK = to.CDK
		from.Transferred = model.TransferredSuperseded
		from.ExpiredAt = now
		if err := u.bills.Update(ctx, tx, from); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUpdateFailed, err)
		}

		to.ExpiredAt = newExpiredAt
		to.Transferred += fromTransferred + 1
		if err := u.bills.Update(ctx, tx, to); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUpdateFailed, err)
		}

		dest = to
		u.log.Info().
			Str("from", from.Platform+"/"+from.OrderID).
			Str("to", to.Platform+"/"+to.OrderID).
			Time("new_expired_at", newExpiredAt).
			Msg("orders merged")
		return nil
	})
	if err != nil {
		metrics.IncTransfer("error")
		return nil, err
	}

	// Code windows move only after the rows are committed; no storage
	// lock is held across the backend calls.
	if err := u.codes.Renew(ctx, dest.CDK, dest.ExpiredAt); err != nil {
		metrics.IncTransfer("renew_failed")
		u.log.Error().Err(err).Str("cdk", dest.CDK).Msg("destination code renewal failed after merge")
		return dest, err
	}
	if err := u.codes.Renew(ctx, donorCDK, retireAt); err != nil {
		// Retirement is cleanup; the donor row already points at the
		// receiving code.
		u.log.Warn().Err(err).Str("cdk", donorCDK).Msg("donor code retirement failed")
	}
	metrics.IncTransfer("ok")
	return dest, nil
}

func (u *transferUC) RedeemReward(ctx context.Context, rewardKey, toOrderID string) (*model.Bill, error) {
	var dest *model.Bill
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		reward, err := u.rwds.FindByKey(ctx, tx, rewardKey)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrRewardNotFound
			}
			return err
		}
		now := u.now()
		if now.Before(reward.StartAt) {
			return domain.ErrRewardNotStarted
		}
		if now.After(reward.ExpiredAt) {
			return domain.ErrRewardExpired
		}

		to, err := u.resolveBill(ctx, nil, toOrderID)
		if err != nil {
			return err
		}
		if err := u.bills.Lock(ctx, tx, to.Platform, to.OrderID); err != nil {
			return err
		}
		to, err = u.bills.Find(ctx, tx, to.Platform, to.OrderID)
		if err != nil {
			return err
		}

		if to.Superseded() || !to.ExpiredAt.After(now) {
			return domain.ErrDestinationIneligible
		}
		if !reward.OrderCreatedAfter.IsZero() && to.CreatedAt.Before(reward.OrderCreatedAfter) {
			return domain.ErrDestinationIneligible
		}
		if !reward.OrderCreatedBefore.IsZero() && to.CreatedAt.After(reward.OrderCreatedBefore) {
			return domain.ErrDestinationIneligible
		}

		newExpiredAt := to.ExpiredAt.Add(time.Duration(reward.ValidDays) * 24 * time.Hour)

		// The audit row is the once-per-order guard: its uniqueness on the
		// (source, destination) pair fails the second redemption before
		// any effect is applied.
		t := &model.Transaction{
			ID:            uuid.NewString(),
			FromPlatform:  model.PlatformReward,
			FromOrderID:   reward.RewardKey,
			ToPlatform:    to.Platform,
			ToOrderID:     to.OrderID,
			TransferredAt: now,
			DaysDelta:     reward.ValidDays,
			NewExpiredAt:  newExpiredAt,
			Why:           model.ReasonTransferReward,
		}
		if err := u.txns.Create(ctx, tx, t); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return domain.ErrRewardAlreadyGiven
			}
			return err
		}
		if err := u.rwds.MarkRedeemed(ctx, tx, reward.RewardKey); err != nil {
			return err
		}

		to.ExpiredAt = newExpiredAt
		if err := u.bills.Update(ctx, tx, to); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUpdateFailed, err)
		}

		dest = to
		u.log.Info().
			Str("reward", reward.RewardKey).
			Str("to", to.Platform+"/"+to.OrderID).
			Time("new_expired_at", newExpiredAt).
			Msg("reward redeemed")
		return nil
	})
	if err != nil {
		metrics.IncRewardRedemption("error")
		return nil, err
	}

	if err := u.codes.Renew(ctx, dest.CDK, dest.ExpiredAt); err != nil {
		metrics.IncRewardRedemption("renew_failed")
		u.log.Error().Err(err).Str("cdk", dest.CDK).Msg("destination code renewal failed after redemption")
		return dest, err
	}
	metrics.IncRewardRedemption("ok")
	return dest, nil
}

func (u *transferUC) History(ctx context.Context, platform, orderID string) ([]*model.Transaction, error) {
	if platform == "" || orderID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.txns.ListByOrder(ctx, nil, platform, orderID)
}

// lockPair takes the per-bill advisory locks in a stable order so that
// concurrent merges over the same pair never deadlock.
func (u *transferUC) lockPair(ctx context.Context, tx repository.Tx, a, b *model.Bill) error {
	ka := a.Platform + "/" + a.OrderID
	kb := b.Platform + "/" + b.OrderID
	if ka > kb {
		a, b = b, a
	}
	if err := u.bills.Lock(ctx, tx, a.Platform, a.OrderID); err != nil {
		return err
	}
	return u.bills.Lock(ctx, tx, b.Platform, b.OrderID)
}
