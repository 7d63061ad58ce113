// File: internal/usecase/ingest_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/adapter"
	"cdk-billing/internal/domain/ports/repository"
	"cdk-billing/internal/infra/metrics"
)

// Compile-time check
var _ IngestUseCase = (*ingestUC)(nil)

// IngestUseCase turns a settled payment event into a persisted bill with
// a minted redemption code. Processing is idempotent on the order key:
// replays of an already-coded order return the stored bill unchanged.
type IngestUseCase interface {
	// ProcessOrder ingests canonical order data. The bool reports whether a
	// code was minted by this call (false on replay).
	ProcessOrder(ctx context.Context, data model.OrderData) (*model.Bill, bool, error)

	// ProcessPlatformOrder fetches the order from its platform first, then
	// ingests it. Used by webhook handlers that only carry an order id.
	ProcessPlatformOrder(ctx context.Context, platform, nativeOrderID string) (*model.Bill, bool, error)

	// ProcessCustomOrder is the same flow keyed by the merchant-side order
	// id, for platforms whose query API supports it.
	ProcessCustomOrder(ctx context.Context, platform, customOrderID string) (*model.Bill, bool, error)
}

// customOrderFetcher is implemented by platform adapters whose query API
// accepts the merchant-side order id.
type customOrderFetcher interface {
	FetchOrderByCustomID(ctx context.Context, customOrderID string) (*model.OrderData, error)
}

type ingestUC struct {
	tm       repository.TransactionManager
	bills    repository.BillRepository
	plans    repository.PlanRepository
	codes    adapter.CodeService
	fetchers map[string]adapter.OrderFetcher
	log      *zerolog.Logger
	now      func() time.Time
}

func NewIngestUseCase(tm repository.TransactionManager, bills repository.BillRepository, plans repository.PlanRepository, codes adapter.CodeService, fetchers []adapter.OrderFetcher, logger *zerolog.Logger) *ingestUC {
	byPlatform := make(map[string]adapter.OrderFetcher, len(fetchers))
	for _, f := range fetchers {
		byPlatform[f.Platform()] = f
	}
	return &ingestUC{
		tm:       tm,
		bills:    bills,
		plans:    plans,
		codes:    codes,
		fetchers: byPlatform,
		log:      logger,
		now:      time.Now,
	}
}

func (u *ingestUC) ProcessPlatformOrder(ctx context.Context, platform, nativeOrderID string) (*model.Bill, bool, error) {
	fetcher, ok := u.fetchers[platform]
	if !ok {
		return nil, false, fmt.Errorf("%w: unknown platform %q", domain.ErrInvalidArgument, platform)
	}
	data, err := fetcher.FetchOrder(ctx, nativeOrderID)
	if err != nil {
		return nil, false, err
	}
	return u.ProcessOrder(ctx, *data)
}

func (u *ingestUC) ProcessCustomOrder(ctx context.Context, platform, customOrderID string) (*model.Bill, bool, error) {
	fetcher, ok := u.fetchers[platform]
	if !ok {
		return nil, false, fmt.Errorf("%w: unknown platform %q", domain.ErrInvalidArgument, platform)
	}
	byCustom, ok := fetcher.(customOrderFetcher)
	if !ok {
		return nil, false, fmt.Errorf("%w: platform %q has no merchant-id query", domain.ErrInvalidArgument, platform)
	}
	data, err := byCustom.FetchOrderByCustomID(ctx, customOrderID)
	if err != nil {
		return nil, false, err
	}
	return u.ProcessOrder(ctx, *data)
}

func (u *ingestUC) ProcessOrder(ctx context.Context, data model.OrderData) (*model.Bill, bool, error) {
	if data.Platform == "" || data.PlatformTradeNo == "" || data.PlanID == "" {
		return nil, false, domain.ErrInvalidArgument
	}
	if data.BuyCount < 1 {
		data.BuyCount = 1
	}

	// Phase 1: make sure the row exists with its window pinned, in a short
	// transaction that makes no external calls.
	var bill *model.Bill
	var group string
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		b, created, err := u.bills.GetOrCreate(ctx, tx, data)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrCreateFailed, err)
		}
		bill = b

		// Replay of a fully processed order is a no-op.
		if b.CDK != "" {
			metrics.IncOrderIngested(data.Platform, "duplicate")
			u.log.Info().Str("platform", b.Platform).Str("order_id", b.OrderID).Msg("order already processed")
			return nil
		}

		plan, err := u.plans.Find(ctx, tx, data.Platform, data.PlanID)
		if err != nil {
			metrics.IncOrderIngested(data.Platform, "plan_missing")
			return fmt.Errorf("%w: %s/%s", domain.ErrPlanNotFound, data.Platform, data.PlanID)
		}
		group = plan.AppGroup

		// Entitlement runs from processing time, not purchase time. A bill
		// left over from a failed mint keeps its original window, so a
		// crash or mint failure resumes instead of re-extending.
		if created || b.ExpiredAt.IsZero() {
			b.ExpiredAt = u.now().Add(time.Duration(plan.ValidDays*b.BuyCount) * 24 * time.Hour)
			return u.bills.SetCDK(ctx, tx, b.Platform, b.OrderID, "", b.ExpiredAt)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if bill.CDK != "" {
		return bill, false, nil
	}

	// Phase 2: mint with no storage lock held across the call.
	cdk, err := u.codes.Acquire(ctx, bill.ExpiredAt, group)
	if err != nil {
		metrics.IncOrderIngested(data.Platform, "mint_failed")
		return bill, false, err
	}

	// Phase 3: attach the code, unless a concurrent ingestion won the race
	// while we were minting.
	minted := false
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		b, err := u.bills.Find(ctx, tx, bill.Platform, bill.OrderID)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
		}
		if b.CDK != "" {
			bill = b
			metrics.IncOrderIngested(data.Platform, "duplicate")
			return nil
		}
		if err := u.bills.SetCDK(ctx, tx, b.Platform, b.OrderID, cdk, bill.ExpiredAt); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUpdateFailed, err)
		}
		bill.CDK = cdk
		minted = true
		metrics.IncOrderIngested(data.Platform, "ok")
		u.log.Info().Str("platform", bill.Platform).Str("order_id", bill.OrderID).Time("expired_at", bill.ExpiredAt).Msg("order ingested")
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return bill, minted, nil
}
