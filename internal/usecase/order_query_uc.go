// File: internal/usecase/order_query_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/repository"
)

// OrderInfo is the caller-facing view of one order. LatestExpiredAt is
// the newest expiry among all bills sharing the order's code, which after
// merges can be later than the order's own expiry.
type OrderInfo struct {
	Bill            *model.Bill
	LatestExpiredAt time.Time
}

// Compile-time check
var _ OrderQueryUseCase = (*orderQueryUC)(nil)

// OrderQueryUseCase looks up an order by an opaque id. When the order is
// unknown locally but the id names a platform order, the platform is
// queried and the order ingested on the fly, so a buyer polling right
// after payment gets their code without waiting for the webhook.
type OrderQueryUseCase interface {
	Query(ctx context.Context, orderID string) (*OrderInfo, error)
}

type orderQueryUC struct {
	bills  repository.BillRepository
	ingest IngestUseCase
	log    *zerolog.Logger
}

func NewOrderQueryUseCase(bills repository.BillRepository, ingest IngestUseCase, logger *zerolog.Logger) *orderQueryUC {
	return &orderQueryUC{bills: bills, ingest: ingest, log: logger}
}

func (u *orderQueryUC) Query(ctx context.Context, orderID string) (*OrderInfo, error) {
	kind := ClassifySource(orderID)

	var (
		bill *model.Bill
		err  error
	)
	switch kind {
	case SourceAfdianOrder:
		bill, err = u.bills.Find(ctx, nil, model.PlatformAfdian, orderID)
	case SourceYimapayTradeNo:
		bill, err = u.bills.Find(ctx, nil, model.PlatformYimapay, orderID)
	case SourceYimapayCustomOrder:
		bill, err = u.bills.FindByCustomOrderID(ctx, nil, orderID)
	default:
		return nil, domain.ErrOrderNotFound
	}

	if errors.Is(err, domain.ErrNotFound) {
		bill, err = u.fallback(ctx, kind, orderID)
	}
	if err != nil {
		return nil, err
	}

	info := &OrderInfo{Bill: bill, LatestExpiredAt: bill.ExpiredAt}
	if bill.CDK != "" {
		// Newest expiry first, so the head is the effective window.
		shared, err := u.bills.FindByCDK(ctx, nil, bill.CDK)
		if err == nil && len(shared) > 0 && shared[0].ExpiredAt.After(info.LatestExpiredAt) {
			info.LatestExpiredAt = shared[0].ExpiredAt
		}
	}
	return info, nil
}

// fallback pulls an order the webhook has not delivered yet straight from
// its platform and runs it through ingestion.
func (u *orderQueryUC) fallback(ctx context.Context, kind SourceKind, orderID string) (*model.Bill, error) {
	var platform string
	switch kind {
	case SourceAfdianOrder:
		platform = model.PlatformAfdian
	case SourceYimapayTradeNo, SourceYimapayCustomOrder:
		platform = model.PlatformYimapay
	default:
		return nil, domain.ErrOrderNotFound
	}

	u.log.Info().Str("platform", platform).Str("order_id", orderID).Msg("order unknown locally, querying platform")
	var (
		bill *model.Bill
		err  error
	)
	if kind == SourceYimapayCustomOrder {
		bill, _, err = u.ingest.ProcessCustomOrder(ctx, platform, orderID)
	} else {
		bill, _, err = u.ingest.ProcessPlatformOrder(ctx, platform, orderID)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotAnOrder) || errors.Is(err, domain.ErrOrderNotPaid) || errors.Is(err, domain.ErrPlatformQuery) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return bill, nil
}
