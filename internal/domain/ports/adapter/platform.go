package adapter

import (
	"context"

	"cdk-billing/internal/domain/model"
)

// OrderFetcher queries one payment platform for an order by its native id
// and normalizes the result into canonical OrderData.
//
// A nil OrderData with a nil error is never returned: orders that are not
// recognized entitlement products or not yet paid are reported via
// domain.ErrNotAnOrder / domain.ErrOrderNotPaid.
type OrderFetcher interface {
	Platform() string
	FetchOrder(ctx context.Context, nativeOrderID string) (*model.OrderData, error)
}

// CheckoutGateway opens a payment order with a provider and returns the
// URL the buyer pays at. customOrderID is the merchant-side order id the
// provider echoes back once the order settles.
type CheckoutGateway interface {
	CreateOrder(ctx context.Context, plan *model.Plan, payType int, clientIP, customOrderID string) (string, error)
	PayWindowMinutes() int
}

// ExceptionNotifier pushes operator-visible failure reports to an external
// sink. Delivery is best effort; Notify never blocks the business path on
// sink failure.
type ExceptionNotifier interface {
	Notify(ctx context.Context, module string, err error)
}
