// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/adapter"
	"cdk-billing/internal/domain/ports/repository"
)

// payTypes maps caller-facing payment method names to the provider's
// numeric pay_type codes.
var payTypes = map[string]int{
	"WeChatQRCode": 20,
	"WeChatH5":     23,
	"AlipayQRCode": 30,
	"AlipayH5":     30,
}

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// Checkout is the created payment order handed back to the buyer.
type Checkout struct {
	CustomOrderID string
	PayURL        string
	ExpireMinutes int
}

// CheckoutUseCase opens a payment order with the provider for a plan and
// returns where the buyer pays. The merchant order id is generated here
// and is the buyer's receipt for later queries.
type CheckoutUseCase interface {
	Create(ctx context.Context, planID, payMethod, clientIP string) (*Checkout, error)
}

type checkoutUC struct {
	plans   repository.PlanRepository
	gateway adapter.CheckoutGateway
	log     *zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewCheckoutUseCase(plans repository.PlanRepository, gateway adapter.CheckoutGateway, logger *zerolog.Logger) *checkoutUC {
	return &checkoutUC{
		plans:   plans,
		gateway: gateway,
		log:     logger,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (u *checkoutUC) Create(ctx context.Context, planID, payMethod, clientIP string) (*Checkout, error) {
	payType, ok := payTypes[payMethod]
	if !ok {
		return nil, domain.ErrInvalidArgument
	}

	plan, err := u.plans.Find(ctx, nil, model.PlatformYimapay, planID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}

	customOrderID := u.newCustomOrderID()
	payURL, err := u.gateway.CreateOrder(ctx, plan, payType, clientIP, customOrderID)
	if err != nil {
		return nil, err
	}

	u.log.Info().Str("plan_id", planID).Str("custom_order_id", customOrderID).Msg("payment order created")
	return &Checkout{
		CustomOrderID: customOrderID,
		PayURL:        payURL,
		ExpireMinutes: u.gateway.PayWindowMinutes(),
	}, nil
}

// newCustomOrderID builds a 32-char merchant order id: a 14-digit local
// timestamp followed by 18 chars of monotonic ULID entropy. The digit
// prefix is what ClassifySource keys on.
func (u *checkoutUC) newCustomOrderID() string {
	now := u.now()
	u.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), u.entropy)
	u.mu.Unlock()
	suffix := strings.ToLower(id.String())
	return now.Format("20060102150405") + suffix[len(suffix)-18:]
}
