// File: internal/usecase/revenue_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/adapter"
	"cdk-billing/internal/domain/ports/repository"
)

// ScopeAll aggregates across every application. It is gated by a shared
// secret instead of the per-application token service.
const ScopeAll = "all"

const monthLayout = "2006-01"

// ReportCache stores rendered revenue reports keyed by (scope, month).
type ReportCache interface {
	Get(ctx context.Context, scope string, month time.Time) (string, bool)
	Put(ctx context.Context, scope string, month time.Time, payload string)
}

// RevenueRow is one (activation, order) pair: an order whose code was
// activated in the scope during the month.
type RevenueRow struct {
	ActivatedAt time.Time `json:"activated_at"`
	Application string    `json:"application"`
	CDK         string    `json:"cdk"`
	Platform    string    `json:"platform"`
	OrderID     string    `json:"order_id"`
	PlanID      string    `json:"plan_id"`
	PlanTitle   string    `json:"plan_title"`
	BuyCount    int       `json:"buy_count"`
	Amount      string    `json:"amount"`
}

// RevenueReport is one month of revenue attributed to activations of a
// scope. Total sums each distinct order once even when several
// activations share its code; Rows carry one entry per (activation,
// order) pair. Amounts are fixed-point decimal strings.
type RevenueReport struct {
	Scope       string       `json:"scope"`
	Month       string       `json:"month"`
	Total       string       `json:"total"`
	Orders      int          `json:"orders"`
	Activations int          `json:"activations"`
	Rows        []RevenueRow `json:"rows"`
}

// Compile-time check
var _ RevenueUseCase = (*revenueUC)(nil)

type RevenueUseCase interface {
	// Summary aggregates revenue for scope over the month given as
	// "2006-01" (empty means the current month). The caller's token is
	// checked before any data is touched.
	Summary(ctx context.Context, scope, token, month string) (*RevenueReport, error)
}

type revenueUC struct {
	checkins       repository.CheckInRepository
	bills          repository.BillRepository
	plans          repository.PlanRepository
	cache          ReportCache
	validator      adapter.TokenValidator
	allScopeSecret string
	log            *zerolog.Logger
	now            func() time.Time
}

func NewRevenueUseCase(checkins repository.CheckInRepository, bills repository.BillRepository, plans repository.PlanRepository, cache ReportCache, validator adapter.TokenValidator, allScopeSecret string, logger *zerolog.Logger) *revenueUC {
	return &revenueUC{
		checkins:       checkins,
		bills:          bills,
		plans:          plans,
		cache:          cache,
		validator:      validator,
		allScopeSecret: allScopeSecret,
		log:            logger,
		now:            time.Now,
	}
}

func (u *revenueUC) Summary(ctx context.Context, scope, token, month string) (*RevenueReport, error) {
	if scope == "" {
		return nil, domain.ErrInvalidArgument
	}
	if err := u.authorize(ctx, scope, token); err != nil {
		return nil, err
	}

	monthStart, err := u.parseMonth(month)
	if err != nil {
		return nil, err
	}

	if payload, ok := u.cache.Get(ctx, scope, monthStart); ok {
		report := new(RevenueReport)
		if err := json.Unmarshal([]byte(payload), report); err == nil {
			return report, nil
		}
		// fall through and recompute on a corrupt entry
	}

	report, err := u.compute(ctx, scope, monthStart)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(report); err == nil {
		u.cache.Put(ctx, scope, monthStart, string(payload))
	}
	return report, nil
}

func (u *revenueUC) authorize(ctx context.Context, scope, token string) error {
	if scope == ScopeAll {
		if u.allScopeSecret == "" || token != u.allScopeSecret {
			return domain.ErrUnauthorized
		}
		return nil
	}
	if !u.validator.Validate(ctx, scope, token) {
		return domain.ErrUnauthorized
	}
	return nil
}

func (u *revenueUC) parseMonth(month string) (time.Time, error) {
	if month == "" {
		now := u.now()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local), nil
	}
	t, err := time.ParseInLocation(monthLayout, month, time.Local)
	if err != nil {
		return time.Time{}, domain.ErrInvalidArgument
	}
	return t, nil
}

func (u *revenueUC) compute(ctx context.Context, scope string, monthStart time.Time) (*RevenueReport, error) {
	monthEnd := monthStart.AddDate(0, 1, 0)

	application := scope
	if scope == ScopeAll {
		application = "" // matches every application
	}
	checkins, err := u.checkins.ListByApplication(ctx, nil, application, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(checkins))
	cdks := make([]string, 0, len(checkins))
	for _, ci := range checkins {
		if _, dup := seen[ci.CDK]; dup {
			continue
		}
		seen[ci.CDK] = struct{}{}
		cdks = append(cdks, ci.CDK)
	}

	report := &RevenueReport{
		Scope:       scope,
		Month:       monthStart.Format(monthLayout),
		Total:       "0.00",
		Activations: len(checkins),
	}
	if len(cdks) == 0 {
		return report, nil
	}

	bills, err := u.bills.ListByCDKs(ctx, nil, cdks)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	byCDK := make(map[string][]*model.Bill, len(bills))
	for _, b := range bills {
		byCDK[b.CDK] = append(byCDK[b.CDK], b)
		paid, err := decimal.NewFromString(b.ActuallyPaid)
		if err != nil {
			u.log.Warn().Str("order_id", b.OrderID).Str("actually_paid", b.ActuallyPaid).Msg("unparseable amount skipped")
			continue
		}
		total = total.Add(paid)
	}
	report.Total = total.StringFixed(2)
	report.Orders = len(bills)

	titles := make(map[string]string)
	for _, ci := range checkins {
		for _, b := range byCDK[ci.CDK] {
			report.Rows = append(report.Rows, RevenueRow{
				ActivatedAt: ci.ActivatedAt,
				Application: ci.Application,
				CDK:         ci.CDK,
				Platform:    b.Platform,
				OrderID:     b.OrderID,
				PlanID:      b.PlanID,
				PlanTitle:   u.planTitle(ctx, titles, b.Platform, b.PlanID),
				BuyCount:    b.BuyCount,
				Amount:      b.ActuallyPaid,
			})
		}
	}
	return report, nil
}

func (u *revenueUC) planTitle(ctx context.Context, titles map[string]string, platform, planID string) string {
	key := platform + "/" + planID
	if title, ok := titles[key]; ok {
		return title
	}
	title := ""
	if plan, err := u.plans.Find(ctx, nil, platform, planID); err == nil {
		title = plan.Title
	}
	titles[key] = title
	return title
}
