//go:build !integration

package web

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"cdk-billing/internal/config"
	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/usecase"
)

// --- Mock use cases (Func-overridable; zero value returns not-found) ---

type mockIngestUC struct {
	usecase.IngestUseCase // Embed interface for forward compatibility
	ProcessPlatformOrderFunc func(ctx context.Context, platform, nativeOrderID string) (*model.Bill, bool, error)
	Calls                    []string
}

func (m *mockIngestUC) ProcessPlatformOrder(ctx context.Context, platform, nativeOrderID string) (*model.Bill, bool, error) {
	m.Calls = append(m.Calls, platform+"/"+nativeOrderID)
	if m.ProcessPlatformOrderFunc != nil {
		return m.ProcessPlatformOrderFunc(ctx, platform, nativeOrderID)
	}
	return &model.Bill{Platform: platform, OrderID: nativeOrderID, CDK: "cdk-test"}, true, nil
}

type mockQueryUC struct {
	usecase.OrderQueryUseCase
	QueryFunc func(ctx context.Context, orderID string) (*usecase.OrderInfo, error)
}

func (m *mockQueryUC) Query(ctx context.Context, orderID string) (*usecase.OrderInfo, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, orderID)
	}
	return nil, domain.ErrOrderNotFound
}

type mockTransferUC struct {
	usecase.TransferUseCase
	TransferFunc func(ctx context.Context, sourceID, destID string) (*model.Bill, error)
}

func (m *mockTransferUC) Transfer(ctx context.Context, sourceID, destID string) (*model.Bill, error) {
	if m.TransferFunc != nil {
		return m.TransferFunc(ctx, sourceID, destID)
	}
	return nil, domain.ErrOrderNotFound
}

type mockCheckoutUC struct {
	usecase.CheckoutUseCase
	CreateFunc func(ctx context.Context, planID, payMethod, clientIP string) (*usecase.Checkout, error)
}

func (m *mockCheckoutUC) Create(ctx context.Context, planID, payMethod, clientIP string) (*usecase.Checkout, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, planID, payMethod, clientIP)
	}
	return nil, domain.ErrPlanNotFound
}

type mockCheckInUC struct {
	usecase.CheckInUseCase
	RecordFunc     func(ctx context.Context, in usecase.CheckInInput) (*model.CheckIn, bool, error)
	ListFunc       func(ctx context.Context, application string, from, to time.Time) ([]*model.CheckIn, error)
	SaveIgnoreFunc func(ctx context.Context, entry *model.IgnoreCheckIn) error
	Inputs         []usecase.CheckInInput
}

func (m *mockCheckInUC) Record(ctx context.Context, in usecase.CheckInInput) (*model.CheckIn, bool, error) {
	m.Inputs = append(m.Inputs, in)
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, in)
	}
	return &model.CheckIn{CDK: in.CDK, Application: in.Application}, true, nil
}

func (m *mockCheckInUC) RecordBatch(ctx context.Context, ins []usecase.CheckInInput) []usecase.CheckInResult {
	out := make([]usecase.CheckInResult, 0, len(ins))
	for _, in := range ins {
		ci, created, err := m.Record(ctx, in)
		res := usecase.CheckInResult{CDK: in.CDK, Created: created, Err: err}
		if ci != nil {
			res.CDK = ci.CDK
		}
		out = append(out, res)
	}
	return out
}

func (m *mockCheckInUC) ListByApplication(ctx context.Context, application string, from, to time.Time) ([]*model.CheckIn, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, application, from, to)
	}
	return []*model.CheckIn{}, nil
}

func (m *mockCheckInUC) SaveIgnore(ctx context.Context, entry *model.IgnoreCheckIn) error {
	if m.SaveIgnoreFunc != nil {
		return m.SaveIgnoreFunc(ctx, entry)
	}
	return nil
}

func (m *mockCheckInUC) ListIgnores(ctx context.Context) ([]*model.IgnoreCheckIn, error) {
	return []*model.IgnoreCheckIn{}, nil
}

type mockRevenueUC struct {
	usecase.RevenueUseCase
	SummaryFunc func(ctx context.Context, scope, token, month string) (*usecase.RevenueReport, error)
}

func (m *mockRevenueUC) Summary(ctx context.Context, scope, token, month string) (*usecase.RevenueReport, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx, scope, token, month)
	}
	return nil, domain.ErrUnauthorized
}

type mockRewardUC struct {
	usecase.RewardUseCase
	StatusFunc func(ctx context.Context, rewardKey string) (*usecase.RewardStatus, error)
	SaveFunc   func(ctx context.Context, reward *model.Reward) error
}

func (m *mockRewardUC) Status(ctx context.Context, rewardKey string) (*usecase.RewardStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, rewardKey)
	}
	return nil, domain.ErrRewardNotFound
}

func (m *mockRewardUC) Save(ctx context.Context, reward *model.Reward) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, reward)
	}
	return nil
}

func (m *mockRewardUC) ListAll(ctx context.Context) ([]*model.Reward, error) {
	return []*model.Reward{}, nil
}

type mockPlanUC struct {
	usecase.PlanUseCase
	SaveFunc   func(ctx context.Context, plan *model.Plan) error
	DeleteFunc func(ctx context.Context, platform, planID string) error
}

func (m *mockPlanUC) Save(ctx context.Context, plan *model.Plan) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, plan)
	}
	return nil
}

func (m *mockPlanUC) Delete(ctx context.Context, platform, planID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, platform, planID)
	}
	return nil
}

func (m *mockPlanUC) ListAll(ctx context.Context) ([]*model.Plan, error) {
	return []*model.Plan{}, nil
}

// --- Fixtures ---

type testUCs struct {
	ingest   *mockIngestUC
	query    *mockQueryUC
	transfer *mockTransferUC
	checkout *mockCheckoutUC
	checkIn  *mockCheckInUC
	revenue  *mockRevenueUC
	reward   *mockRewardUC
	plan     *mockPlanUC
}

func newTestUCs() *testUCs {
	return &testUCs{
		ingest:   &mockIngestUC{},
		query:    &mockQueryUC{},
		transfer: &mockTransferUC{},
		checkout: &mockCheckoutUC{},
		checkIn:  &mockCheckInUC{},
		revenue:  &mockRevenueUC{},
		reward:   &mockRewardUC{},
		plan:     &mockPlanUC{},
	}
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Admin.APIKey = "admin-key"
	cfg.Admin.JWTSecret = "jwt-secret"
	cfg.Admin.TokenTTL = 30 * time.Minute
	cfg.CheckIn.Secret = "checkin-secret"
	cfg.Afdian.WebhookSecret = "afdian-hook"
	cfg.Afdian.TestOutTradeNo = "202505200000000000000000000"
	cfg.Yimapay.WebhookSecret = "yimapay-hook"
	cfg.Yimapay.AppID = "app-1"
	cfg.Pricing.URL = "https://pricing.example/plans"
	return cfg
}

func newTestServer(ucs *testUCs) *Server {
	logger := zerolog.New(io.Discard)
	auth := NewAuthManager("jwt-secret", false, 30*time.Minute)
	return NewServer(
		ucs.ingest, ucs.query, ucs.transfer, ucs.checkout,
		ucs.checkIn, ucs.revenue, ucs.reward, ucs.plan,
		auth, newTestConfig(), &logger,
	)
}
