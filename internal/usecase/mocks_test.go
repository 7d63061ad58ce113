// File: internal/usecase/mocks_test.go
//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/adapter"
	"cdk-billing/internal/domain/ports/repository"
	"cdk-billing/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

// WithTx runs fn immediately without a real transaction unless a test
// installs its own behavior.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// ---- Mock BillRepository ----

type MockBillRepo struct {
	mu    sync.Mutex
	store map[string]*model.Bill // key platform+"/"+orderID

	GetOrCreateFunc func(ctx context.Context, tx repository.Tx, data model.OrderData) (*model.Bill, bool, error)
	SetCDKFunc      func(ctx context.Context, tx repository.Tx, platform, orderID, cdk string, expiredAt time.Time) error
	UpdateFunc      func(ctx context.Context, tx repository.Tx, bill *model.Bill) error
	LockFunc        func(ctx context.Context, tx repository.Tx, platform, orderID string) error
}

var _ repository.BillRepository = (*MockBillRepo)(nil)

func NewMockBillRepo() *MockBillRepo {
	return &MockBillRepo{store: make(map[string]*model.Bill)}
}

func billKey(platform, orderID string) string { return platform + "/" + orderID }

// Put seeds a bill directly.
func (m *MockBillRepo) Put(b *model.Bill) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.store[billKey(b.Platform, b.OrderID)] = &cp
}

func (m *MockBillRepo) GetOrCreate(ctx context.Context, tx repository.Tx, data model.OrderData) (*model.Bill, bool, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, tx, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := billKey(data.Platform, data.PlatformTradeNo)
	if b, ok := m.store[key]; ok {
		cp := *b
		return &cp, false, nil
	}
	b := &model.Bill{
		Platform:      data.Platform,
		OrderID:       data.PlatformTradeNo,
		CustomOrderID: data.CustomOrderID,
		PlanID:        data.PlanID,
		UserID:        data.UserID,
		CreatedAt:     data.CreatedAt,
		BuyCount:      data.BuyCount,
		ActuallyPaid:  data.ActuallyPaid,
		OriginalPrice: data.OriginalPrice,
		RawData:       data.RawData,
	}
	m.store[key] = b
	cp := *b
	return &cp, true, nil
}

func (m *MockBillRepo) Find(ctx context.Context, tx repository.Tx, platform, orderID string) (*model.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.store[billKey(platform, orderID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MockBillRepo) FindByCustomOrderID(ctx context.Context, tx repository.Tx, customOrderID string) (*model.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.store {
		if b.CustomOrderID != "" && b.CustomOrderID == customOrderID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockBillRepo) FindByCDK(ctx context.Context, tx repository.Tx, cdk string) ([]*model.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Bill
	for _, b := range m.store {
		if b.CDK == cdk {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiredAt.After(out[j].ExpiredAt) })
	return out, nil
}

func (m *MockBillRepo) SetCDK(ctx context.Context, tx repository.Tx, platform, orderID, cdk string, expiredAt time.Time) error {
	if m.SetCDKFunc != nil {
		return m.SetCDKFunc(ctx, tx, platform, orderID, cdk, expiredAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.store[billKey(platform, orderID)]
	if !ok {
		return domain.ErrNotFound
	}
	b.CDK = cdk
	b.ExpiredAt = expiredAt
	return nil
}

func (m *MockBillRepo) Update(ctx context.Context, tx repository.Tx, bill *model.Bill) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, bill)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[billKey(bill.Platform, bill.OrderID)]; !ok {
		return domain.ErrNotFound
	}
	cp := *bill
	m.store[billKey(bill.Platform, bill.OrderID)] = &cp
	return nil
}

func (m *MockBillRepo) Lock(ctx context.Context, tx repository.Tx, platform, orderID string) error {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, tx, platform, orderID)
	}
	return nil
}

func (m *MockBillRepo) ListByCDKs(ctx context.Context, tx repository.Tx, cdks []string) ([]*model.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]struct{}, len(cdks))
	for _, c := range cdks {
		want[c] = struct{}{}
	}
	var out []*model.Bill
	for _, b := range m.store {
		if _, ok := want[b.CDK]; ok && !b.Superseded() {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock PlanRepository ----

type MockPlanRepo struct {
	mu    sync.Mutex
	store map[string]*model.Plan

	FindFunc func(ctx context.Context, tx repository.Tx, platform, planID string) (*model.Plan, error)
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{store: make(map[string]*model.Plan)}
}

func (m *MockPlanRepo) Find(ctx context.Context, tx repository.Tx, platform, planID string) (*model.Plan, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, tx, platform, planID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[platform+"/"+planID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *plan
	m.store[plan.Platform+"/"+plan.PlanID] = &cp
	return nil
}

func (m *MockPlanRepo) Delete(ctx context.Context, tx repository.Tx, platform, planID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[platform+"/"+planID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, platform+"/"+planID)
	return nil
}

func (m *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Plan, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// ---- Mock CheckInRepository ----

type MockCheckInRepo struct {
	mu    sync.Mutex
	byCDK map[string]*model.CheckIn

	GetOrCreateFunc func(ctx context.Context, tx repository.Tx, ci *model.CheckIn) (*model.CheckIn, bool, error)
}

var _ repository.CheckInRepository = (*MockCheckInRepo)(nil)

func NewMockCheckInRepo() *MockCheckInRepo {
	return &MockCheckInRepo{byCDK: make(map[string]*model.CheckIn)}
}

func (m *MockCheckInRepo) GetOrCreate(ctx context.Context, tx repository.Tx, ci *model.CheckIn) (*model.CheckIn, bool, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, tx, ci)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byCDK[ci.CDK]; ok {
		cp := *existing
		return &cp, false, nil
	}
	cp := *ci
	m.byCDK[ci.CDK] = &cp
	out := cp
	return &out, true, nil
}

func (m *MockCheckInRepo) ListByApplication(ctx context.Context, tx repository.Tx, application string, from, to time.Time) ([]*model.CheckIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CheckIn
	for _, ci := range m.byCDK {
		if application != "" && ci.Application != application {
			continue
		}
		if ci.ActivatedAt.Before(from) || !ci.ActivatedAt.Before(to) {
			continue
		}
		cp := *ci
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActivatedAt.Before(out[j].ActivatedAt) })
	return out, nil
}

// ---- Mock IgnoreCheckInRepository ----

type MockIgnoreRepo struct {
	mu      sync.Mutex
	entries []*model.IgnoreCheckIn

	MatchesFunc func(ctx context.Context, tx repository.Tx, application, module, userAgent string) (bool, error)
}

var _ repository.IgnoreCheckInRepository = (*MockIgnoreRepo)(nil)

func NewMockIgnoreRepo() *MockIgnoreRepo { return &MockIgnoreRepo{} }

func (m *MockIgnoreRepo) Matches(ctx context.Context, tx repository.Tx, application, module, userAgent string) (bool, error) {
	if m.MatchesFunc != nil {
		return m.MatchesFunc(ctx, tx, application, module, userAgent)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if (e.Application != "" && e.Application == application) ||
			(e.Module != "" && e.Module == module) ||
			(e.UserAgent != "" && e.UserAgent == userAgent) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockIgnoreRepo) Save(ctx context.Context, tx repository.Tx, entry *model.IgnoreCheckIn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *MockIgnoreRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.IgnoreCheckIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.IgnoreCheckIn, 0, len(m.entries))
	for _, e := range m.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// ---- Mock TransactionRepository ----

type MockTransactionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Transaction // key = quadruple

	CreateFunc func(ctx context.Context, tx repository.Tx, t *model.Transaction) error
}

var _ repository.TransactionRepository = (*MockTransactionRepo)(nil)

func NewMockTransactionRepo() *MockTransactionRepo {
	return &MockTransactionRepo{store: make(map[string]*model.Transaction)}
}

func txnKey(t *model.Transaction) string {
	return t.FromPlatform + "/" + t.FromOrderID + "->" + t.ToPlatform + "/" + t.ToOrderID
}

func (m *MockTransactionRepo) Create(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := txnKey(t)
	if _, ok := m.store[key]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *t
	m.store[key] = &cp
	return nil
}

func (m *MockTransactionRepo) ListByOrder(ctx context.Context, tx repository.Tx, platform, orderID string) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for _, t := range m.store {
		if (t.FromPlatform == platform && t.FromOrderID == orderID) ||
			(t.ToPlatform == platform && t.ToOrderID == orderID) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock RewardRepository ----

type MockRewardRepo struct {
	mu    sync.Mutex
	store map[string]*model.Reward
}

var _ repository.RewardRepository = (*MockRewardRepo)(nil)

func NewMockRewardRepo() *MockRewardRepo {
	return &MockRewardRepo{store: make(map[string]*model.Reward)}
}

func (m *MockRewardRepo) FindByKey(ctx context.Context, tx repository.Tx, rewardKey string) (*model.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[rewardKey]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockRewardRepo) Save(ctx context.Context, tx repository.Tx, reward *model.Reward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *reward
	m.store[reward.RewardKey] = &cp
	return nil
}

func (m *MockRewardRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Reward, 0, len(m.store))
	for _, r := range m.store {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockRewardRepo) MarkRedeemed(ctx context.Context, tx repository.Tx, rewardKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[rewardKey]
	if !ok {
		return domain.ErrNotFound
	}
	if r.Remaining <= 0 {
		return domain.ErrRewardExhausted
	}
	r.Remaining--
	r.ReceivedCount++
	return nil
}

// ---- Mock CodeService ----

type renewCall struct {
	CDK    string
	Expiry time.Time
}

type MockCodeService struct {
	mu      sync.Mutex
	seq     int
	Renews  []renewCall
	Minted  []string
	Expires map[string]time.Time

	AcquireFunc func(ctx context.Context, expiry time.Time, group string) (string, error)
	RenewFunc   func(ctx context.Context, cdk string, expiry time.Time) error
}

var _ adapter.CodeService = (*MockCodeService)(nil)

func NewMockCodeService() *MockCodeService {
	return &MockCodeService{Expires: make(map[string]time.Time)}
}

func (m *MockCodeService) Acquire(ctx context.Context, expiry time.Time, group string) (string, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, expiry, group)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	cdk := "CDK-" + group + "-" + time.Now().Format("150405") + "-" + string(rune('A'+m.seq%26))
	m.Minted = append(m.Minted, cdk)
	m.Expires[cdk] = expiry
	return cdk, nil
}

func (m *MockCodeService) Renew(ctx context.Context, cdk string, expiry time.Time) error {
	if m.RenewFunc != nil {
		return m.RenewFunc(ctx, cdk, expiry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Renews = append(m.Renews, renewCall{CDK: cdk, Expiry: expiry})
	m.Expires[cdk] = expiry
	return nil
}

// ---- Mock TokenValidator ----

type MockTokenValidator struct {
	ValidateFunc func(ctx context.Context, rid, token string) bool
}

var _ adapter.TokenValidator = (*MockTokenValidator)(nil)

func (m *MockTokenValidator) Validate(ctx context.Context, rid, token string) bool {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, rid, token)
	}
	return true
}

// ---- In-memory report cache ----

type MockReportCache struct {
	mu    sync.Mutex
	store map[string]string
	Puts  int
}

var _ usecase.ReportCache = (*MockReportCache)(nil)

func NewMockReportCache() *MockReportCache {
	return &MockReportCache{store: make(map[string]string)}
}

func (m *MockReportCache) Get(ctx context.Context, scope string, month time.Time) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.store[scope+"|"+month.Format("2006-01")]
	return v, ok
}

func (m *MockReportCache) Put(ctx context.Context, scope string, month time.Time, payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Puts++
	m.store[scope+"|"+month.Format("2006-01")] = payload
}
