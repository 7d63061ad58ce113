package model

import "time"

// Platform identifiers for orders and plans.
const (
	PlatformAfdian  = "afdian"
	PlatformYimapay = "yimapay"
	PlatformReward  = "reward" // synthetic source platform for reward grants
)

// TransferredSuperseded marks the donor side of a merge. A bill with a
// negative transfer state has donated its remaining entitlement and its
// CDK field points at the receiving order's code for bookkeeping.
const TransferredSuperseded = -1

// OrderData is the canonical, platform-independent shape of one payment
// event as produced by a platform order adapter. It carries everything
// ingestion needs; RawData keeps the provider payload for audit.
type OrderData struct {
	Platform        string
	PlatformTradeNo string
	CustomOrderID   string
	PlanID          string
	UserID          string
	CreatedAt       time.Time
	BuyCount        int
	ActuallyPaid    string
	OriginalPrice   string
	RawData         string
}

// Bill is the persisted record of one payment event. (Platform, OrderID)
// is the composite key; CustomOrderID is an alternate key when present.
type Bill struct {
	Platform      string
	OrderID       string
	CustomOrderID string
	PlanID        string
	UserID        string
	CreatedAt     time.Time
	BuyCount      int
	ActuallyPaid  string
	OriginalPrice string
	RawData       string

	// set by ingestion / transfer
	ExpiredAt time.Time
	CDK       string

	// >= 0 counts merges received; TransferredSuperseded means this bill
	// donated its entitlement to another order.
	Transferred int
}

// Superseded reports whether this bill is the donor side of a merge and
// must be excluded from revenue attribution.
func (b *Bill) Superseded() bool { return b.Transferred < 0 }
