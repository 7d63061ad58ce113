package model

import "time"

// Transfer reason tags recorded on audit transactions.
const (
	ReasonTransferOrder  = "transfer/other_order"
	ReasonTransferReward = "transfer/reward"
)

// Transaction is the append-only audit record of one entitlement merge or
// reward grant. The quadruple (FromPlatform, FromOrderID, ToPlatform,
// ToOrderID) is unique; for reward grants FromPlatform is "reward" and
// FromOrderID holds the reward key, which makes the uniqueness constraint
// double as the once-per-destination redemption guard.
type Transaction struct {
	ID            string // UUID
	FromPlatform  string
	FromOrderID   string
	ToPlatform    string
	ToOrderID     string
	TransferredAt time.Time
	DaysDelta     int
	NewExpiredAt  time.Time
	Why           string
}
