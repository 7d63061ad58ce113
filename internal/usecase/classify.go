// File: internal/usecase/classify.go
package usecase

// SourceKind names the shape of a caller-supplied source identifier.
// Callers pass a single opaque id; its platform is inferred from shape.
type SourceKind int

const (
	SourceRewardKey SourceKind = iota
	SourceAfdianOrder
	SourceYimapayTradeNo
	SourceYimapayCustomOrder
)

func (k SourceKind) String() string {
	switch k {
	case SourceAfdianOrder:
		return "afdian_order"
	case SourceYimapayTradeNo:
		return "yimapay_trade_no"
	case SourceYimapayCustomOrder:
		return "yimapay_custom_order"
	default:
		return "reward_key"
	}
}

// ClassifySource infers what kind of identifier id is:
//
//   - 27 digits                     afdian order number
//   - 22 chars with "YMF" prefix    yimapay trade number
//   - 32 chars, first 14 digits     yimapay merchant order id
//     (timestamp prefix + random suffix)
//   - anything else                 reward key
//
// Anything that fails the shape checks falls through to reward key, so an
// unknown id surfaces as "reward not found" rather than a platform error.
func ClassifySource(id string) SourceKind {
	switch {
	case len(id) == 27 && allDigits(id):
		return SourceAfdianOrder
	case len(id) == 22 && id[:3] == "YMF":
		return SourceYimapayTradeNo
	case len(id) == 32 && allDigits(id[:14]):
		return SourceYimapayCustomOrder
	default:
		return SourceRewardKey
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
