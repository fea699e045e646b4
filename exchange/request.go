package exchange

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LimitOrderRequest describes a resting limit order. Amounts are already
// scaled to the market's integer units.
type LimitOrderRequest struct {
	MarketIndex      uint8
	ClientOrderIndex int64
	BaseAmount       int64
	Price            uint32
	IsAsk            bool
	ReduceOnly       bool
	PostOnly         bool
	// OrderExpiry is a unix millisecond deadline. Zero uses the default
	// order expiry.
	OrderExpiry int64
}

// MarketOrderRequest describes an immediate-or-cancel order. Price is the
// worst acceptable execution price.
type MarketOrderRequest struct {
	MarketIndex      uint8
	ClientOrderIndex int64
	BaseAmount       int64
	Price            uint32
	IsAsk            bool
	ReduceOnly       bool
}

// TransferRequest moves USDC to another account. Amount and Fee are decimal
// USDC strings.
type TransferRequest struct {
	ToAccountIndex int64
	Amount         string
	Fee            string
	Memo           string
	// L1PrivateKey is the account's hex Ethereum key. When set the transfer
	// also carries an L1 signature.
	L1PrivateKey string
}

type WithdrawRequest struct {
	Amount string
}

type LeverageRequest struct {
	MarketIndex uint8
	Leverage    decimal.Decimal
	Isolated    bool
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// samePublicKey compares hex public keys ignoring case and 0x prefix
func samePublicKey(a, b string) bool {
	trim := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	}
	return trim(a) == trim(b)
}
