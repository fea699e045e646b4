package utils

import (
	"errors"
	"fmt"
	"math"

	"github.com/banky/go-lighter/constants"
	"github.com/shopspring/decimal"
)

// ToScaledInt scales d by 10^decimals and converts it to int64.
// Returns an error if the scaled value has a fractional part, which
// prevents accidental precision loss when rounding.
func ToScaledInt(d decimal.Decimal, decimals int32) (int64, error) {
	scaled := d.Shift(decimals)

	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%s has more than %d decimals", d, decimals)
	}
	if scaled.GreaterThan(decimal.NewFromInt(math.MaxInt64)) ||
		scaled.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("%s overflows at %d decimals", d, decimals)
	}

	return scaled.IntPart(), nil
}

// StringToScaledInt parses s as a decimal and scales it like ToScaledInt
func StringToScaledInt(s string, decimals int32) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return ToScaledInt(d, decimals)
}

// UsdcToInt converts a USDC amount to the exchange's 6 decimal integer.
// The amount must be positive.
func UsdcToInt(amount string) (int64, error) {
	v, err := StringToScaledInt(amount, constants.USDC_DECIMALS)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("usdc amount must be positive, got %s", amount)
	}
	return v, nil
}

// PriceToInt converts a price quoted with priceDecimals decimals to the
// integer the order book expects
func PriceToInt(price string, priceDecimals int32) (uint32, error) {
	v, err := StringToScaledInt(price, priceDecimals)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("price %s out of range", price)
	}
	return uint32(v), nil
}

// LeverageToMarginFraction converts a leverage multiple into the initial
// margin fraction in 1/10000 units. Fractions are rounded down.
func LeverageToMarginFraction(leverage decimal.Decimal) (uint16, error) {
	if !leverage.IsPositive() {
		return 0, errors.New("leverage must be positive")
	}

	fraction := decimal.NewFromInt(constants.MARGIN_FRACTION_TICK).
		Div(leverage).
		Truncate(0)

	if fraction.IsZero() || fraction.GreaterThan(decimal.NewFromInt(math.MaxUint16)) {
		return 0, fmt.Errorf("leverage %s out of range", leverage)
	}
	return uint16(fraction.IntPart()), nil
}

// ParseMemo packs memo into the fixed width memo field, zero padded
func ParseMemo(memo string) ([constants.MEMO_LENGTH]byte, error) {
	var out [constants.MEMO_LENGTH]byte
	if len(memo) > constants.MEMO_LENGTH {
		return out, fmt.Errorf(
			"memo is %d bytes, at most %d allowed",
			len(memo),
			constants.MEMO_LENGTH,
		)
	}
	copy(out[:], memo)
	return out, nil
}
