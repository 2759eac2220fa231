// Package pricing derives money amounts from cart contents.
//
// Amounts are integer minor units (cents) everywhere. Major units only appear
// at the boundaries: FormatPrice for display and ParseMajor for admin input.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

var (
	ErrBadAmount      = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrOverflow       = errors.New("amount out of range")
)

// MaxCents is the largest amount accepted anywhere, $999,999,999.99.
const MaxCents int64 = 99_999_999_999

// TotalAmount sums price*quantity. Unpriced lines contribute nothing. It is
// meant for display; use CheckedTotal for amounts that get charged.
func TotalAmount(items []domain.CartItem) int64 {
	var total int64
	for _, it := range items {
		if it.Price == nil {
			continue
		}
		total += *it.Price * int64(it.Quantity)
	}
	return total
}

// CheckedTotal is TotalAmount that fails with ErrOverflow instead of wrapping,
// and when the sum exceeds MaxCents.
func CheckedTotal(items []domain.CartItem) (int64, error) {
	var total int64
	for _, it := range items {
		if it.Price == nil {
			continue
		}
		line, ok := mulCents(*it.Price, int64(it.Quantity))
		if !ok {
			return 0, fmt.Errorf("%w: line %s", ErrOverflow, it.ID)
		}
		if line > 0 && total > math.MaxInt64-line || line < 0 && total < math.MinInt64-line {
			return 0, ErrOverflow
		}
		total += line
	}
	if total > MaxCents || total < -MaxCents {
		return 0, ErrOverflow
	}
	return total, nil
}

func mulCents(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	p := a * b
	return p, p/b == a
}

func TotalQuantity(items []domain.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// FormatPrice renders cents as "$25.99".
func FormatPrice(cents int64) string {
	return "$" + ToMajor(cents).StringFixed(2)
}

// FormatOptional renders a nullable price, "" when unpriced.
func FormatOptional(cents *int64) string {
	if cents == nil {
		return ""
	}
	return FormatPrice(*cents)
}

func ToMajor(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ParseMajor converts a major-unit string such as "25.99" or "$25.9" into cents,
// rounding half away from zero on the third decimal.
func ParseMajor(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if s == "" {
		return 0, ErrBadAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadAmount, s)
	}
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	c := d.Shift(2).Round(0)
	if c.GreaterThan(decimal.NewFromInt(MaxCents)) {
		return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	return c.IntPart(), nil
}
