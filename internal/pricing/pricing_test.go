package pricing_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/pricing"
)

func cents(v int64) *int64 { return &v }

func TestTotalAmount(t *testing.T) {
	assert.Equal(t, int64(0), pricing.TotalAmount(nil))
	assert.Equal(t, int64(0), pricing.TotalAmount([]domain.CartItem{}))

	items := []domain.CartItem{
		{Product: domain.Product{ID: "a", Price: cents(500)}, Quantity: 2},
		{Product: domain.Product{ID: "b", Price: nil}, Quantity: 3},
	}
	assert.Equal(t, int64(1000), pricing.TotalAmount(items))
}

func TestCheckedTotal(t *testing.T) {
	items := []domain.CartItem{
		{Product: domain.Product{ID: "a", Price: cents(500)}, Quantity: 2},
		{Product: domain.Product{ID: "b"}, Quantity: 3},
	}
	got, err := pricing.CheckedTotal(items)
	require.NoError(t, err)
	assert.Equal(t, pricing.TotalAmount(items), got)

	// 2000 * 1060687784238299218 wraps to 160 in int64
	wrap := []domain.CartItem{{Product: domain.Product{ID: "tote", Price: cents(2000)}, Quantity: 1060687784238299218}}
	_, err = pricing.CheckedTotal(wrap)
	assert.ErrorIs(t, err, pricing.ErrOverflow)

	sum := []domain.CartItem{
		{Product: domain.Product{ID: "a", Price: cents(math.MaxInt64 / 2)}, Quantity: 1},
		{Product: domain.Product{ID: "b", Price: cents(math.MaxInt64 / 2)}, Quantity: 1},
		{Product: domain.Product{ID: "c", Price: cents(10)}, Quantity: 1},
	}
	_, err = pricing.CheckedTotal(sum)
	assert.ErrorIs(t, err, pricing.ErrOverflow)

	over := []domain.CartItem{{Product: domain.Product{ID: "a", Price: cents(pricing.MaxCents)}, Quantity: 2}}
	_, err = pricing.CheckedTotal(over)
	assert.ErrorIs(t, err, pricing.ErrOverflow)
}

func TestTotalQuantity(t *testing.T) {
	items := []domain.CartItem{
		{Product: domain.Product{ID: "a"}, Quantity: 2},
		{Product: domain.Product{ID: "b"}, Quantity: 3},
	}
	assert.Equal(t, 5, pricing.TotalQuantity(items))
	assert.Equal(t, 0, pricing.TotalQuantity(nil))
}

func TestFormatPrice(t *testing.T) {
	cases := map[int64]string{
		2599:  "$25.99",
		0:     "$0.00",
		5:     "$0.05",
		100:   "$1.00",
		-2599: "$-25.99",
	}
	for in, want := range cases {
		assert.Equal(t, want, pricing.FormatPrice(in), "cents=%d", in)
	}
	assert.Equal(t, "", pricing.FormatOptional(nil))
	assert.Equal(t, "$12.00", pricing.FormatOptional(cents(1200)))
}

func TestParseMajor(t *testing.T) {
	got, err := pricing.ParseMajor("25.99")
	require.NoError(t, err)
	assert.Equal(t, int64(2599), got)

	got, err = pricing.ParseMajor(" $0.1 ")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got)

	got, err = pricing.ParseMajor("19.995")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got)

	_, err = pricing.ParseMajor("abc")
	assert.ErrorIs(t, err, pricing.ErrBadAmount)
	_, err = pricing.ParseMajor("")
	assert.ErrorIs(t, err, pricing.ErrBadAmount)
	_, err = pricing.ParseMajor("-3")
	assert.ErrorIs(t, err, pricing.ErrNegativeAmount)

	_, err = pricing.ParseMajor("1e20")
	assert.ErrorIs(t, err, pricing.ErrOverflow)
	got, err = pricing.ParseMajor("999999999.99")
	require.NoError(t, err)
	assert.Equal(t, pricing.MaxCents, got)
}
