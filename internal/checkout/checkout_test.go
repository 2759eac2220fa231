package checkout_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/checkout"
	"storefront/internal/domain"
)

func cents(v int64) *int64 { return &v }

type fakeProvider struct {
	calls int
	last  checkout.IntentParams
	err   error
}

func (f *fakeProvider) CreatePaymentIntent(_ context.Context, p checkout.IntentParams) (checkout.Intent, error) {
	f.calls++
	f.last = p
	if f.err != nil {
		return checkout.Intent{}, f.err
	}
	return checkout.Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Amount: p.Amount, Currency: p.Currency}, nil
}

type mapCatalog map[string]domain.Product

func (m mapCatalog) Lookup(id string) (domain.Product, bool, error) {
	p, ok := m[id]
	return p, ok, nil
}

type recorder struct{ ids []string }

func (r *recorder) RecordIntent(id, _, _ string, _ int64, _ string, _ []domain.CartItem) error {
	r.ids = append(r.ids, id)
	return nil
}

func catalogFixture() mapCatalog {
	return mapCatalog{
		"tote": {ID: "tote", Name: "Tote", Price: cents(2000)},
		"free": {ID: "free", Name: "Sticker"},
	}
}

func TestCreateIntent_EmptyCartRejectedBeforeProvider(t *testing.T) {
	p := &fakeProvider{}
	svc := checkout.NewService(p, catalogFixture(), nil, "")

	_, err := svc.CreateIntent(context.Background(), checkout.Request{})
	require.ErrorIs(t, err, checkout.ErrCartEmpty)
	assert.Equal(t, 0, p.calls)
	assert.True(t, checkout.IsValidation(err))
	assert.Equal(t, "Cart is empty", checkout.UserMessage(err))
}

func TestCreateIntent_RecomputesFromCatalog(t *testing.T) {
	p := &fakeProvider{}
	rec := &recorder{}
	svc := checkout.NewService(p, catalogFixture(), rec, "usd")

	// client claims one cent per tote
	items := []domain.CartItem{{Product: domain.Product{ID: "tote", Price: cents(1)}, Quantity: 3}}
	in, err := svc.CreateIntent(context.Background(), checkout.Request{Items: items, CustomerID: "cus_9"})
	require.NoError(t, err)

	assert.Equal(t, int64(6000), in.Amount)
	assert.Equal(t, "pi_1_secret", in.ClientSecret)
	assert.Equal(t, int64(6000), p.last.Amount)
	assert.Equal(t, "usd", p.last.Currency)
	assert.Equal(t, "cus_9", p.last.CustomerID)
	assert.Equal(t, []string{"pi_1"}, rec.ids)
}

func TestCreateIntent_NonPositiveAmount(t *testing.T) {
	p := &fakeProvider{}
	svc := checkout.NewService(p, catalogFixture(), nil, "")

	items := []domain.CartItem{{Product: domain.Product{ID: "free"}, Quantity: 2}}
	_, err := svc.CreateIntent(context.Background(), checkout.Request{Items: items})
	require.ErrorIs(t, err, checkout.ErrInvalidAmount)
	assert.Equal(t, 0, p.calls)
	assert.Equal(t, "Invalid order amount", checkout.UserMessage(err))
}

func TestCreateIntent_UnknownProductAndBadQuantity(t *testing.T) {
	p := &fakeProvider{}
	svc := checkout.NewService(p, catalogFixture(), nil, "")

	_, err := svc.CreateIntent(context.Background(), checkout.Request{
		Items: []domain.CartItem{{Product: domain.Product{ID: "ghost"}, Quantity: 1}},
	})
	require.ErrorIs(t, err, checkout.ErrUnknownProduct)

	_, err = svc.CreateIntent(context.Background(), checkout.Request{
		Items: []domain.CartItem{{Product: domain.Product{ID: "tote"}, Quantity: 0}},
	})
	require.ErrorIs(t, err, checkout.ErrInvalidQuantity)
	assert.Equal(t, 0, p.calls)
}

func TestCreateIntent_QuantityCeiling(t *testing.T) {
	p := &fakeProvider{}
	svc := checkout.NewService(p, catalogFixture(), nil, "")

	// 2000 * 1060687784238299218 wraps to 160 in int64
	_, err := svc.CreateIntent(context.Background(), checkout.Request{
		Items: []domain.CartItem{{Product: domain.Product{ID: "tote"}, Quantity: 1060687784238299218}},
	})
	require.ErrorIs(t, err, checkout.ErrInvalidQuantity)

	_, err = svc.CreateIntent(context.Background(), checkout.Request{
		Items: []domain.CartItem{{Product: domain.Product{ID: "tote"}, Quantity: checkout.MaxLineQuantity + 1}},
	})
	require.ErrorIs(t, err, checkout.ErrInvalidQuantity)
	assert.Equal(t, 0, p.calls)

	in, err := svc.CreateIntent(context.Background(), checkout.Request{
		Items: []domain.CartItem{{Product: domain.Product{ID: "tote"}, Quantity: checkout.MaxLineQuantity}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2000*checkout.MaxLineQuantity), in.Amount)
}

func TestCreateIntent_TotalOutOfRange(t *testing.T) {
	p := &fakeProvider{}
	huge := mapCatalog{"gold": {ID: "gold", Name: "Gold bar", Price: cents(math.MaxInt64 / 10)}}
	svc := checkout.NewService(p, huge, nil, "")

	_, err := svc.CreateIntent(context.Background(), checkout.Request{
		Items: []domain.CartItem{{Product: domain.Product{ID: "gold"}, Quantity: 20}},
	})
	require.ErrorIs(t, err, checkout.ErrInvalidAmount)
	assert.True(t, checkout.IsValidation(err))
	assert.Equal(t, "Invalid order amount", checkout.UserMessage(err))
	assert.Equal(t, 0, p.calls)
}

func TestCreateIntent_WithoutCatalogUsesItemPrices(t *testing.T) {
	p := &fakeProvider{}
	svc := checkout.NewService(p, nil, nil, "")

	items := []domain.CartItem{
		{Product: domain.Product{ID: "a", Price: cents(500)}, Quantity: 2},
		{Product: domain.Product{ID: "b"}, Quantity: 3},
	}
	in, err := svc.CreateIntent(context.Background(), checkout.Request{Items: items})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), in.Amount)
}

func TestCreateIntent_ProviderErrorSurfacedOnce(t *testing.T) {
	p := &fakeProvider{err: &checkout.ProviderError{Msg: "Your card was declined."}}
	svc := checkout.NewService(p, catalogFixture(), nil, "")

	items := []domain.CartItem{{Product: domain.Product{ID: "tote"}, Quantity: 1}}
	_, err := svc.CreateIntent(context.Background(), checkout.Request{Items: items})
	require.Error(t, err)
	assert.Equal(t, 1, p.calls)
	assert.False(t, checkout.IsValidation(err))
	assert.Equal(t, "Your card was declined.", checkout.UserMessage(err))

	p.err = errors.New("dial tcp: timeout")
	_, err = svc.CreateIntent(context.Background(), checkout.Request{Items: items})
	require.Error(t, err)
	assert.Equal(t, "Payment could not be started. Please try again.", checkout.UserMessage(err))
}
