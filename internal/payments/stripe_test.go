package payments

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"storefront/internal/checkout"
)

func fakeStripe(t *testing.T, h http.HandlerFunc) *Stripe {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	return NewStripeWithBackends("sk_test_123", &stripe.Backends{API: backend})
}

func TestCreatePaymentIntent(t *testing.T) {
	var form url.Values
	s := fakeStripe(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pi_123","object":"payment_intent","client_secret":"pi_123_secret_abc","amount":6000,"currency":"usd"}`)
	})

	in, err := s.CreatePaymentIntent(context.Background(), checkout.IntentParams{
		Amount: 6000, Currency: "usd", CustomerID: "cus_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", in.ID)
	assert.Equal(t, "pi_123_secret_abc", in.ClientSecret)
	assert.Equal(t, int64(6000), in.Amount)

	assert.Equal(t, "6000", form.Get("amount"))
	assert.Equal(t, "usd", form.Get("currency"))
	assert.Equal(t, "cus_1", form.Get("customer"))
	assert.Equal(t, "true", form.Get("automatic_payment_methods[enabled]"))
}

func TestCreatePaymentIntent_CardError(t *testing.T) {
	s := fakeStripe(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = io.WriteString(w, `{"error":{"type":"card_error","message":"Your card was declined."}}`)
	})

	_, err := s.CreatePaymentIntent(context.Background(), checkout.IntentParams{Amount: 100, Currency: "usd"})
	var pe *checkout.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Your card was declined.", pe.Msg)
}

func TestNilStripeIsNotConfigured(t *testing.T) {
	s := NewStripe("")
	_, err := s.CreatePaymentIntent(context.Background(), checkout.IntentParams{Amount: 1})
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = s.PublishProduct(context.Background(), PublishInput{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPublishProduct_CreatesProductAndPrice(t *testing.T) {
	var paths []string
	s := fakeStripe(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/products":
			_, _ = io.WriteString(w, `{"id":"prod_1","object":"product","name":"Tote"}`)
		case "/v1/prices":
			_, _ = io.WriteString(w, `{"id":"price_1","object":"price","unit_amount":2599,"currency":"usd"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	res, err := s.PublishProduct(context.Background(), PublishInput{Name: "Tote", UnitAmount: 2599, Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, PublishResult{StripeProductID: "prod_1", StripePriceID: "price_1"}, res)
	assert.Equal(t, []string{"POST /v1/products", "POST /v1/prices"}, paths)
}

func TestPublishProduct_KeepsMatchingPrice(t *testing.T) {
	var paths []string
	s := fakeStripe(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v1/products/prod_1":
			_, _ = io.WriteString(w, `{"id":"prod_1","object":"product"}`)
		case r.URL.Path == "/v1/prices" && r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"object":"list","url":"/v1/prices","has_more":false,"data":[{"id":"price_9","object":"price","unit_amount":2599,"currency":"usd","active":true}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	res, err := s.PublishProduct(context.Background(), PublishInput{
		StripeProductID: "prod_1", Name: "Tote", UnitAmount: 2599, Currency: "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "price_9", res.StripePriceID)
	assert.Equal(t, []string{"POST /v1/products/prod_1", "GET /v1/prices"}, paths)
}
