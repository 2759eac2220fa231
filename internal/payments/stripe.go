// Package payments talks to Stripe: payment intents for checkout and
// product/price publishing for the admin panel.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"storefront/internal/checkout"
)

var ErrNotConfigured = errors.New("stripe secret key not configured")

type Stripe struct {
	api *client.API
}

// NewStripe returns nil when secretKey is empty so callers can detect a
// missing configuration.
func NewStripe(secretKey string) *Stripe {
	if secretKey == "" {
		return nil
	}
	return NewStripeWithBackends(secretKey, nil)
}

// NewStripeWithBackends points the client at custom backends, e.g. a local
// stripe-mock.
func NewStripeWithBackends(secretKey string, backends *stripe.Backends) *Stripe {
	sc := &client.API{}
	sc.Init(secretKey, backends)
	return &Stripe{api: sc}
}

func (s *Stripe) CreatePaymentIntent(ctx context.Context, p checkout.IntentParams) (checkout.Intent, error) {
	if s == nil {
		return checkout.Intent{}, ErrNotConfigured
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(p.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return checkout.Intent{}, providerError(err)
	}
	return checkout.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

type PublishInput struct {
	StripeProductID string
	Name            string
	Description     string
	Images          []string
	UnitAmount      int64
	Currency        string
}

type PublishResult struct {
	StripeProductID string
	StripePriceID   string
}

// PublishProduct creates the Stripe product and price, or updates an existing
// product and replaces its active prices when the amount changed.
func (s *Stripe) PublishProduct(ctx context.Context, in PublishInput) (PublishResult, error) {
	if s == nil {
		return PublishResult{}, ErrNotConfigured
	}
	if in.StripeProductID == "" {
		return s.createProduct(ctx, in)
	}

	pp := productParams(in)
	pp.Context = ctx
	if _, err := s.api.Products.Update(in.StripeProductID, pp); err != nil {
		return PublishResult{}, providerError(err)
	}

	lp := &stripe.PriceListParams{Product: stripe.String(in.StripeProductID), Active: stripe.Bool(true)}
	lp.Context = ctx
	var active []*stripe.Price
	it := s.api.Prices.List(lp)
	for it.Next() {
		active = append(active, it.Price())
	}
	if err := it.Err(); err != nil {
		return PublishResult{}, providerError(err)
	}
	for _, pr := range active {
		if pr.UnitAmount == in.UnitAmount && string(pr.Currency) == in.Currency {
			return PublishResult{StripeProductID: in.StripeProductID, StripePriceID: pr.ID}, nil
		}
	}
	for _, pr := range active {
		up := &stripe.PriceParams{Active: stripe.Bool(false)}
		up.Context = ctx
		if _, err := s.api.Prices.Update(pr.ID, up); err != nil {
			return PublishResult{}, providerError(err)
		}
	}
	priceID, err := s.newPrice(ctx, in.StripeProductID, in)
	if err != nil {
		return PublishResult{}, err
	}
	return PublishResult{StripeProductID: in.StripeProductID, StripePriceID: priceID}, nil
}

func (s *Stripe) createProduct(ctx context.Context, in PublishInput) (PublishResult, error) {
	pp := productParams(in)
	pp.Context = ctx
	prod, err := s.api.Products.New(pp)
	if err != nil {
		return PublishResult{}, providerError(err)
	}
	priceID, err := s.newPrice(ctx, prod.ID, in)
	if err != nil {
		return PublishResult{}, err
	}
	return PublishResult{StripeProductID: prod.ID, StripePriceID: priceID}, nil
}

func (s *Stripe) newPrice(ctx context.Context, productID string, in PublishInput) (string, error) {
	pp := &stripe.PriceParams{
		Product:    stripe.String(productID),
		UnitAmount: stripe.Int64(in.UnitAmount),
		Currency:   stripe.String(in.Currency),
	}
	pp.Context = ctx
	pr, err := s.api.Prices.New(pp)
	if err != nil {
		return "", providerError(err)
	}
	return pr.ID, nil
}

func productParams(in PublishInput) *stripe.ProductParams {
	pp := &stripe.ProductParams{
		Name:   stripe.String(in.Name),
		Images: stripe.StringSlice(in.Images),
	}
	if in.Description != "" {
		pp.Description = stripe.String(in.Description)
	}
	return pp
}

func providerError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return &checkout.ProviderError{Msg: se.Msg, Err: err}
	}
	return &checkout.ProviderError{Msg: fmt.Sprintf("payment provider: %v", err), Err: err}
}
