// Package checkout turns a cart into a payment intent.
//
// The charged amount is always recomputed here from catalog prices; totals
// shown to the shopper are advisory.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/pricing"
)

var (
	ErrCartEmpty       = errors.New("cart is empty")
	ErrInvalidAmount   = errors.New("invalid order amount")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrUnknownProduct  = errors.New("unknown product")
)

const (
	DefaultCurrency = "usd"
	// MaxLineQuantity caps the units of one product in a single order.
	MaxLineQuantity = 999
)

// ProviderError carries the payment provider's message verbatim so it can be
// shown to the shopper.
type ProviderError struct {
	Msg string
	Err error
}

func (e *ProviderError) Error() string { return e.Msg }
func (e *ProviderError) Unwrap() error { return e.Err }

type IntentParams struct {
	Amount     int64
	Currency   string
	CustomerID string
	Metadata   map[string]string
}

type Intent struct {
	ID           string `json:"-"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency,omitempty"`
}

type PaymentProvider interface {
	CreatePaymentIntent(ctx context.Context, p IntentParams) (Intent, error)
}

// Catalog resolves the authoritative product for an id. ok is false when the
// product does not exist or is not for sale.
type Catalog interface {
	Lookup(productID string) (p domain.Product, ok bool, err error)
}

// Recorder keeps a trail of created intents. Optional.
type Recorder interface {
	RecordIntent(intentID, sessionID, customerID string, amount int64, currency string, items []domain.CartItem) error
}

type Request struct {
	Items      []domain.CartItem
	CustomerID string
	SessionID  string
}

type Service struct {
	Provider PaymentProvider
	Catalog  Catalog
	Recorder Recorder
	Currency string
}

func NewService(provider PaymentProvider, cat Catalog, rec Recorder, currency string) *Service {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Service{Provider: provider, Catalog: cat, Recorder: rec, Currency: currency}
}

// Quote validates items and returns them re-priced together with the amount
// that would be charged. No provider call is made.
func (s *Service) Quote(items []domain.CartItem) ([]domain.CartItem, int64, error) {
	if len(items) == 0 {
		return nil, 0, ErrCartEmpty
	}
	priced, err := s.reprice(items)
	if err != nil {
		return nil, 0, err
	}
	amount, err := pricing.CheckedTotal(priced)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	if amount <= 0 {
		return nil, 0, ErrInvalidAmount
	}
	return priced, amount, nil
}

// CreateIntent makes a single provider call. Failures are not retried.
func (s *Service) CreateIntent(ctx context.Context, req Request) (Intent, error) {
	priced, amount, err := s.Quote(req.Items)
	if err != nil {
		return Intent{}, err
	}
	intent, err := s.Provider.CreatePaymentIntent(ctx, IntentParams{
		Amount:     amount,
		Currency:   s.currency(),
		CustomerID: req.CustomerID,
		Metadata:   map[string]string{"items": fmt.Sprint(pricing.TotalQuantity(priced))},
	})
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) {
			return Intent{}, pe
		}
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	if intent.Amount == 0 {
		intent.Amount = amount
	}
	if s.Recorder != nil {
		if rerr := s.Recorder.RecordIntent(intent.ID, req.SessionID, req.CustomerID, amount, s.currency(), priced); rerr != nil {
			applog.Event("checkout.record.fail", rerr, map[string]any{"intent": intent.ID})
		}
	}
	return intent, nil
}

func (s *Service) currency() string {
	if s.Currency == "" {
		return DefaultCurrency
	}
	return s.Currency
}

func (s *Service) reprice(items []domain.CartItem) ([]domain.CartItem, error) {
	out := make([]domain.CartItem, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 || it.Quantity > MaxLineQuantity {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, it.ID)
		}
		if s.Catalog == nil {
			out = append(out, it)
			continue
		}
		p, ok, err := s.Catalog.Lookup(it.ID)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", it.ID, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, it.ID)
		}
		out = append(out, domain.CartItem{Product: p, Quantity: it.Quantity})
	}
	return out, nil
}

// IsValidation reports whether err is a caller error that was caught before
// any provider call.
func IsValidation(err error) bool {
	return errors.Is(err, ErrCartEmpty) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrUnknownProduct)
}

// UserMessage is the text shown to the shopper for err.
func UserMessage(err error) string {
	var pe *ProviderError
	switch {
	case errors.Is(err, ErrCartEmpty):
		return "Cart is empty"
	case errors.Is(err, ErrInvalidAmount):
		return "Invalid order amount"
	case errors.Is(err, ErrInvalidQuantity):
		return "Invalid item quantity"
	case errors.Is(err, ErrUnknownProduct):
		return "An item in your cart is no longer available"
	case errors.As(err, &pe):
		return pe.Msg
	}
	return "Payment could not be started. Please try again."
}
