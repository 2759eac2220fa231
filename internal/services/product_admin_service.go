package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/payments"
	"storefront/internal/repos"
)

var (
	ErrBadDeal     = errors.New("deal price must be below the current price")
	ErrDealExpired = errors.New("deal expiry is in the past")
	ErrNeedsPrice  = errors.New("product needs a price before it can be published to Stripe")
)

// Publisher pushes a product and its price to the payment provider.
type Publisher interface {
	PublishProduct(ctx context.Context, in payments.PublishInput) (payments.PublishResult, error)
}

type ProductAdminService struct {
	Prods     *repos.ProductRepo
	Publisher Publisher
	Currency  string
	// BaseURL turns relative image paths into absolute URLs for Stripe.
	BaseURL string
	Now     func() time.Time
}

func (s *ProductAdminService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ProductAdminService) List() ([]domain.Product, error) { return s.Prods.ListAll() }

func (s *ProductAdminService) Get(id string) (domain.Product, error) { return s.Prods.Get(id) }

// Save creates or updates p. Deal fields are left untouched.
func (s *ProductAdminService) Save(p *domain.Product) error {
	if p.Currency == "" {
		p.Currency = s.Currency
	}
	return s.Prods.Upsert(p)
}

func (s *ProductAdminService) Delete(id string) error { return s.Prods.Delete(id) }

func (s *ProductAdminService) SetStatus(id, status string) error {
	return s.Prods.SetStatus(id, status)
}

// PublishToStripe syncs the product with Stripe and stores the returned ids.
func (s *ProductAdminService) PublishToStripe(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(id)
	if err != nil {
		return domain.Product{}, err
	}
	if p.Price == nil || *p.Price <= 0 {
		return domain.Product{}, ErrNeedsPrice
	}
	res, err := s.Publisher.PublishProduct(ctx, payments.PublishInput{
		StripeProductID: p.StripeProductID,
		Name:            p.Name,
		Description:     p.Description,
		Images:          s.absoluteImages(p.Images),
		UnitAmount:      *p.Price,
		Currency:        p.Currency,
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("publish %s: %w", id, err)
	}
	if err := s.Prods.SetStripeIDs(id, res.StripeProductID, res.StripePriceID); err != nil {
		return domain.Product{}, err
	}
	p.StripeProductID, p.StripePriceID = res.StripeProductID, res.StripePriceID
	return p, nil
}

func (s *ProductAdminService) absoluteImages(images []string) []string {
	var out []string
	for _, img := range images {
		switch {
		case strings.HasPrefix(img, "https://"), strings.HasPrefix(img, "http://"):
			out = append(out, img)
		case s.BaseURL != "":
			// bare keys live under the media route
			if !strings.HasPrefix(img, "/") {
				img = "/media/" + img
			}
			out = append(out, strings.TrimRight(s.BaseURL, "/")+img)
		}
	}
	return out
}

// SetDeal discounts a priced product until expiresAt (nil means no expiry).
func (s *ProductAdminService) SetDeal(id string, dealPrice int64, expiresAt *time.Time) error {
	p, err := s.Prods.Get(id)
	if err != nil {
		return err
	}
	base := p.Price
	if p.OriginalPrice != nil {
		base = p.OriginalPrice
	}
	if base == nil || dealPrice <= 0 || dealPrice >= *base {
		return ErrBadDeal
	}
	var expMs *int64
	if expiresAt != nil {
		if !expiresAt.After(s.now()) {
			return ErrDealExpired
		}
		ms := expiresAt.UnixMilli()
		expMs = &ms
	}
	return s.Prods.SetDeal(id, dealPrice, expMs)
}

func (s *ProductAdminService) ClearDeal(id string) error { return s.Prods.ClearDeal(id) }
