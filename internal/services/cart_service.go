package services

import (
	"context"
	"errors"
	"sync"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/pricing"
	"storefront/internal/repos"
)

var (
	ErrUnpriced    = errors.New("product has no price")
	ErrUnavailable = errors.New("product is not available")
)

// CartService applies one cart operation per call to the session snapshot.
// Calls for the same session are serialised.
type CartService struct {
	Store cart.Store
	Prods *repos.ProductRepo

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewCartService(store cart.Store, prods *repos.ProductRepo) *CartService {
	return &CartService{Store: store, Prods: prods, locks: map[string]*sessionLock{}}
}

func (s *CartService) lock(sid string) func() {
	s.mu.Lock()
	if s.locks == nil {
		s.locks = map[string]*sessionLock{}
	}
	l, ok := s.locks[sid]
	if !ok {
		l = &sessionLock{}
		s.locks[sid] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sid)
		}
		s.mu.Unlock()
	}
}

func (s *CartService) update(ctx context.Context, sid string, op func(cart.Cart) cart.Cart) (cart.Cart, error) {
	unlock := s.lock(sid)
	defer unlock()
	c, err := s.Store.Load(ctx, sid)
	if err != nil {
		return cart.Cart{}, err
	}
	next := op(c)
	if err := s.Store.Save(ctx, sid, next); err != nil {
		return cart.Cart{}, err
	}
	return next, nil
}

// Add puts one unit of a published, priced product into the cart.
func (s *CartService) Add(ctx context.Context, sid, productID string) (cart.Cart, error) {
	p, err := s.Prods.Get(productID)
	if err != nil {
		return cart.Cart{}, err
	}
	if p.Status != domain.StatusPublished {
		return cart.Cart{}, ErrUnavailable
	}
	if p.Price == nil {
		return cart.Cart{}, ErrUnpriced
	}
	return s.update(ctx, sid, func(c cart.Cart) cart.Cart { return c.Add(p) })
}

func (s *CartService) Remove(ctx context.Context, sid, productID string) (cart.Cart, error) {
	return s.update(ctx, sid, func(c cart.Cart) cart.Cart { return c.Remove(productID) })
}

func (s *CartService) Decrease(ctx context.Context, sid, productID string) (cart.Cart, error) {
	return s.update(ctx, sid, func(c cart.Cart) cart.Cart { return c.Decrease(productID) })
}

func (s *CartService) Clear(ctx context.Context, sid string) error {
	unlock := s.lock(sid)
	defer unlock()
	return s.Store.Delete(ctx, sid)
}

func (s *CartService) Load(ctx context.Context, sid string) (cart.Cart, error) {
	return s.Store.Load(ctx, sid)
}

type CartView struct {
	Items          []domain.CartItem `json:"items"`
	TotalAmount    int64             `json:"totalAmount"`
	TotalQuantity  int               `json:"totalQuantity"`
	FormattedTotal string            `json:"formattedTotal"`
}

func NewCartView(c cart.Cart) CartView {
	items := c.Items()
	if items == nil {
		items = []domain.CartItem{}
	}
	total := pricing.TotalAmount(items)
	return CartView{
		Items:          items,
		TotalAmount:    total,
		TotalQuantity:  pricing.TotalQuantity(items),
		FormattedTotal: pricing.FormatPrice(total),
	}
}

func (s *CartService) View(ctx context.Context, sid string) (CartView, error) {
	c, err := s.Store.Load(ctx, sid)
	if err != nil {
		return CartView{}, err
	}
	return NewCartView(c), nil
}
