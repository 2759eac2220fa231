// Package cart holds the session shopping cart as an immutable value.
//
// Every mutation returns a new Cart and leaves the receiver untouched, so a
// snapshot loaded from a Store can be shared freely between readers.
package cart

import (
	"encoding/json"

	"storefront/internal/domain"
)

type Cart struct {
	items []domain.CartItem
}

// New builds a cart from persisted lines. Lines with a non-positive quantity
// are dropped and duplicate product ids are merged into the first occurrence.
func New(lines ...domain.CartItem) Cart {
	out := make([]domain.CartItem, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 || l.ID == "" {
			continue
		}
		if i := indexOf(out, l.ID); i >= 0 {
			out[i].Quantity += l.Quantity
			continue
		}
		out = append(out, l)
	}
	return Cart{items: out}
}

func (c Cart) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c Cart) Len() int { return len(c.items) }

func (c Cart) IsEmpty() bool { return len(c.items) == 0 }

func (c Cart) Get(productID string) (domain.CartItem, bool) {
	if i := indexOf(c.items, productID); i >= 0 {
		return c.items[i], true
	}
	return domain.CartItem{}, false
}

// Add increments the line for p.ID or appends a new line with quantity 1.
func (c Cart) Add(p domain.Product) Cart {
	out := c.Items()
	if i := indexOf(out, p.ID); i >= 0 {
		out[i].Quantity++
		return Cart{items: out}
	}
	return Cart{items: append(out, domain.CartItem{Product: p, Quantity: 1})}
}

// Remove deletes the line for productID whatever its quantity.
func (c Cart) Remove(productID string) Cart {
	out := make([]domain.CartItem, 0, len(c.items))
	for _, it := range c.items {
		if it.ID != productID {
			out = append(out, it)
		}
	}
	return Cart{items: out}
}

// Decrease lowers the quantity by one. A line at quantity 1 is left as is;
// dropping it is Remove's job.
func (c Cart) Decrease(productID string) Cart {
	i := indexOf(c.items, productID)
	if i < 0 || c.items[i].Quantity <= 1 {
		return c
	}
	out := c.Items()
	out[i].Quantity--
	return Cart{items: out}
}

func (c Cart) Clear() Cart { return Cart{} }

func (c Cart) MarshalJSON() ([]byte, error) {
	items := c.items
	if items == nil {
		items = []domain.CartItem{}
	}
	return json.Marshal(items)
}

func (c *Cart) UnmarshalJSON(b []byte) error {
	var lines []domain.CartItem
	if err := json.Unmarshal(b, &lines); err != nil {
		return err
	}
	*c = New(lines...)
	return nil
}

func indexOf(items []domain.CartItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
