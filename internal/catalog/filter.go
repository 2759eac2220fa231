// Package catalog turns a flat product list into the filtered, sorted and
// variant-grouped view the storefront renders.
package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/pricing"
)

// Filter keeps the products that satisfy every active constraint in f.
// The input slice is not modified.
func Filter(products []domain.Product, f domain.Filters) []domain.Product {
	m := newMatcher(f)
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if m.match(p) {
			out = append(out, p)
		}
	}
	return out
}

type matcher struct {
	term       string
	colors     []string
	sizes      []string
	categories []string
	hasRange   bool
	min, max   decimal.Decimal
}

func newMatcher(f domain.Filters) matcher {
	m := matcher{
		term:       strings.ToLower(strings.TrimSpace(f.SearchTerm)),
		colors:     nonEmpty(f.Colors),
		sizes:      nonEmpty(f.Sizes),
		categories: nonEmpty(f.Categories),
	}
	if f.PriceRange != nil {
		m.hasRange = true
		m.min = decimal.NewFromFloat(f.PriceRange.Min)
		m.max = decimal.NewFromFloat(f.PriceRange.Max)
	}
	return m
}

func (m matcher) match(p domain.Product) bool {
	if m.term != "" {
		if !strings.Contains(strings.ToLower(p.Name), m.term) &&
			!strings.Contains(strings.ToLower(p.Description), m.term) {
			return false
		}
	}
	if m.hasRange {
		// an unpriced product cannot be placed in a range
		if p.Price == nil {
			return false
		}
		price := pricing.ToMajor(*p.Price)
		if price.LessThan(m.min) || price.GreaterThan(m.max) {
			return false
		}
	}
	if len(m.colors) > 0 && !containsFold(m.colors, p.Metadata.Color) {
		return false
	}
	if len(m.sizes) > 0 && !containsFold(m.sizes, p.Metadata.Size) {
		return false
	}
	if len(m.categories) > 0 && !containsExact(m.categories, p.Metadata.Category) {
		return false
	}
	return true
}

func containsFold(set []string, v string) bool {
	if v == "" {
		return false
	}
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func containsExact(set []string, v string) bool {
	if v == "" {
		return false
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
