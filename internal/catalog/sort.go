package catalog

import (
	"cmp"
	"slices"

	"storefront/internal/domain"
)

// Sort returns a stably sorted copy of products. Relevance and unknown keys
// keep the incoming order.
func Sort(products []domain.Product, key domain.SortKey) []domain.Product {
	out := slices.Clone(products)
	switch key {
	case domain.SortPriceLowHi:
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			return cmp.Compare(priceOrZero(a), priceOrZero(b))
		})
	case domain.SortPriceHighLo:
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			return cmp.Compare(priceOrZero(b), priceOrZero(a))
		})
	case domain.SortNewest:
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			return cmp.Compare(listedAt(b), listedAt(a))
		})
	case domain.SortOldest:
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			return cmp.Compare(listedAt(a), listedAt(b))
		})
	}
	return out
}

func priceOrZero(p domain.Product) int64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

// listedAt is the listing timestamp. Rows imported without one fall back to
// the deal expiry so legacy deal products keep their relative order.
func listedAt(p domain.Product) int64 {
	if p.CreatedAt != 0 {
		return p.CreatedAt
	}
	if p.DealExpiresAt != nil {
		return *p.DealExpiresAt
	}
	return 0
}

// ValidSortKey reports whether k is one of the known sort keys.
func ValidSortKey(k domain.SortKey) bool {
	switch k {
	case domain.SortRelevance, domain.SortPriceLowHi, domain.SortPriceHighLo, domain.SortNewest, domain.SortOldest:
		return true
	}
	return false
}
