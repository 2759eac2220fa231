package catalog

import (
	"errors"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"storefront/internal/domain"
	"storefront/internal/pricing"
)

var ErrBadFilter = errors.New("invalid filter")

const maxSearchLen = 80

// ParseFilters reads q, color, size, category, min, max and sort from a query
// string. Multi-value keys may repeat or carry comma separated values.
func ParseFilters(v url.Values) (domain.Filters, error) {
	f := domain.Filters{
		SearchTerm: strings.TrimSpace(v.Get("q")),
		Colors:     splitMulti(v["color"]),
		Sizes:      splitMulti(v["size"]),
		Categories: splitMulti(v["category"]),
		SortBy:     domain.SortRelevance,
	}
	f.SearchTerm = truncate(f.SearchTerm, maxSearchLen)
	if s := strings.TrimSpace(v.Get("sort")); s != "" {
		if !ValidSortKey(domain.SortKey(s)) {
			return domain.Filters{}, ErrBadFilter
		}
		f.SortBy = domain.SortKey(s)
	}

	minS, maxS := strings.TrimSpace(v.Get("min")), strings.TrimSpace(v.Get("max"))
	if minS == "" && maxS == "" {
		return f, nil
	}
	r := domain.PriceRange{Min: 0, Max: math.MaxFloat64}
	var ok bool
	if minS != "" {
		if r.Min, ok = parseBound(minS); !ok {
			return domain.Filters{}, ErrBadFilter
		}
	}
	if maxS != "" {
		if r.Max, ok = parseBound(maxS); !ok {
			return domain.Filters{}, ErrBadFilter
		}
	}
	if r.Min > r.Max {
		return domain.Filters{}, ErrBadFilter
	}
	f.PriceRange = &r
	return f, nil
}

// parseBound accepts a finite, non-negative major-unit amount.
func parseBound(s string) (float64, bool) {
	x, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0, false
	}
	return x, true
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func splitMulti(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Facets lists the filter options present in a product list.
type Facets struct {
	Colors     []string
	Sizes      []string
	Categories []string
	MinPrice   string
	MaxPrice   string
}

func BuildFacets(products []domain.Product) Facets {
	var fc Facets
	var lo, hi *int64
	for _, p := range products {
		fc.Colors = appendUnique(fc.Colors, p.Metadata.Color)
		fc.Sizes = appendUnique(fc.Sizes, strings.ToUpper(p.Metadata.Size))
		fc.Categories = appendUnique(fc.Categories, p.Metadata.Category)
		if p.Price == nil {
			continue
		}
		if lo == nil || *p.Price < *lo {
			lo = p.Price
		}
		if hi == nil || *p.Price > *hi {
			hi = p.Price
		}
	}
	slices.Sort(fc.Colors)
	slices.Sort(fc.Sizes)
	slices.Sort(fc.Categories)
	if lo != nil {
		fc.MinPrice = pricing.ToMajor(*lo).StringFixed(2)
		fc.MaxPrice = pricing.ToMajor(*hi).StringFixed(2)
	}
	return fc
}

func appendUnique(set []string, v string) []string {
	if v == "" || slices.Contains(set, v) {
		return set
	}
	return append(set, v)
}
