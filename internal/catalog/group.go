package catalog

import "storefront/internal/domain"

// GroupByVariant partitions products by Metadata.VariantName, falling back to
// the product id so ungrouped products become singleton groups. Groups come
// out in first-occurrence order.
func GroupByVariant(products []domain.Product) []domain.VariantGroup {
	index := map[string]int{}
	var groups []domain.VariantGroup
	for _, p := range products {
		key := p.Metadata.VariantName
		if key == "" {
			key = p.ID
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, domain.VariantGroup{Key: key})
		}
		groups[i].Products = append(groups[i].Products, p)
	}
	return groups
}

// Select returns a copy of g showing the variant with productID. Unknown ids
// leave the selection unchanged. Cart contents are not involved.
func Select(g domain.VariantGroup, productID string) domain.VariantGroup {
	for i, p := range g.Products {
		if p.ID == productID {
			g.Selected = i
			return g
		}
	}
	return g
}

type Result struct {
	Products []domain.Product
	Groups   []domain.VariantGroup
	Empty    bool
}

// Apply runs the whole pipeline: filter, then sort, then group.
func Apply(products []domain.Product, f domain.Filters) Result {
	filtered := Sort(Filter(products, f), f.SortBy)
	return Result{
		Products: filtered,
		Groups:   GroupByVariant(filtered),
		Empty:    len(filtered) == 0,
	}
}
