package domain

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

type ProductMetadata struct {
	Color       string `json:"color,omitempty"`
	Size        string `json:"size,omitempty"`
	Category    string `json:"category,omitempty"`
	VariantName string `json:"variant_name,omitempty"`
}

// Product prices are integer cents. A nil Price means the product is unpriced.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         *int64          `json:"price"`
	Currency      string          `json:"currency,omitempty"`
	Images        []string        `json:"images,omitempty"`
	Description   string          `json:"description,omitempty"`
	Metadata      ProductMetadata `json:"metadata"`
	OriginalPrice *int64          `json:"originalPrice,omitempty"`
	DealPrice     *int64          `json:"dealPrice,omitempty"`
	DealExpiresAt *int64          `json:"dealExpiresAt,omitempty"` // unix ms

	CreatedAt       int64  `json:"createdAt,omitempty"` // unix ms
	Status          string `json:"status,omitempty"`
	ImageID         string `json:"imageId,omitempty"`
	StripeProductID string `json:"stripeProductId,omitempty"`
	StripePriceID   string `json:"stripePriceId,omitempty"`
}

// HasDeal reports whether a deal is set and not yet expired at nowMs.
func (p Product) HasDeal(nowMs int64) bool {
	if p.DealPrice == nil {
		return false
	}
	return p.DealExpiresAt == nil || *p.DealExpiresAt > nowMs
}

type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

type SortKey string

const (
	SortRelevance   SortKey = "relevance"
	SortPriceLowHi  SortKey = "priceLowHigh"
	SortPriceHighLo SortKey = "priceHighLow"
	SortNewest      SortKey = "newest"
	SortOldest      SortKey = "oldest"
)

// PriceRange bounds are major currency units, inclusive.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Filters struct {
	SearchTerm string      `json:"searchTerm,omitempty"`
	Colors     []string    `json:"colors,omitempty"`
	Sizes      []string    `json:"sizes,omitempty"`
	Categories []string    `json:"categories,omitempty"`
	PriceRange *PriceRange `json:"priceRange,omitempty"`
	SortBy     SortKey     `json:"sortBy,omitempty"`
}

type VariantGroup struct {
	Key      string    `json:"key"`
	Products []Product `json:"products"`
	Selected int       `json:"selected"`
}

// Current returns the variant shown for the group.
func (g VariantGroup) Current() Product {
	if g.Selected < 0 || g.Selected >= len(g.Products) {
		return g.Products[0]
	}
	return g.Products[g.Selected]
}

type Image struct {
	ID         string `db:"id" json:"id"`
	ObjectKey  string `db:"object_key" json:"objectKey"`
	URL        string `db:"url" json:"url"`
	UploadedBy string `db:"uploaded_by" json:"uploadedBy,omitempty"`
	CreatedAt  int64  `db:"created_at" json:"createdAt"`
}

type AnalyticsEvent struct {
	ID        string `db:"id" json:"id"`
	Type      string `db:"type" json:"type"`
	Timestamp int64  `db:"ts" json:"timestamp"`
	UserID    string `db:"user_id" json:"userId,omitempty"`
	Path      string `db:"path" json:"path"`
	Element   string `db:"element" json:"element,omitempty"`
	Extra     string `db:"extra" json:"extra,omitempty"` // raw JSON
}
