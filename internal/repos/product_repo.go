package repos

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID              string        `db:"id"`
	Name            string        `db:"name"`
	Description     string        `db:"description"`
	Price           sql.NullInt64 `db:"price"`
	Currency        string        `db:"currency"`
	ImagesJSON      string        `db:"images_json"`
	Color           string        `db:"color"`
	Size            string        `db:"size"`
	Category        string        `db:"category"`
	VariantName     string        `db:"variant_name"`
	OriginalPrice   sql.NullInt64 `db:"original_price"`
	DealPrice       sql.NullInt64 `db:"deal_price"`
	DealExpiresAt   sql.NullInt64 `db:"deal_expires_at"`
	Status          string        `db:"status"`
	ImageID         string        `db:"image_id"`
	StripeProductID string        `db:"stripe_product_id"`
	StripePriceID   string        `db:"stripe_price_id"`
	CreatedAt       int64         `db:"created_at"`
}

const productCols = `
    id, name, description, price, currency, images_json, color, size, category, variant_name,
    original_price, deal_price, deal_expires_at, status, image_id, stripe_product_id, stripe_price_id, created_at`

func (r productRow) toDomain() domain.Product {
	p := domain.Product{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		Price:           nullable(r.Price),
		Currency:        r.Currency,
		OriginalPrice:   nullable(r.OriginalPrice),
		DealPrice:       nullable(r.DealPrice),
		DealExpiresAt:   nullable(r.DealExpiresAt),
		Status:          r.Status,
		ImageID:         r.ImageID,
		StripeProductID: r.StripeProductID,
		StripePriceID:   r.StripePriceID,
		CreatedAt:       r.CreatedAt,
		Metadata: domain.ProductMetadata{
			Color:       r.Color,
			Size:        r.Size,
			Category:    r.Category,
			VariantName: r.VariantName,
		},
	}
	if r.ImagesJSON != "" {
		_ = json.Unmarshal([]byte(r.ImagesJSON), &p.Images)
	}
	return p
}

func nullable(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func toNull(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func (r *ProductRepo) selectProducts(query string, args ...any) ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Product, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// ListPublished returns the storefront feed, newest listing first.
func (r *ProductRepo) ListPublished() ([]domain.Product, error) {
	return r.selectProducts(`SELECT` + productCols + `
  FROM products
  WHERE status = 'published'
  ORDER BY created_at DESC, id`)
}

func (r *ProductRepo) ListAll() ([]domain.Product, error) {
	return r.selectProducts(`SELECT` + productCols + `
  FROM products
  ORDER BY created_at DESC, id`)
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var row productRow
	err := r.db.Get(&row, `SELECT`+productCols+`
  FROM products
  WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return row.toDomain(), nil
}

// Upsert inserts p when p.ID is empty (assigning a new id) and updates the
// editable fields otherwise. Deal and Stripe fields have their own setters.
func (r *ProductRepo) Upsert(p *domain.Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	if p.Images == nil {
		images = []byte("[]")
	}
	if p.Status == "" {
		p.Status = domain.StatusDraft
	}
	if p.Currency == "" {
		p.Currency = "usd"
	}
	now := time.Now().UnixMilli()
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
		_, err = r.db.Exec(`
		  INSERT INTO products(id,name,description,price,currency,images_json,color,size,category,variant_name,status,image_id,created_at)
		  VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			p.ID, p.Name, p.Description, toNull(p.Price), p.Currency, string(images),
			p.Metadata.Color, p.Metadata.Size, p.Metadata.Category, p.Metadata.VariantName,
			p.Status, p.ImageID, p.CreatedAt)
		return err
	}
	res, err := r.db.Exec(`
	  UPDATE products SET
	    name=?, description=?, price=?, currency=?, images_json=?, color=?, size=?, category=?,
	    variant_name=?, status=?, image_id=?, updated_at=?
	  WHERE id=?`,
		p.Name, p.Description, toNull(p.Price), p.Currency, string(images),
		p.Metadata.Color, p.Metadata.Size, p.Metadata.Category, p.Metadata.VariantName,
		p.Status, p.ImageID, now, p.ID)
	return mustAffect(res, err)
}

func (r *ProductRepo) Delete(id string) error {
	return mustAffect(r.db.Exec(`DELETE FROM products WHERE id = ?`, id))
}

func (r *ProductRepo) SetStatus(id, status string) error {
	return mustAffect(r.db.Exec(`UPDATE products SET status=?, updated_at=? WHERE id=?`,
		status, time.Now().UnixMilli(), id))
}

func (r *ProductRepo) SetStripeIDs(id, stripeProductID, stripePriceID string) error {
	return mustAffect(r.db.Exec(`UPDATE products SET stripe_product_id=?, stripe_price_id=?, updated_at=? WHERE id=?`,
		stripeProductID, stripePriceID, time.Now().UnixMilli(), id))
}

// SetDeal puts a product on deal: the current price is kept as the original
// price and the deal price becomes the charged price.
func (r *ProductRepo) SetDeal(id string, dealPrice int64, expiresAt *int64) error {
	return mustAffect(r.db.Exec(`
	  UPDATE products SET
	    original_price = COALESCE(original_price, price),
	    price = ?, deal_price = ?, deal_expires_at = ?, updated_at = ?
	  WHERE id = ?`, dealPrice, dealPrice, toNull(expiresAt), time.Now().UnixMilli(), id))
}

// ClearDeal restores the original price.
func (r *ProductRepo) ClearDeal(id string) error {
	return mustAffect(r.db.Exec(`
	  UPDATE products SET
	    price = COALESCE(original_price, price),
	    original_price = NULL, deal_price = NULL, deal_expires_at = NULL, updated_at = ?
	  WHERE id = ?`, time.Now().UnixMilli(), id))
}

// ClearExpiredDeals clears every deal that expired at or before nowMs and
// returns how many products were touched.
func (r *ProductRepo) ClearExpiredDeals(nowMs int64) (int64, error) {
	res, err := r.db.Exec(`
	  UPDATE products SET
	    price = COALESCE(original_price, price),
	    original_price = NULL, deal_price = NULL, deal_expires_at = NULL, updated_at = ?
	  WHERE deal_expires_at IS NOT NULL AND deal_expires_at <= ?`, nowMs, nowMs)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func mustAffect(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
