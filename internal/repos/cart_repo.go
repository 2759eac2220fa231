package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"storefront/internal/cart"
	"storefront/internal/domain"
)

// CartRepo stores cart lines per session and implements cart.Store. Lines
// are joined with products on load, so a cart always reflects the current
// catalog and drops products that were deleted.
type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

var _ cart.Store = (*CartRepo)(nil)

type cartLineRow struct {
	productRow
	Qty int `db:"qty"`
}

func (r *CartRepo) Load(ctx context.Context, sessionID string) (cart.Cart, error) {
	var rows []cartLineRow
	err := r.db.SelectContext(ctx, &rows, `
	  SELECT p.id, p.name, p.description, p.price, p.currency, p.images_json, p.color, p.size, p.category,
	         p.variant_name, p.original_price, p.deal_price, p.deal_expires_at, p.status, p.image_id,
	         p.stripe_product_id, p.stripe_price_id, p.created_at, ci.qty
	  FROM carts c
	  JOIN cart_items ci ON ci.cart_id = c.id
	  JOIN products p ON p.id = ci.product_id
	  WHERE c.session_id = ?
	  ORDER BY ci.position
	`, sessionID)
	if err != nil {
		return cart.Cart{}, err
	}
	lines := make([]domain.CartItem, len(rows))
	for i, row := range rows {
		lines[i] = domain.CartItem{Product: row.toDomain(), Quantity: row.Qty}
	}
	return cart.New(lines...), nil
}

// Save replaces the stored lines of the session cart with c.
func (r *CartRepo) Save(ctx context.Context, sessionID string, c cart.Cart) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	cartID, err := ensureCart(ctx, tx, sessionID)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return err
	}
	for i, it := range c.Items() {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO cart_items(cart_id,product_id,qty,position,price_at_add,created_at)
		  VALUES(?,?,?,?,?,CURRENT_TIMESTAMP)
		`, cartID, it.ID, it.Quantity, i, toNull(it.Price)); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE carts SET updated_at=? WHERE id=?`,
		time.Now().Format(time.RFC3339), cartID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *CartRepo) Delete(ctx context.Context, sessionID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE session_id = ?)`, sessionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

func ensureCart(ctx context.Context, tx *sqlx.Tx, sessionID string) (string, error) {
	var cartID string
	err := tx.GetContext(ctx, &cartID, `SELECT id FROM carts WHERE session_id = ?`, sessionID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, time.Now().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}
