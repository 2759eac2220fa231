package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"storefront/internal/checkout"
	"storefront/internal/domain"
)

// IntentRepo keeps a record of every payment intent created at checkout.
type IntentRepo struct{ db *sqlx.DB }

func NewIntentRepo(db *sqlx.DB) *IntentRepo { return &IntentRepo{db: db} }

var _ checkout.Recorder = (*IntentRepo)(nil)

type IntentSummary struct {
	ID         string `db:"id"`
	SessionID  string `db:"session_id"`
	CustomerID string `db:"customer_id"`
	Amount     int64  `db:"amount"`
	Currency   string `db:"currency"`
	Status     string `db:"status"`
	CreatedAt  string `db:"created_at"`
}

type IntentItemRow struct {
	ProductID string        `db:"product_id"`
	Name      string        `db:"name"`
	Qty       int           `db:"qty"`
	Price     sql.NullInt64 `db:"price"`
}

// RecordIntent inserts the intent header and its lines in one transaction.
func (r *IntentRepo) RecordIntent(intentID, sessionID, customerID string, amount int64, currency string, items []domain.CartItem) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO payment_intents(id, session_id, customer_id, amount, currency, status, created_at)
	  VALUES(?, ?, ?, ?, ?, 'CREATED', CURRENT_TIMESTAMP)
	`, intentID, sessionID, customerID, amount, currency); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(`
		  INSERT INTO payment_intent_items(intent_id, product_id, name, qty, price)
		  VALUES(?, ?, ?, ?, ?)
		`, intentID, it.ID, it.Name, it.Quantity, toNull(it.Price)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *IntentRepo) Get(id string) (IntentSummary, []IntentItemRow, error) {
	var s IntentSummary
	err := r.db.Get(&s, `
		SELECT id, COALESCE(session_id,'') AS session_id, COALESCE(customer_id,'') AS customer_id,
		       amount, currency, status, created_at
		FROM payment_intents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return IntentSummary{}, nil, ErrNotFound
	}
	if err != nil {
		return IntentSummary{}, nil, err
	}
	var items []IntentItemRow
	if err := r.db.Select(&items, `
		SELECT product_id, name, qty, price
		FROM payment_intent_items
		WHERE intent_id = ?
		ORDER BY name`, id); err != nil {
		return IntentSummary{}, nil, err
	}
	return s, items, nil
}

func (r *IntentRepo) ListLatest(limit int) ([]IntentSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []IntentSummary
	err := r.db.Select(&out, `
		SELECT id, COALESCE(session_id,'') AS session_id, COALESCE(customer_id,'') AS customer_id,
		       amount, currency, status, created_at
		FROM payment_intents
		ORDER BY datetime(created_at) DESC, rowid DESC
		LIMIT ?`, limit)
	return out, err
}
