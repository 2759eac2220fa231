package repos

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"storefront/internal/domain"
	applog "storefront/internal/log"
)

var ErrNotFound = errors.New("not found")

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if strings.Contains(dsn, ":memory:") {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed demo catalog if DB is empty
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Products (prices in cents)
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price INTEGER CHECK (price IS NULL OR price >= 0),
  currency TEXT NOT NULL DEFAULT 'usd',
  images_json TEXT NOT NULL DEFAULT '[]',
  color TEXT NOT NULL DEFAULT '',
  size TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  variant_name TEXT NOT NULL DEFAULT '',
  original_price INTEGER,
  deal_price INTEGER,
  deal_expires_at INTEGER,
  status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft','published')),
  image_id TEXT NOT NULL DEFAULT '',
  stripe_product_id TEXT NOT NULL DEFAULT '',
  stripe_price_id TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  updated_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_products_status     ON products(status);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);
CREATE INDEX IF NOT EXISTS idx_products_deal       ON products(deal_expires_at);

-- Uploaded images
CREATE TABLE IF NOT EXISTS images(
  id TEXT PRIMARY KEY,
  object_key TEXT NOT NULL,
  url TEXT NOT NULL,
  uploaded_by TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

-- Carts (one per session)
CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  session_id TEXT UNIQUE NOT NULL,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS cart_items(
  cart_id    TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  position INTEGER NOT NULL,
  price_at_add INTEGER,
  created_at TEXT,
  PRIMARY KEY (cart_id, product_id)
);

-- Payment intents created at checkout
CREATE TABLE IF NOT EXISTS payment_intents(
  id TEXT PRIMARY KEY,
  session_id TEXT,
  customer_id TEXT,
  amount INTEGER NOT NULL,
  currency TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'CREATED',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_payment_intents_created_at ON payment_intents(created_at);

CREATE TABLE IF NOT EXISTS payment_intent_items(
  intent_id  TEXT NOT NULL REFERENCES payment_intents(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  qty INTEGER NOT NULL,
  price INTEGER,
  PRIMARY KEY (intent_id, product_id)
);

-- Analytics
CREATE TABLE IF NOT EXISTS analytics_events(
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  ts INTEGER NOT NULL,
  user_id TEXT NOT NULL DEFAULT '',
  path TEXT NOT NULL,
  element TEXT NOT NULL DEFAULT '',
  extra TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_analytics_ts ON analytics_events(ts);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  subdomain TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.Event("seed.catalog", nil, nil)

	now := time.Now().UnixMilli()
	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(id,name,description,price,images_json,color,size,category,variant_name,status,created_at) VALUES
	  ('tote-red','Red Tote','Waxed canvas tote with leather handles',2000,'["products/tote-red/main.jpg"]','Red','M','Tote','tote-classic','published',?),
	  ('tote-blue','Blue Tote','Waxed canvas tote with leather handles',2000,'["products/tote-blue/main.jpg"]','Blue','M','Tote','tote-classic','published',?),
	  ('bag-blue','Blue Bag','Everyday messenger bag',4000,'["products/bag-blue/main.jpg"]','Blue','L','Messenger','','published',?),
	  ('duffel-black','Black Duffel','Weekender duffel with shoe pocket',6500,'["products/duffel-black/main.jpg"]','Black','XL','Duffel','','published',?),
	  ('strap-sample','Strap Sample','Price on request',NULL,'[]','','','Accessory','','published',?)`,
		now-4000, now-3000, now-2000, now-1000, now)
	return tx.Commit()
}

// SeedAdmin ensures an ADMIN user exists for email (idempotent).
func SeedAdmin(db *sqlx.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT OR IGNORE INTO users(id,email,name,password_hash,role)
		VALUES(?,?,?,?,?)
	`, uuid.NewString(), email, "Admin", string(h), domain.RoleAdmin)
	return err
}
