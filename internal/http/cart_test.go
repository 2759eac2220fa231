package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"storefront/internal/cache"
	"storefront/internal/http/handlers"
	"storefront/internal/repos"
	"storefront/internal/services"
)

func cartForm(id string) url.Values { return url.Values{"productId": {id}} }

func apiCart(t *testing.T, env *testEnv, sid string) services.CartView {
	t.Helper()
	resp := env.get(t, "/api/cart", sid)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/cart expected 200, got %d", resp.StatusCode)
	}
	var v services.CartView
	decodeJSON(t, resp, &v)
	return v
}

func TestCartAddDecreaseRemove(t *testing.T) {
	env := newEnv(t)

	resp := env.postForm(t, "/cart/add", cartForm("tote-red"), "")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("add expected redirect, got %d", resp.StatusCode)
	}
	sid := cookieValue(resp, "sid")
	if sid == "" {
		t.Fatal("add should start a session")
	}

	env.postForm(t, "/cart/add", cartForm("tote-red"), sid)
	env.postForm(t, "/cart/add", cartForm("bag-blue"), sid)

	v := apiCart(t, env, sid)
	if len(v.Items) != 2 || v.Items[0].ID != "tote-red" || v.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart lines: %+v", v.Items)
	}
	if v.TotalQuantity != 3 || v.TotalAmount != 8000 || v.FormattedTotal != "$80.00" {
		t.Fatalf("unexpected totals: %+v", v)
	}

	env.postForm(t, "/cart/decrease", cartForm("tote-red"), sid)
	v = apiCart(t, env, sid)
	if v.Items[0].Quantity != 1 {
		t.Fatalf("decrease expected quantity 1, got %d", v.Items[0].Quantity)
	}
	// decreasing the last unit keeps the line
	env.postForm(t, "/cart/decrease", cartForm("tote-red"), sid)
	v = apiCart(t, env, sid)
	if v.Items[0].Quantity != 1 {
		t.Fatalf("decrease at one should be a no-op, got %d", v.Items[0].Quantity)
	}

	env.postForm(t, "/cart/remove", cartForm("tote-red"), sid)
	v = apiCart(t, env, sid)
	if len(v.Items) != 1 || v.Items[0].ID != "bag-blue" || v.TotalAmount != 4000 {
		t.Fatalf("remove left unexpected cart: %+v", v)
	}

	page := env.get(t, "/cart", sid)
	if body := readBody(t, page); !strings.Contains(body, "Blue Bag") {
		t.Fatalf("cart page missing item")
	}

	env.postForm(t, "/cart/clear", nil, sid)
	if v := apiCart(t, env, sid); len(v.Items) != 0 || v.TotalAmount != 0 {
		t.Fatalf("clear expected empty cart, got %+v", v)
	}
}

func TestCartRejectsUnsellable(t *testing.T) {
	env := newEnv(t)

	if got := env.postForm(t, "/cart/add", cartForm("strap-sample"), "sid-cart").StatusCode; got != http.StatusBadRequest {
		t.Fatalf("unpriced add expected 400, got %d", got)
	}
	if got := env.postForm(t, "/cart/add", cartForm("missing"), "sid-cart").StatusCode; got != http.StatusNotFound {
		t.Fatalf("unknown add expected 404, got %d", got)
	}
	if got := env.postForm(t, "/cart/add", cartForm(""), "sid-cart").StatusCode; got != http.StatusBadRequest {
		t.Fatalf("empty id expected 400, got %d", got)
	}
	if v := apiCart(t, env, "sid-cart"); len(v.Items) != 0 {
		t.Fatalf("rejected adds must leave the cart empty, got %+v", v.Items)
	}
}

// Carts are per session.
func TestCartIsolatedPerSession(t *testing.T) {
	env := newEnv(t)
	env.postForm(t, "/cart/add", cartForm("tote-red"), "sid-a")
	env.postForm(t, "/cart/add", cartForm("duffel-black"), "sid-b")

	a := apiCart(t, env, "sid-a")
	b := apiCart(t, env, "sid-b")
	if len(a.Items) != 1 || a.Items[0].ID != "tote-red" {
		t.Fatalf("session a cart: %+v", a.Items)
	}
	if len(b.Items) != 1 || b.Items[0].ID != "duffel-black" {
		t.Fatalf("session b cart: %+v", b.Items)
	}
}

// With the Redis cache in front, carts are written through to sqlite and
// survive a cache flush.
func TestCartThroughRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	env := newEnvWith(t, func(db *sqlx.DB, b *handlers.Backends) {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		b.CartStore = cache.NewCartStore(client, time.Hour, repos.NewCartRepo(db))
	})

	env.postForm(t, "/cart/add", cartForm("bag-blue"), "sid-redis")
	env.postForm(t, "/cart/add", cartForm("bag-blue"), "sid-redis")
	if !mr.Exists("cart:sid-redis") {
		t.Fatal("cart should be cached in redis")
	}
	if ttl := mr.TTL("cart:sid-redis"); ttl <= 0 {
		t.Fatalf("cached cart should expire, ttl=%v", ttl)
	}

	mr.FlushAll()
	v := apiCart(t, env, "sid-redis")
	if len(v.Items) != 1 || v.Items[0].Quantity != 2 || v.TotalAmount != 8000 {
		t.Fatalf("cart should reload from sqlite after a flush: %+v", v)
	}

	env.postForm(t, "/cart/clear", nil, "sid-redis")
	if mr.Exists("cart:sid-redis") {
		t.Fatal("clear should drop the cached cart")
	}
}
