package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/http/handlers"
	"storefront/internal/http/router"
	applog "storefront/internal/log"
	"storefront/internal/payments"
	"storefront/internal/repos"
)

const (
	adminEmail = "admin@storefront.test"
	adminPass  = "Adm1nPass!"
)

type fakePayments struct {
	mu    sync.Mutex
	calls []checkout.IntentParams
	err   error
}

func (f *fakePayments) CreatePaymentIntent(_ context.Context, p checkout.IntentParams) (checkout.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	if f.err != nil {
		return checkout.Intent{}, f.err
	}
	id := fmt.Sprintf("pi_test_%d", len(f.calls))
	return checkout.Intent{ID: id, ClientSecret: id + "_secret", Amount: p.Amount, Currency: p.Currency}, nil
}

func (f *fakePayments) lastAmount() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return -1
	}
	return f.calls[len(f.calls)-1].Amount
}

type fakePublisher struct {
	inputs []payments.PublishInput
}

func (f *fakePublisher) PublishProduct(_ context.Context, in payments.PublishInput) (payments.PublishResult, error) {
	f.inputs = append(f.inputs, in)
	prod := in.StripeProductID
	if prod == "" {
		prod = "prod_test"
	}
	return payments.PublishResult{StripeProductID: prod, StripePriceID: fmt.Sprintf("price_test_%d", len(f.inputs))}, nil
}

type fakeRunner struct {
	listing string
	calls   [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if len(args) > 1 && args[1] == "ls" {
		return f.listing, nil
	}
	return "Success! Domain added", nil
}

type testEnv struct {
	app  *fiber.App
	db   *sqlx.DB
	deps *handlers.Deps
	pay  *fakePayments
	pub  *fakePublisher
	run  *fakeRunner
	csrf string
}

// newEnv builds the full router over an in-memory database with fake
// outer backends and an admin account.
func newEnv(t *testing.T) *testEnv {
	t.Helper()
	return newEnvWith(t, nil)
}

// newEnvWith lets a test swap backends before the router is built.
func newEnvWith(t *testing.T, customize func(db *sqlx.DB, b *handlers.Backends)) *testEnv {
	t.Helper()
	cfg := config.Defaults()
	cfg.DBDSN = ":memory:"
	cfg.TemplatesDir = "../../web/templates"
	cfg.MediaDir = t.TempDir()
	cfg.LogFile = ""

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.SeedAdmin(db, adminEmail, adminPass); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	env := &testEnv{db: db, pay: &fakePayments{}, pub: &fakePublisher{}, run: &fakeRunner{}}
	b := handlers.Backends{
		Payments:  env.pay,
		Publisher: env.pub,
		Runner:    env.run,
	}
	if customize != nil {
		customize(db, &b)
	}
	env.app, env.deps = router.New(cfg, db, b)

	resp := env.do(t, httptest.NewRequest("GET", "/login", nil))
	env.csrf = cookieValue(resp, "csrf_")
	if env.csrf == "" {
		t.Fatal("csrf token missing")
	}
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	return resp
}

// postForm posts form with the csrf token and the given session cookie.
func (e *testEnv) postForm(t *testing.T, path string, form url.Values, sid string) *http.Response {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", e.csrf)
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: e.csrf})
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	return e.do(t, req)
}

func (e *testEnv) get(t *testing.T, path, sid string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	return e.do(t, req)
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req)
}

// adminSID binds a session to the seeded admin.
func (e *testEnv) adminSID(t *testing.T) string {
	t.Helper()
	users := repos.NewUserRepo(e.db)
	u, err := users.ByEmail(adminEmail)
	if err != nil {
		t.Fatalf("admin lookup: %v", err)
	}
	if err := users.BindSession("sid-admin", u.ID); err != nil {
		t.Fatalf("bind admin session: %v", err)
	}
	return "sid-admin"
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode json: %v", err)
	}
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

// captureLogs collects the structured log lines written while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	w := &lockedWriter{}
	applog.SetOutput(w)
	defer applog.SetOutput(os.Stdout)

	fn()

	w.mu.Lock()
	defer w.mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(w.buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findAction(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

// newFormRequest builds a form post that carries no csrf token.
func newFormRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func newJSONRequest(path, body string) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
