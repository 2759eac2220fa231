// Package router assembles the fiber application: views, middleware and
// routes.
package router

import (
	"errors"
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
	"storefront/internal/pricing"
	"storefront/internal/repos"
	"storefront/internal/services"
)

const (
	bodyLimit   = 1 << 20 // 1 MiB for everything but uploads
	uploadLimit = 6 << 20
)

// NewEngine loads the HTML templates with the view helpers.
func NewEngine(dir string) *html.Engine {
	engine := html.New(dir, ".html")
	engine.AddFuncMap(template.FuncMap{
		"price": pricing.FormatOptional,
		"money": pricing.FormatPrice,
		"ms": func(ms int64) string {
			if ms <= 0 {
				return ""
			}
			return time.UnixMilli(ms).Format("2006-01-02 15:04")
		},
		"hasDeal": func(p domain.Product) bool { return p.HasDeal(time.Now().UnixMilli()) },
		"img":     imageURL,
		"firstImage": func(p domain.Product) string {
			if len(p.Images) == 0 {
				return ""
			}
			return imageURL(p.Images[0])
		},
		"deref": func(v *int64) int64 {
			if v == nil {
				return 0
			}
			return *v
		},
		"lineTotal": func(it domain.CartItem) int64 { return pricing.TotalAmount([]domain.CartItem{it}) },
		"selected": func(set []string, v string) bool {
			for _, s := range set {
				if strings.EqualFold(s, v) {
					return true
				}
			}
			return false
		},
	})
	return engine
}

func imageURL(s string) string {
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") {
		return s
	}
	return "/media/" + s
}

// ErrorHandler keeps client errors as they are and replaces everything else
// with a generic message. JSON for /api paths, the error page otherwise.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < 500 {
		code, msg = fe.Code, fe.Message
	} else {
		applog.Error(c, "server.error", err, nil)
	}
	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	// Avoid leaking internals; best-effort render
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// New builds the app. The returned Deps expose the deal sweeper for the
// caller to run.
func New(cfg config.Config, db *sqlx.DB, b handlers.Backends) (*fiber.App, *handlers.Deps) {
	handlers.CookieSecure = cfg.CookieSecure

	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	authH := &handlers.AuthHandler{Auth: authSvc}
	deps := handlers.NewDeps(db, cfg, authSvc, b)

	engine := NewEngine(cfg.TemplatesDir)

	app := fiber.New(fiber.Config{
		Views:        engine,
		BodyLimit:    uploadLimit,
		ErrorHandler: ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	// Stripe Elements renders in cross-origin iframes
	app.Use(helmet.New(helmet.Config{CrossOriginEmbedderPolicy: "unsafe-none"}))
	// Uploads are the only requests allowed past 1 MiB
	app.Use(func(c *fiber.Ctx) error {
		if c.Request().Header.ContentLength() > bodyLimit && !strings.HasPrefix(c.Path(), "/admin/images") {
			applog.Security(c, "request.too_large", map[string]any{"len": c.Request().Header.ContentLength()})
			return c.Status(fiber.StatusRequestEntityTooLarge).SendString("request body too large")
		}
		return c.Next()
	})
	// Attach user to context if logged in (for templates/headers)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		// JSON endpoints carry no session-changing form posts
		Next: func(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/api/") },
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	app.Static("/static", filepath.Join(filepath.Dir(cfg.TemplatesDir), "static"))
	// Guarded media to avoid traversal
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// Block encoded traversal attempts as well as raw .. or null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(mediaDir, clean), true)
	})

	// Public pages
	app.Get("/", deps.CatalogHandler.Home)
	app.Get("/product/:id", deps.CatalogHandler.Detail)

	// Cart & checkout
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart/add", deps.CartHandler.Add)
	app.Post("/cart/remove", deps.CartHandler.Remove)
	app.Post("/cart/decrease", deps.CartHandler.Decrease)
	app.Post("/cart/clear", deps.CartHandler.Clear)
	app.Post("/cart/checkout", deps.CheckoutHandler.FromCart)
	app.Get("/checkout", deps.CheckoutHandler.Page)

	// API
	api := app.Group("/api")
	api.Get("/products", deps.CatalogHandler.APIList)
	api.Get("/cart", deps.CartHandler.API)
	api.Post("/create-payment-intent", limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|intent"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.intent.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many payment attempts. Please wait a minute."})
		},
	}), deps.CheckoutHandler.CreateIntent)
	api.Post("/analytics/events", limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|analytics"
		},
	}), deps.AnalyticsHandler.Track)

	// Auth routes (login throttled)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// Admin
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", deps.AdminHandler.Dashboard)
	admin.Get("/products", deps.AdminHandler.ProductsPage)
	admin.Get("/products/new", deps.AdminHandler.ProductForm)
	admin.Post("/products", deps.AdminHandler.SaveProduct)
	admin.Get("/products/:id", deps.AdminHandler.ProductForm)
	admin.Post("/products/:id", deps.AdminHandler.SaveProduct)
	admin.Post("/products/:id/delete", deps.AdminHandler.DeleteProduct)
	admin.Post("/products/:id/status", deps.AdminHandler.SetStatus)
	admin.Post("/products/:id/stripe", deps.AdminHandler.PublishStripe)
	admin.Post("/products/:id/deal", deps.AdminHandler.SetDeal)
	admin.Post("/products/:id/deal/clear", deps.AdminHandler.ClearDeal)
	admin.Get("/payments", deps.AdminHandler.PaymentsPage)
	admin.Get("/payments/:id", deps.AdminHandler.PaymentDetail)
	admin.Get("/images", deps.ImageHandler.List)
	admin.Post("/images", deps.ImageHandler.Upload)
	admin.Post("/images/:id/delete", deps.ImageHandler.Delete)
	admin.Get("/users", deps.UserHandler.List)
	admin.Post("/users", deps.UserHandler.Create)
	admin.Get("/users/:id", deps.UserHandler.Detail)
	admin.Post("/users/:id/delete", deps.UserHandler.Delete)
	admin.Get("/analytics", deps.AnalyticsHandler.Page)
	admin.Get("/subdomains", deps.SubdomainHandler.Page)
	admin.Post("/subdomains/check", deps.SubdomainHandler.Check)
	admin.Post("/subdomains/create", deps.SubdomainHandler.Create)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(404).JSON(fiber.Map{"error": "Not found"})
		}
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	return app, deps
}
