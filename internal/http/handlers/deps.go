package handlers

import (
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/payments"
	"storefront/internal/repos"
	"storefront/internal/services"
	"storefront/internal/storage"

	"github.com/jmoiron/sqlx"
)

// Backends are the swappable outer dependencies. Nil fields fall back to
// the sqlite cart, the local media dir, Stripe from config and os/exec.
type Backends struct {
	CartStore cart.Store
	Images    storage.ImageStore
	Payments  checkout.PaymentProvider
	Publisher services.Publisher
	Runner    services.Runner
}

type Deps struct {
	CatalogHandler   *CatalogHandler
	CartHandler      *CartHandler
	CheckoutHandler  *CheckoutHandler
	AdminHandler     *AdminHandler
	ImageHandler     *ImageHandler
	UserHandler      *UserHandler
	AnalyticsHandler *AnalyticsHandler
	SubdomainHandler *SubdomainHandler

	Sweeper *services.DealSweeper
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, b Backends) *Deps {
	prodRepo := repos.NewProductRepo(db)
	intentRepo := repos.NewIntentRepo(db)

	if b.CartStore == nil {
		b.CartStore = repos.NewCartRepo(db)
	}
	if b.Images == nil {
		b.Images = storage.NewLocal(cfg.MediaDir)
	}
	if b.Payments == nil || b.Publisher == nil {
		st := payments.NewStripe(cfg.StripeSecretKey)
		if b.Payments == nil {
			b.Payments = st
		}
		if b.Publisher == nil {
			b.Publisher = st
		}
	}
	if b.Runner == nil {
		b.Runner = services.ExecRunner{}
	}

	catalogSvc := services.NewCatalogService(prodRepo)
	cartSvc := services.NewCartService(b.CartStore, prodRepo)
	checkoutSvc := checkout.NewService(b.Payments, catalogSvc, intentRepo, cfg.Currency)
	adminSvc := &services.ProductAdminService{Prods: prodRepo, Publisher: b.Publisher, Currency: cfg.Currency, BaseURL: cfg.PublicURL}
	imageSvc := &services.ImageService{Images: repos.NewImageRepo(db), Store: b.Images}
	userSvc := &services.UserService{Users: auth.Users}
	analyticsSvc := &services.AnalyticsService{Events: repos.NewAnalyticsRepo(db)}
	subSvc := &services.SubdomainService{Runner: b.Runner, CLI: cfg.DomainCLI, MainDomain: cfg.MainDomain}

	return &Deps{
		CatalogHandler:   &CatalogHandler{Catalog: catalogSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		CheckoutHandler:  &CheckoutHandler{Cart: cartSvc, Checkout: checkoutSvc, PublishableKey: cfg.StripePublishableKey},
		AdminHandler:     &AdminHandler{Products: adminSvc, Intents: intentRepo, Images: imageSvc},
		ImageHandler:     &ImageHandler{Images: imageSvc},
		UserHandler:      &UserHandler{Users: userSvc},
		AnalyticsHandler: &AnalyticsHandler{Analytics: analyticsSvc},
		SubdomainHandler: &SubdomainHandler{Subdomains: subSvc},
		Sweeper:          services.NewDealSweeper(prodRepo, cfg.DealSweepInterval),
	}
}
