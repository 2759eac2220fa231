package handlers

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/payments"
	"storefront/internal/pricing"
	"storefront/internal/repos"
	"storefront/internal/services"
	"storefront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Products *services.ProductAdminService
	Intents  *repos.IntentRepo
	Images   *services.ImageService
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	prods, err := h.Products.List()
	if err != nil {
		return err
	}
	intents, err := h.Intents.ListLatest(10)
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	var published, deals int
	for _, p := range prods {
		if p.Status == domain.StatusPublished {
			published++
		}
		if p.HasDeal(now) {
			deals++
		}
	}
	return render(c, "admin_dashboard", fiber.Map{
		"ProductCount": len(prods),
		"Published":    published,
		"Deals":        deals,
		"Intents":      intents,
	})
}

// GET /admin/products
func (h *AdminHandler) ProductsPage(c *fiber.Ctx) error {
	prods, err := h.Products.List()
	if err != nil {
		applog.Error(c, "admin.products.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load products"})
	}
	return render(c, "admin_products", fiber.Map{"Products": prods, "Flash": c.Query("msg")})
}

// GET /admin/products/new and /admin/products/:id
func (h *AdminHandler) ProductForm(c *fiber.Ctx) error {
	p := domain.Product{Status: domain.StatusDraft}
	if id := c.Params("id"); id != "" {
		got, err := h.Products.Get(id)
		if errors.Is(err, repos.ErrNotFound) {
			return notFound(c, "Product not found")
		}
		if err != nil {
			return err
		}
		p = got
	}
	return h.renderForm(c, p, "")
}

func (h *AdminHandler) renderForm(c *fiber.Ctx, p domain.Product, msg string) error {
	imgs, err := h.Images.List()
	if err != nil {
		return err
	}
	price := ""
	if p.Price != nil {
		price = pricing.ToMajor(*p.Price).StringFixed(2)
	}
	return render(c, "admin_product_form", fiber.Map{
		"P":        p,
		"Price":    price,
		"ImagesIn": strings.Join(p.Images, "\n"),
		"Uploads":  imgs,
		"Err":      msg,
	})
}

// POST /admin/products and /admin/products/:id
func (h *AdminHandler) SaveProduct(c *fiber.Ctx) error {
	p := domain.Product{}
	if id := c.Params("id"); id != "" {
		got, err := h.Products.Get(id)
		if errors.Is(err, repos.ErrNotFound) {
			return notFound(c, "Product not found")
		}
		if err != nil {
			return err
		}
		p = got
	}

	name, ok := validate.ProductName(c.FormValue("name"))
	if !ok {
		c.Status(fiber.StatusBadRequest)
		return h.renderForm(c, p, "Name is required (max 120 characters)")
	}
	status, ok := validate.Status(c.FormValue("status"))
	if !ok {
		c.Status(fiber.StatusBadRequest)
		return h.renderForm(c, p, "Unknown status")
	}
	var price *int64
	if raw := strings.TrimSpace(c.FormValue("price")); raw != "" {
		v, err := pricing.ParseMajor(raw)
		if err != nil {
			c.Status(fiber.StatusBadRequest)
			return h.renderForm(c, p, "Price must be a non-negative amount like 25.99")
		}
		price = &v
	}
	if p.DealPrice != nil && price != nil && (p.Price == nil || *price != *p.Price) {
		c.Status(fiber.StatusBadRequest)
		return h.renderForm(c, p, "Clear the deal before changing the price")
	}

	p.Name = name
	p.Status = status
	p.Price = price
	p.Description = validate.Text(c.FormValue("description"), 2000)
	p.Metadata = domain.ProductMetadata{
		Color:       validate.Text(c.FormValue("color"), 40),
		Size:        validate.Text(c.FormValue("size"), 20),
		Category:    validate.Text(c.FormValue("category"), 60),
		VariantName: validate.Text(c.FormValue("variant_name"), 60),
	}
	p.Images = splitLines(c.FormValue("images"))
	if imgID := c.FormValue("image_id"); imgID != "" && imgID != p.ImageID {
		img, err := h.Images.Images.Get(imgID)
		if err != nil {
			c.Status(fiber.StatusBadRequest)
			return h.renderForm(c, p, "Unknown image")
		}
		p.ImageID = img.ID
		p.Images = append([]string{img.URL}, p.Images...)
	}

	if err := h.Products.Save(&p); err != nil {
		applog.Error(c, "admin.products.save.fail", err, map[string]any{"product": p.ID})
		return err
	}
	applog.Audit(c, "admin.products.save", map[string]any{"product": p.ID, "status": p.Status})
	return c.Redirect("/admin/products?msg=saved")
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ',' }) {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// POST /admin/products/:id/delete
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Products.Delete(id); err != nil {
		applog.Error(c, "admin.products.delete.fail", err, map[string]any{"product": id})
		return c.Status(fiber.StatusBadRequest).SendString("could not delete product")
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"product": id})
	return c.Redirect("/admin/products?msg=deleted")
}

// POST /admin/products/:id/status
func (h *AdminHandler) SetStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status, ok := validate.Status(c.FormValue("status"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid status")
	}
	if err := h.Products.SetStatus(id, status); err != nil {
		applog.Error(c, "admin.products.status.fail", err, map[string]any{"product": id})
		return c.Status(fiber.StatusBadRequest).SendString("could not update status")
	}
	applog.Audit(c, "admin.products.status", map[string]any{"product": id, "status": status})
	return c.Redirect("/admin/products")
}

// POST /admin/products/:id/stripe
func (h *AdminHandler) PublishStripe(c *fiber.Ctx) error {
	id := c.Params("id")
	p, err := h.Products.PublishToStripe(c.UserContext(), id)
	if err != nil {
		applog.Error(c, "admin.products.stripe.fail", err, map[string]any{"product": id})
		var pe *checkout.ProviderError
		msg := "Could not publish to Stripe"
		switch {
		case errors.Is(err, services.ErrNeedsPrice):
			msg = "Set a price before publishing to Stripe"
		case errors.Is(err, payments.ErrNotConfigured):
			msg = "Stripe is not configured"
		case errors.As(err, &pe):
			msg = pe.Msg
		case errors.Is(err, repos.ErrNotFound):
			return notFound(c, "Product not found")
		}
		return c.Redirect("/admin/products?msg=" + url.QueryEscape(msg))
	}
	applog.Audit(c, "admin.products.stripe", map[string]any{"product": id, "stripe_product": p.StripeProductID, "stripe_price": p.StripePriceID})
	return c.Redirect("/admin/products?msg=published")
}

// POST /admin/products/:id/deal
func (h *AdminHandler) SetDeal(c *fiber.Ctx) error {
	id := c.Params("id")
	price, err := pricing.ParseMajor(c.FormValue("deal_price"))
	if err != nil {
		return c.Redirect("/admin/products?msg=" + url.QueryEscape("Deal price must be an amount like 19.99"))
	}
	var expires *time.Time
	if raw := strings.TrimSpace(c.FormValue("expires_at")); raw != "" {
		t, err := time.ParseInLocation("2006-01-02T15:04", raw, time.Local)
		if err != nil {
			return c.Redirect("/admin/products?msg=" + url.QueryEscape("Expiry must be a date and time"))
		}
		expires = &t
	}
	if err := h.Products.SetDeal(id, price, expires); err != nil {
		applog.Error(c, "admin.products.deal.fail", err, map[string]any{"product": id})
		msg := "Could not set deal"
		switch {
		case errors.Is(err, services.ErrBadDeal):
			msg = "Deal price must be below the current price"
		case errors.Is(err, services.ErrDealExpired):
			msg = "Deal expiry is in the past"
		case errors.Is(err, repos.ErrNotFound):
			return notFound(c, "Product not found")
		}
		return c.Redirect("/admin/products?msg=" + url.QueryEscape(msg))
	}
	applog.Audit(c, "admin.products.deal", map[string]any{"product": id, "deal_price": price})
	return c.Redirect("/admin/products?msg=deal+set")
}

// POST /admin/products/:id/deal/clear
func (h *AdminHandler) ClearDeal(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Products.ClearDeal(id); err != nil {
		applog.Error(c, "admin.products.deal.clear.fail", err, map[string]any{"product": id})
		return c.Status(fiber.StatusBadRequest).SendString("could not clear deal")
	}
	applog.Audit(c, "admin.products.deal.clear", map[string]any{"product": id})
	return c.Redirect("/admin/products?msg=deal+cleared")
}

// GET /admin/payments
func (h *AdminHandler) PaymentsPage(c *fiber.Ctx) error {
	list, err := h.Intents.ListLatest(100)
	if err != nil {
		applog.Error(c, "admin.payments.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load payments"})
	}
	return render(c, "admin_payments", fiber.Map{"Intents": list})
}

// GET /admin/payments/:id
func (h *AdminHandler) PaymentDetail(c *fiber.Ctx) error {
	sum, items, err := h.Intents.Get(c.Params("id"))
	if errors.Is(err, repos.ErrNotFound) {
		return notFound(c, "Payment not found")
	}
	if err != nil {
		return err
	}
	return render(c, "admin_payment", fiber.Map{"Intent": sum, "Items": items})
}
