package handlers

import (
	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/pricing"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CheckoutHandler struct {
	Cart           *services.CartService
	Checkout       *checkout.Service
	PublishableKey string
}

// GET /checkout shows the server-side total before any payment is started.
func (h *CheckoutHandler) Page(c *fiber.Ctx) error {
	sid := ensureSID(c)
	ct, err := h.Cart.Load(c.UserContext(), sid)
	if err != nil {
		return err
	}
	data := fiber.Map{"Cart": services.NewCartView(ct), "PublishableKey": h.PublishableKey}
	priced, amount, err := h.Checkout.Quote(ct.Items())
	if err != nil {
		data["Error"] = checkout.UserMessage(err)
	} else {
		data["Cart"] = services.CartView{
			Items:          priced,
			TotalAmount:    amount,
			TotalQuantity:  pricing.TotalQuantity(priced),
			FormattedTotal: pricing.FormatPrice(amount),
		}
	}
	return render(c, "checkout", data)
}

type createIntentBody struct {
	Items      []domain.CartItem `json:"items"`
	CustomerID string            `json:"customerId"`
}

// POST /api/create-payment-intent
func (h *CheckoutHandler) CreateIntent(c *fiber.Ctx) error {
	var body createIntentBody
	if err := c.BodyParser(&body); err != nil {
		log.Security(c, "validation.fail", map[string]any{"field": "body"})
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	intent, err := h.Checkout.CreateIntent(c.UserContext(), checkout.Request{
		Items:      body.Items,
		CustomerID: body.CustomerID,
		SessionID:  c.Cookies("sid"),
	})
	if err != nil {
		if checkout.IsValidation(err) {
			log.Security(c, "checkout.validation.fail", map[string]any{"err": err.Error()})
			return jsonError(c, fiber.StatusBadRequest, checkout.UserMessage(err))
		}
		log.Error(c, "checkout.intent.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, checkout.UserMessage(err))
	}
	log.Audit(c, "checkout.intent.created", map[string]any{"amount": intent.Amount})
	return c.JSON(fiber.Map{"clientSecret": intent.ClientSecret, "amount": intent.Amount})
}

// POST /cart/checkout starts a payment for the session cart and shows the
// payment form.
func (h *CheckoutHandler) FromCart(c *fiber.Ctx) error {
	sid := ensureSID(c)
	ct, err := h.Cart.Load(c.UserContext(), sid)
	if err != nil {
		return err
	}
	req := checkout.Request{Items: ct.Items(), SessionID: sid}
	if u := currentUser(c); u != nil {
		req.CustomerID = u.ID
	}
	intent, err := h.Checkout.CreateIntent(c.UserContext(), req)
	if err != nil {
		status := fiber.StatusInternalServerError
		if checkout.IsValidation(err) {
			status = fiber.StatusBadRequest
			log.Security(c, "checkout.validation.fail", map[string]any{"err": err.Error()})
		} else {
			log.Error(c, "checkout.intent.fail", err, nil)
		}
		c.Status(status)
		return render(c, "checkout", fiber.Map{
			"Cart":  services.NewCartView(ct),
			"Error": checkout.UserMessage(err),
		})
	}
	log.Audit(c, "checkout.intent.created", map[string]any{"amount": intent.Amount})
	return render(c, "checkout", fiber.Map{
		"Cart":           services.NewCartView(ct),
		"Intent":         intent,
		"PublishableKey": h.PublishableKey,
	})
}
