package handlers

import (
	"errors"

	"storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/services"
	"storefront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart *services.CartService
}

func (h *CartHandler) productID(c *fiber.Ctx) (string, bool) {
	id, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "productId"})
	}
	return id, ok
}

// POST /cart/add
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, ok := h.productID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	_, err := h.Cart.Add(c.UserContext(), sid, id)
	switch {
	case errors.Is(err, repos.ErrNotFound), errors.Is(err, services.ErrUnavailable):
		return notFound(c, "This item is no longer available")
	case errors.Is(err, services.ErrUnpriced):
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "This item is not for sale yet"})
	case err != nil:
		return err
	}
	log.Info(c, "cart.add", map[string]any{"product": id})
	return c.Redirect("/cart")
}

// POST /cart/remove
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, ok := h.productID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	if _, err := h.Cart.Remove(c.UserContext(), sid, id); err != nil {
		return err
	}
	log.Info(c, "cart.remove", map[string]any{"product": id})
	return c.Redirect("/cart")
}

// POST /cart/decrease
func (h *CartHandler) Decrease(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, ok := h.productID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	if _, err := h.Cart.Decrease(c.UserContext(), sid, id); err != nil {
		return err
	}
	return c.Redirect("/cart")
}

// POST /cart/clear
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	sid := ensureSID(c)
	if err := h.Cart.Clear(c.UserContext(), sid); err != nil {
		return err
	}
	log.Info(c, "cart.clear", nil)
	return c.Redirect("/cart")
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	sid := ensureSID(c)
	cv, err := h.Cart.View(c.UserContext(), sid)
	if err != nil {
		return err
	}
	return render(c, "cart", fiber.Map{"Cart": cv})
}

// GET /api/cart
func (h *CartHandler) API(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), ensureSID(c))
	if err != nil {
		log.Error(c, "api.cart.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "Could not load cart")
	}
	return c.JSON(cv)
}
