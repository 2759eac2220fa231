package handlers

import (
	"errors"

	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SubdomainHandler struct {
	Subdomains *services.SubdomainService
}

// GET /admin/subdomains
func (h *SubdomainHandler) Page(c *fiber.Ctx) error {
	return render(c, "admin_subdomains", fiber.Map{"MainDomain": h.Subdomains.MainDomain})
}

func (h *SubdomainHandler) result(c *fiber.Ctx, sub string, data fiber.Map) error {
	data["MainDomain"] = h.Subdomains.MainDomain
	data["Subdomain"] = sub
	return render(c, "admin_subdomains", data)
}

func (h *SubdomainHandler) label(c *fiber.Ctx) (string, bool) {
	sub, ok := validate.Subdomain(c.FormValue("subdomain"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "subdomain"})
	}
	return sub, ok
}

// POST /admin/subdomains/check
func (h *SubdomainHandler) Check(c *fiber.Ctx) error {
	sub, ok := h.label(c)
	if !ok {
		c.Status(fiber.StatusBadRequest)
		return h.result(c, "", fiber.Map{"Err": "Use letters, digits and inner hyphens only"})
	}
	available, err := h.Subdomains.Available(c.UserContext(), sub)
	if err != nil {
		applog.Error(c, "admin.subdomains.check.fail", err, map[string]any{"subdomain": sub})
		c.Status(fiber.StatusInternalServerError)
		return h.result(c, sub, fiber.Map{"Err": "Failed to check subdomain"})
	}
	return h.result(c, sub, fiber.Map{"Checked": true, "Available": available})
}

// POST /admin/subdomains/create
func (h *SubdomainHandler) Create(c *fiber.Ctx) error {
	sub, ok := h.label(c)
	if !ok {
		c.Status(fiber.StatusBadRequest)
		return h.result(c, "", fiber.Map{"Err": "Use letters, digits and inner hyphens only"})
	}
	out, err := h.Subdomains.Create(c.UserContext(), sub)
	if errors.Is(err, services.ErrSubdomainTaken) {
		c.Status(fiber.StatusConflict)
		return h.result(c, sub, fiber.Map{"Err": "That subdomain is taken"})
	}
	if err != nil {
		applog.Error(c, "admin.subdomains.create.fail", err, map[string]any{"subdomain": sub})
		c.Status(fiber.StatusInternalServerError)
		return h.result(c, sub, fiber.Map{"Err": "Failed to add subdomain"})
	}
	applog.Audit(c, "admin.subdomains.create", map[string]any{"domain": h.Subdomains.FullDomain(sub)})
	return h.result(c, sub, fiber.Map{"Created": h.Subdomains.FullDomain(sub), "Output": out})
}
