package handlers

import (
	"errors"
	"net/url"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/services"
	"storefront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

func queryFilters(c *fiber.Ctx) (domain.Filters, url.Values, error) {
	q, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return domain.Filters{}, nil, catalog.ErrBadFilter
	}
	f, err := catalog.ParseFilters(q)
	return f, q, err
}

// GET /
func (h *CatalogHandler) Home(c *fiber.Ctx) error {
	f, q, err := queryFilters(c)
	if err != nil {
		log.Security(c, "validation.fail", map[string]any{"field": "filters", "err": err.Error()})
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Those filters are not valid"})
	}
	res, facets, err := h.Catalog.Browse(f)
	if err != nil {
		return err
	}
	view := q.Get("view")
	if view != "variants" {
		view = "grid"
	}
	return render(c, "home", fiber.Map{
		"Result":  res,
		"Facets":  facets,
		"Filters": f,
		"Query":   q,
		"View":    view,
	})
}

// GET /product/:id
func (h *CatalogHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, "This item is no longer available")
	}
	p, group, err := h.Catalog.Product(id)
	if errors.Is(err, repos.ErrNotFound) {
		return notFound(c, "This item is no longer available")
	}
	if err != nil {
		return err
	}
	return render(c, "product", fiber.Map{"P": p, "Group": group})
}

// GET /api/products
func (h *CatalogHandler) APIList(c *fiber.Ctx) error {
	f, _, err := queryFilters(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	list, err := h.Catalog.List(f)
	if err != nil {
		log.Error(c, "api.products.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "Could not load products")
	}
	if list == nil {
		list = []domain.Product{}
	}
	return c.JSON(list)
}
