package handlers

import "github.com/gofiber/fiber/v2"

// render adds the layout fields every page reads: the signed in user (set by
// the role guards) and the CSRF token for forms.
func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	if tok := csrfToken(c); tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

// csrfToken prefers the token from the middleware, and falls back to the
// cookie on routes the middleware skipped.
func csrfToken(c *fiber.Ctx) string {
	if tok, ok := c.Locals("CSRFToken").(string); ok && tok != "" {
		return tok
	}
	return c.Cookies("csrf_")
}

func notFound(c *fiber.Ctx, msg string) error {
	c.Status(fiber.StatusNotFound)
	return render(c, "notfound", fiber.Map{"Message": msg})
}

func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
