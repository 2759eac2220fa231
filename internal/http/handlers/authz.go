package handlers

import (
	"errors"
	"strings"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequireRole guards a route group. Visitors without a session cookie go to
// the login page. A session that is signed out or lacks the role gets 403.
// An empty role only requires a signed in user.
func RequireRole(auth *services.AuthService, role string) fiber.Handler {
	action := "access.denied"
	if role != "" {
		action += "." + strings.ToLower(role)
	}
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.Authorize(sid, role)
		if role == "" && errors.Is(err, services.ErrNoSession) {
			return c.Redirect("/login")
		}
		if err != nil {
			applog.Security(c, action, map[string]any{"sid": sid, "reason": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return RequireRole(auth, domain.RoleAdmin)
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
