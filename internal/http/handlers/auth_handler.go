package handlers

import (
	"errors"
	"time"

	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const sidCookie = "sid"

// CookieSecure marks the sid cookie Secure; set from config behind HTTPS.
var CookieSecure bool

func setSIDCookie(c *fiber.Ctx, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   CookieSecure,
		Expires:  expires,
	})
}

// ensureSID returns the shopper's session id, issuing one on first contact.
// Carts and sign-ins both hang off this id.
func ensureSID(c *fiber.Ctx) string {
	if sid := c.Cookies(sidCookie); sid != "" {
		return sid
	}
	sid := uuid.NewString()
	setSIDCookie(c, sid, time.Time{})
	return sid
}

// landingFor is where a freshly signed in user is sent.
func landingFor(u *domain.User) string {
	if u != nil && u.Role == domain.RoleAdmin {
		return "/admin"
	}
	return "/"
}

type AuthHandler struct {
	Auth *services.AuthService
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

// Every failure renders the same message so the form does not reveal which
// accounts exist.
func (h *AuthHandler) reject(c *fiber.Ctx, email, reason string) error {
	log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": reason})
	c.Status(fiber.StatusUnauthorized)
	return render(c, "login", fiber.Map{"Err": "Invalid email or password"})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		return h.reject(c, email, "bad_format")
	}
	pass := c.FormValue("password")
	if !validate.Password(pass) {
		return h.reject(c, email, "bad_password_format")
	}

	sid := ensureSID(c)
	u, err := h.Auth.Login(sid, email, pass)
	switch {
	case errors.Is(err, services.ErrBadCreds):
		return h.reject(c, email, "bad_credentials")
	case err != nil:
		return err
	}
	log.Audit(c, "auth.login.success", map[string]any{"email": email, "role": u.Role})
	return c.Redirect(landingFor(u))
}

// Logout unbinds the session and drops the cookie, which also abandons the
// cart kept under it.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies(sidCookie)
	if sid != "" {
		if err := h.Auth.Logout(sid); err != nil {
			return err
		}
	}
	setSIDCookie(c, "", time.Now().Add(-time.Hour))
	log.Audit(c, "auth.logout", nil)
	return c.Redirect("/")
}
