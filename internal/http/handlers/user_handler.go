package handlers

import (
	"errors"

	applog "storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/services"
	"storefront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	Users *services.UserService
}

// GET /admin/users
func (h *UserHandler) List(c *fiber.Ctx) error {
	return h.renderList(c, "")
}

func (h *UserHandler) renderList(c *fiber.Ctx, msg string) error {
	users, err := h.Users.List()
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load users"})
	}
	return render(c, "admin_users", fiber.Map{"Users": users, "Err": msg})
}

// POST /admin/users
func (h *UserHandler) Create(c *fiber.Ctx) error {
	name, okName := validate.Name(c.FormValue("name"))
	email, okEmail := validate.Email(c.FormValue("email"))
	sub, okSub := validate.Subdomain(c.FormValue("subdomain"))
	role, okRole := validate.Role(c.FormValue("role"))
	pass := c.FormValue("password")
	if !okName || !okEmail || !okSub || !okRole || (pass != "" && !validate.Password(pass)) {
		applog.Security(c, "validation.fail", map[string]any{"field": "user"})
		c.Status(fiber.StatusBadRequest)
		return h.renderList(c, "Check the name, email, subdomain, role and password")
	}
	u, err := h.Users.Create(services.NewUser{Name: name, Email: email, Subdomain: sub, Role: role, Password: pass})
	if errors.Is(err, services.ErrEmailTaken) {
		c.Status(fiber.StatusConflict)
		return h.renderList(c, "That email is already registered")
	}
	if err != nil {
		applog.Error(c, "admin.users.create.fail", err, nil)
		return err
	}
	applog.Audit(c, "admin.users.create", map[string]any{"user_id": u.ID, "role": u.Role})
	return c.Redirect("/admin/users")
}

// GET /admin/users/:id
func (h *UserHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "User not found")
	}
	u, err := h.Users.Get(id)
	if err != nil {
		return notFound(c, "User not found")
	}
	return render(c, "admin_user", fiber.Map{"U": u})
}

// POST /admin/users/:id/delete removes a user with their sessions and carts.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if me := currentUser(c); me != nil && me.ID == id {
		return c.Status(fiber.StatusBadRequest).SendString("cannot delete yourself")
	}
	err := h.Users.Delete(id)
	if errors.Is(err, repos.ErrNotFound) {
		return notFound(c, "User not found")
	}
	if err != nil {
		applog.Error(c, "admin.users.delete.fail", err, map[string]any{"user_id": id})
		return c.Status(fiber.StatusBadRequest).SendString("could not delete user")
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.Redirect("/admin/users")
}
