package handlers

import (
	"errors"

	applog "storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type ImageHandler struct {
	Images *services.ImageService
}

// GET /admin/images
func (h *ImageHandler) List(c *fiber.Ctx) error {
	imgs, err := h.Images.List()
	if err != nil {
		applog.Error(c, "admin.images.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load images"})
	}
	return render(c, "admin_images", fiber.Map{"Images": imgs, "Err": c.Query("err")})
}

// POST /admin/images (multipart, field "file")
func (h *ImageHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Redirect("/admin/images?err=Choose+a+file+to+upload")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	uploader := ""
	if u := currentUser(c); u != nil {
		uploader = u.Email
	}
	img, err := h.Images.Upload(c.UserContext(), fh.Filename, fh.Size, f, uploader)
	if errors.Is(err, services.ErrBadImage) {
		applog.Security(c, "admin.images.reject", map[string]any{"name": fh.Filename, "size": fh.Size})
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": services.ErrBadImage.Error()})
	}
	if err != nil {
		applog.Error(c, "admin.images.upload.fail", err, map[string]any{"name": fh.Filename})
		return c.Redirect("/admin/images?err=Upload+failed")
	}
	applog.Audit(c, "admin.images.upload", map[string]any{"image": img.ID, "key": img.ObjectKey})
	return c.Redirect("/admin/images")
}

// POST /admin/images/:id/delete
func (h *ImageHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	err := h.Images.Delete(c.UserContext(), id)
	if errors.Is(err, repos.ErrNotFound) {
		return notFound(c, "Image not found")
	}
	if err != nil {
		applog.Error(c, "admin.images.delete.fail", err, map[string]any{"image": id})
		return c.Redirect("/admin/images?err=Delete+failed")
	}
	applog.Audit(c, "admin.images.delete", map[string]any{"image": id})
	return c.Redirect("/admin/images")
}
