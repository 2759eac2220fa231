package handlers

import (
	"encoding/json"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AnalyticsHandler struct {
	Analytics *services.AnalyticsService
}

type eventBody struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	UserID    string          `json:"userId"`
	Path      string          `json:"path"`
	Element   string          `json:"element"`
	Extra     json.RawMessage `json:"extra"`
}

// POST /api/analytics/events
func (h *AnalyticsHandler) Track(c *fiber.Ctx) error {
	var b eventBody
	if err := json.Unmarshal(c.Body(), &b); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	typ, ok := validate.EventType(b.Type)
	if !ok || b.Path == "" || len(b.Path) > 512 || len(b.Extra) > 4096 {
		return jsonError(c, fiber.StatusBadRequest, "Invalid event")
	}
	e := domain.AnalyticsEvent{
		Type:      typ,
		Timestamp: b.Timestamp,
		UserID:    validate.Text(b.UserID, 64),
		Path:      b.Path,
		Element:   validate.Text(b.Element, 200),
		Extra:     string(b.Extra),
	}
	if u := currentUser(c); u != nil {
		e.UserID = u.ID
	}
	stored, err := h.Analytics.Track(e)
	if err != nil {
		applog.Error(c, "analytics.track.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "Could not record event")
	}
	return c.JSON(fiber.Map{"ok": true, "stored": stored})
}

// GET /admin/analytics
func (h *AnalyticsHandler) Page(c *fiber.Ctx) error {
	events, err := h.Analytics.Latest()
	if err != nil {
		applog.Error(c, "admin.analytics.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load analytics"})
	}
	return render(c, "admin_analytics", fiber.Map{"Events": events})
}
