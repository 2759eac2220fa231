package log_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "storefront/internal/log"
)

type line struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	ReqID  string         `json:"req_id"`
	Path   string         `json:"path"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

func decode(t *testing.T, buf *bytes.Buffer) line {
	t.Helper()
	var l line
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &l))
	return l
}

func TestRequestScopedEntry(t *testing.T) {
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	defer applog.SetOutput(os.Stdout)

	app := fiber.New()
	app.Use(requestid.New())
	app.Get("/x", func(c *fiber.Ctx) error {
		applog.Audit(c, "cart.add", map[string]any{"product": "tote-red"})
		return c.SendStatus(fiber.StatusNoContent)
	})
	_, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)

	l := decode(t, &buf)
	assert.Equal(t, "audit", l.Level)
	assert.Equal(t, "cart.add", l.Action)
	assert.Equal(t, "/x", l.Path)
	assert.NotEmpty(t, l.ReqID)
	assert.Equal(t, "tote-red", l.Fields["product"])
}

func TestEventWithError(t *testing.T) {
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	defer applog.SetOutput(os.Stdout)

	applog.Event("deals.sweep", errors.New("db locked"), nil)
	l := decode(t, &buf)
	assert.Equal(t, "error", l.Level)
	assert.Equal(t, "db locked", l.Err)

	buf.Reset()
	applog.Event("deals.sweep", nil, map[string]any{"cleared": 2})
	l = decode(t, &buf)
	assert.Equal(t, "info", l.Level)
	assert.EqualValues(t, 2, l.Fields["cleared"])
}
