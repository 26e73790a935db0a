package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	reg := New("test")
	app := fiber.New()
	app.Use(reg.Middleware())
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/metrics", reg.Handler())

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/items/7", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}
	assert.Equal(t, float64(2), testutil.ToFloat64(reg.requests.WithLabelValues("GET", "/items/:id", "204")))

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "test_http_requests_total")
}

func TestAuditAndAuthCounters(t *testing.T) {
	reg := New("test")
	reg.AuditAppend("Created Member", nil)
	reg.AuditAppend("Created Member", errors.New("boom"))
	reg.AuthFailure("expired")

	assert.Equal(t, float64(1), testutil.ToFloat64(reg.auditAppends.WithLabelValues("Created Member", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.auditAppends.WithLabelValues("Created Member", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.authFailures.WithLabelValues("expired")))
}

func TestNilRegistryIsNoop(t *testing.T) {
	var reg *Registry
	assert.NotPanics(t, func() {
		reg.AuditAppend("x", nil)
		reg.AuthFailure("missing")
	})
}
