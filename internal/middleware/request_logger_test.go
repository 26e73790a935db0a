package middleware

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBindUser_TagsRequestLoggers(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := fiber.New()
	app.Use(RequestLoggers(zap.New(core), nil))
	app.Get("/", func(c *fiber.Ctx) error {
		bindUser(c, 42)
		GetRequestFileLogger(c).Info("after gate")
		return c.SendStatus(fiber.StatusNoContent)
	})

	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.EqualValues(t, 42, fields["user_id"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestRequestDebugLogger_SummarisesUploads(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	app := fiber.New()
	app.Use(RequestLoggers(zap.New(core), nil))
	app.Use(RequestDebugLogger())
	app.Post("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("password", "hunter2"))
	part, err := w.CreateFormFile("profile_picture", "me.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x89}, 300))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set(AuthorizationHeader, "Bearer secret-token")
	_, err = app.Test(req)
	require.NoError(t, err)

	incoming := logs.FilterMessage("Incoming request").All()
	require.Len(t, incoming, 1)
	ctx := incoming[0].ContextMap()
	body := ctx["body"].(string)
	assert.Contains(t, body, `profile_picture=<file "me.png" 300 bytes>`)
	assert.Contains(t, body, "password=***")
	assert.NotContains(t, body, "hunter2")
	assert.Equal(t, "*** HIDDEN ***", ctx["headers"].(map[string]string)[AuthorizationHeader])
	assert.Equal(t, 1, logs.FilterMessage("Request handled").Len())
}
