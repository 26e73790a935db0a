package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxBodyLogSize = 1024

var (
	jsonSecretField = regexp.MustCompile(`("(?:password|token)"\s*:\s*")[^"]*(")`)
	formSecretField = regexp.MustCompile(`((?:^|&)(?:password|token)=)[^&]*`)
	hiddenHeaders   = map[string]bool{AuthorizationHeader: true, "Cookie": true}
)

// RequestDebugLogger dumps headers and body of each request and the response it produced.
// It is only installed at debug level; secrets are masked and uploads are summarised, never dumped.
func RequestDebugLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := GetRequestFileLogger(c)
		if !logger.Core().Enabled(zapcore.DebugLevel) {
			return c.Next()
		}
		start := time.Now()

		headers := make(map[string]string)
		c.Request().Header.VisitAll(func(key, value []byte) {
			k := string(key)
			if hiddenHeaders[k] {
				headers[k] = "*** HIDDEN ***"
				return
			}
			headers[k] = string(value)
		})
		logger.Debug("Incoming request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Any("headers", headers),
			zap.String("body", describeRequestBody(c)),
		)

		err := c.Next()

		logger.Debug("Request handled",
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("response_body", truncateBody(c.Response().Body())),
		)
		return err
	}
}

// describeRequestBody renders a loggable view of the body. Multipart bodies list their
// fields and file sizes instead of raw bytes.
func describeRequestBody(c *fiber.Ctx) string {
	raw := c.BodyRaw()
	if len(raw) == 0 {
		return "(empty)"
	}
	contentType := string(c.Request().Header.ContentType())
	switch {
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return fmt.Sprintf("(unreadable multipart body, %d bytes)", len(raw))
		}
		parts := make([]string, 0, len(form.Value)+len(form.File))
		for name, values := range form.Value {
			parts = append(parts, sanitizeSensitiveData(name+"="+strings.Join(values, ",")))
		}
		for name, files := range form.File {
			for _, fh := range files {
				parts = append(parts, fmt.Sprintf("%s=<file %q %d bytes>", name, fh.Filename, fh.Size))
			}
		}
		return "multipart: " + strings.Join(parts, " ")
	case strings.Contains(contentType, "json"), strings.Contains(contentType, "form"), strings.Contains(contentType, "text"):
		return truncateBody(raw)
	default:
		return fmt.Sprintf("(binary body, %d bytes)", len(raw))
	}
}

func truncateBody(body []byte) string {
	if len(body) == 0 {
		return "(empty)"
	}
	if len(body) > maxBodyLogSize {
		return sanitizeSensitiveData(string(body[:maxBodyLogSize])) + "... (truncated)"
	}
	return sanitizeSensitiveData(string(body))
}

// sanitizeSensitiveData masks password and token values in JSON and urlencoded bodies.
func sanitizeSensitiveData(body string) string {
	body = jsonSecretField.ReplaceAllString(body, `$1***$2`)
	return formSecretField.ReplaceAllString(body, `${1}***`)
}
