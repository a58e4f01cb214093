package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func newCapturedLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	return log, &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.Bytes())
	}
	return entry
}

func TestRequestLoggerLogsOutcomeFields(t *testing.T) {
	log, buf := newCapturedLogger()

	app := fiber.New()
	app.Use(RequestLogger(log))
	app.Get("/ok", func(c *fiber.Ctx) error {
		if id, ok := c.Locals("requestid").(string); !ok || id == "" {
			t.Error("request id should be set before the handler runs")
		}
		return c.SendStatus(fiber.StatusOK)
	})

	if _, err := app.Test(httptest.NewRequest("GET", "/ok", nil), -1); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	entry := lastEntry(t, buf)
	if entry["level"] != "info" {
		t.Errorf("2xx should log at info, got %v", entry["level"])
	}
	if entry["http_method"] != "GET" || entry["uri"] != "/ok" {
		t.Errorf("request fields missing: %v", entry)
	}
	if entry["request_id"] == "" || entry["request_id"] == nil {
		t.Errorf("request_id missing: %v", entry)
	}
	if entry["status_code"] != float64(fiber.StatusOK) {
		t.Errorf("unexpected status_code: %v", entry["status_code"])
	}
}

func TestRequestLoggerWarnsOnClientError(t *testing.T) {
	log, buf := newCapturedLogger()

	app := fiber.New()
	app.Use(RequestLogger(log))
	app.Get("/missing", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})

	if _, err := app.Test(httptest.NewRequest("GET", "/missing", nil), -1); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	entry := lastEntry(t, buf)
	if entry["level"] != "warning" {
		t.Errorf("4xx should log at warn, got %v", entry["level"])
	}
}
