package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

func performRequest(t *testing.T, handler fiber.Handler) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/envelope", handler)

	resp, err := app.Test(httptest.NewRequest("GET", "/envelope", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, raw)
	}
	return resp.StatusCode, body
}

func TestRespondWithErrorEnvelope(t *testing.T) {
	status, body := performRequest(t, func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusNotFound, "Conversation not found")
	})
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if body["status"] != "error" || body["message"] != "Conversation not found" {
		t.Fatalf("unexpected envelope: %v", body)
	}
}

func TestRespondWithJSONEnvelope(t *testing.T) {
	status, body := performRequest(t, func(c *fiber.Ctx) error {
		return RespondWithJSON(c, fiber.StatusCreated, fiber.Map{"id": "abc"})
	})
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if body["status"] != "success" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["id"] != "abc" {
		t.Fatalf("data payload not preserved: %v", body)
	}
}

func TestFormatValidationErrors(t *testing.T) {
	type form struct {
		VideoURL string `validate:"required,url"`
		Retries  int    `validate:"max=3"`
	}

	v := validator.New()

	if got := FormatValidationErrors(nil); got != nil {
		t.Fatalf("nil error should format to nil, got %v", got)
	}

	if got := FormatValidationErrors(errors.New("boom")); len(got) != 1 || got[0] != "boom" {
		t.Fatalf("plain errors should pass through verbatim, got %v", got)
	}

	err := v.Struct(form{VideoURL: "", Retries: 9})
	got := FormatValidationErrors(err)
	if len(got) != 2 {
		t.Fatalf("expected two messages, got %v", got)
	}
	if !strings.Contains(got[0], "'VideoURL'") || !strings.Contains(got[0], "'required'") {
		t.Errorf("first message should name field and tag: %q", got[0])
	}
	if !strings.Contains(got[1], "(value: 3)") {
		t.Errorf("tag parameter should be included: %q", got[1])
	}
}
