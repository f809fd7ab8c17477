package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
)

func setupResponseTestApp() *fiber.App {
	app := fiber.New()

	app.Get("/success", func(c *fiber.Ctx) error {
		return Success(c, fiber.StatusCreated, fiber.Map{"id": "123", "message": "ok"})
	})

	app.Get("/error", func(c *fiber.Ctx) error {
		return Error(c, fiber.StatusBadRequest, "invalid input")
	})

	app.Get("/fail-typed", func(c *fiber.Ctx) error {
		return Fail(c, apperr.Authorization(apperr.CodeQRPermission, "QR oluşturma yetkiniz yok"))
	})

	app.Get("/fail-plain", func(c *fiber.Ctx) error {
		return Fail(c, errors.New("dial tcp 10.0.0.1:5432: connection refused"))
	})

	app.Get("/paginated", func(c *fiber.Ctx) error {
		return Paginated(c, "users", []string{"a", "b"}, 2, 20, 45)
	})

	return app
}

func performResponseTestRequest(t *testing.T, app *fiber.App, path string) map[string]any {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request to %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed decoding %s response body: %v", path, err)
	}

	body["_statusCode"] = float64(resp.StatusCode)
	return body
}

func requireNumberField(t *testing.T, obj map[string]any, key string) int {
	t.Helper()

	raw, ok := obj[key]
	if !ok {
		t.Fatalf("expected field %q to exist in response", key)
	}

	number, ok := raw.(float64)
	if !ok {
		t.Fatalf("expected field %q to be numeric, got %T", key, raw)
	}

	return int(number)
}

func TestResponseHelpers(t *testing.T) {
	app := setupResponseTestApp()

	t.Run("Success merges payload into the envelope", func(t *testing.T) {
		body := performResponseTestRequest(t, app, "/success")

		if status := requireNumberField(t, body, "_statusCode"); status != fiber.StatusCreated {
			t.Fatalf("expected status %d, got %d", fiber.StatusCreated, status)
		}
		if success, ok := body["success"].(bool); !ok || !success {
			t.Fatalf("expected success=true, got %v", body["success"])
		}
		if body["id"] != "123" {
			t.Fatalf("expected id to be %q, got %v", "123", body["id"])
		}
		if body["message"] != "ok" {
			t.Fatalf("expected message to be %q, got %v", "ok", body["message"])
		}
	})

	t.Run("Error returns message without code", func(t *testing.T) {
		body := performResponseTestRequest(t, app, "/error")

		if status := requireNumberField(t, body, "_statusCode"); status != fiber.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", fiber.StatusBadRequest, status)
		}
		if success, ok := body["success"].(bool); !ok || success {
			t.Fatalf("expected success=false, got %v", body["success"])
		}
		if body["message"] != "invalid input" {
			t.Fatalf("expected message %q, got %v", "invalid input", body["message"])
		}
		if _, exists := body["code"]; exists {
			t.Fatalf("expected no code field, got %v", body["code"])
		}
	})

	t.Run("Fail maps typed errors to status and code", func(t *testing.T) {
		body := performResponseTestRequest(t, app, "/fail-typed")

		if status := requireNumberField(t, body, "_statusCode"); status != fiber.StatusForbidden {
			t.Fatalf("expected status %d, got %d", fiber.StatusForbidden, status)
		}
		if body["code"] != apperr.CodeQRPermission {
			t.Fatalf("expected code %q, got %v", apperr.CodeQRPermission, body["code"])
		}
	})

	t.Run("Fail redacts untyped errors outside development", func(t *testing.T) {
		ConfigureErrors(false)
		body := performResponseTestRequest(t, app, "/fail-plain")

		if status := requireNumberField(t, body, "_statusCode"); status != fiber.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", fiber.StatusInternalServerError, status)
		}
		if body["message"] != "Sunucu hatası" {
			t.Fatalf("expected redacted message, got %v", body["message"])
		}
	})

	t.Run("Fail exposes cause in development", func(t *testing.T) {
		ConfigureErrors(true)
		t.Cleanup(func() { ConfigureErrors(false) })

		body := performResponseTestRequest(t, app, "/fail-plain")
		message, _ := body["message"].(string)
		if message == "Sunucu hatası" {
			t.Fatalf("expected detailed message in development, got %q", message)
		}
	})

	t.Run("Paginated returns items and pagination metadata", func(t *testing.T) {
		body := performResponseTestRequest(t, app, "/paginated")

		data, ok := body["users"].([]any)
		if !ok {
			t.Fatalf("expected users array, got %T", body["users"])
		}
		if len(data) != 2 {
			t.Fatalf("expected data length 2, got %d", len(data))
		}

		pagination, ok := body["pagination"].(map[string]any)
		if !ok {
			t.Fatalf("expected pagination object, got %T", body["pagination"])
		}
		if page := requireNumberField(t, pagination, "page"); page != 2 {
			t.Fatalf("expected page=2, got %d", page)
		}
		if totalPages := requireNumberField(t, pagination, "totalPages"); totalPages != 3 {
			t.Fatalf("expected totalPages=3, got %d", totalPages)
		}
	})
}
