package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newContentTypeApp() *fiber.App {
	app := fiber.New()
	app.Use(ValidateContentType())
	app.Post("/webhook/email-reply", func(c *fiber.Ctx) error {
		return c.SendStatus(200)
	})
	app.Post("/api/v1/emails/send", func(c *fiber.Ctx) error {
		return c.SendStatus(200)
	})
	return app
}

func TestValidateContentTypeSkipsWebhookPaths(t *testing.T) {
	app := newContentTypeApp()

	req := httptest.NewRequest("POST", "/webhook/email-reply", strings.NewReader("raw delivery"))
	req.Header.Set("Content-Type", "text/plain")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200 for webhook path regardless of content type", resp.StatusCode)
	}
}

func TestValidateContentTypeRejectsUnknownType(t *testing.T) {
	app := newContentTypeApp()

	req := httptest.NewRequest("POST", "/api/v1/emails/send", strings.NewReader("raw"))
	req.Header.Set("Content-Type", "text/plain")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != 415 {
		t.Errorf("status = %d, want 415 for unsupported content type", resp.StatusCode)
	}
}

func TestValidateContentTypeRequiresHeaderWithBody(t *testing.T) {
	app := newContentTypeApp()

	req := httptest.NewRequest("POST", "/api/v1/emails/send", strings.NewReader(`{"to":"a@b.c"}`))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400 when content type missing", resp.StatusCode)
	}
}
