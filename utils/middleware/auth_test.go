package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehive/model"
)

// asUser attaches the caller the way Required does after validating a token.
func asUser(u *model.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", u.ID)
		c.Locals("user_role", u.Role)
		c.Locals("user", u)
		return c.Next()
	}
}

func okHandler(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

func get(t *testing.T, app *fiber.App, path string) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode
}

func TestRequireEducatorAllowsEducator(t *testing.T) {
	m := &AuthMiddleware{}
	educator := &model.User{ID: 7, Role: model.RoleEducator}

	app := fiber.New()
	app.Get("/dashboard", asUser(educator), m.RequireEducator(), okHandler)

	if status := get(t, app, "/dashboard"); status != http.StatusOK {
		t.Fatalf("expected 200 for educator, got %d", status)
	}
}

func TestRequireEducatorAllowsAdmin(t *testing.T) {
	m := &AuthMiddleware{}
	admin := &model.User{ID: 1, Role: model.RoleAdmin}

	app := fiber.New()
	app.Get("/dashboard", asUser(admin), m.RequireEducator(), okHandler)

	if status := get(t, app, "/dashboard"); status != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", status)
	}
}

func TestRequireEducatorForbidsStudent(t *testing.T) {
	m := &AuthMiddleware{}
	student := &model.User{ID: 2, Role: model.RoleStudent}

	app := fiber.New()
	app.Get("/dashboard", asUser(student), m.RequireEducator(), okHandler)

	if status := get(t, app, "/dashboard"); status != http.StatusForbidden {
		t.Fatalf("expected 403 for student, got %d", status)
	}
}

func TestRequireEducatorRejectsAnonymous(t *testing.T) {
	m := &AuthMiddleware{}

	app := fiber.New()
	app.Get("/dashboard", m.RequireEducator(), okHandler)

	if status := get(t, app, "/dashboard"); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth context, got %d", status)
	}
}

func TestRequireAdminForbidsEducator(t *testing.T) {
	m := &AuthMiddleware{}
	educator := &model.User{ID: 7, Role: model.RoleEducator}

	app := fiber.New()
	app.Get("/requests", asUser(educator), m.RequireAdmin(), okHandler)

	if status := get(t, app, "/requests"); status != http.StatusForbidden {
		t.Fatalf("expected 403 for educator, got %d", status)
	}
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	m := &AuthMiddleware{}
	admin := &model.User{ID: 1, Role: model.RoleAdmin}

	app := fiber.New()
	app.Get("/requests", asUser(admin), m.RequireAdmin(), okHandler)

	if status := get(t, app, "/requests"); status != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", status)
	}
}
