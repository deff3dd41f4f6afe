package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func jwtTestApp(t *testing.T) (*fiber.App, *uint, *string) {
	t.Helper()

	userID := new(uint)
	role := new(string)

	app := fiber.New()
	app.Use(JWTProtected(testJWTSecret))
	app.Get("/me", func(c *fiber.Ctx) error {
		if v, ok := c.Locals("user_id").(uint); ok {
			*userID = v
		}
		if v, ok := c.Locals("user_role").(string); ok {
			*role = v
		}
		return c.SendStatus(fiber.StatusOK)
	})
	return app, userID, role
}

func TestJWTProtectedExtractsSubjectAndRole(t *testing.T) {
	app, userID, role := jwtTestApp(t)

	token := signedToken(t, jwt.MapClaims{"sub": float64(42), "role": "Teacher"})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(42), *userID)
	require.Equal(t, "teacher", *role)
}

func TestJWTProtectedDropsUnknownRole(t *testing.T) {
	app, userID, role := jwtTestApp(t)

	token := signedToken(t, jwt.MapClaims{"user_id": "7", "roles": []interface{}{"superuser", "student"}})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(7), *userID)
	require.Equal(t, "student", *role, "off-vocabulary entries are skipped, not passed through")
}

func TestJWTProtectedRejectsBadToken(t *testing.T) {
	app, _, _ := jwtTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
