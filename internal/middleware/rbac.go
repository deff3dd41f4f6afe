package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/utils"
)

// courseRoles is the role vocabulary minted into tokens. Anything outside it
// is treated as no role at all.
var courseRoles = map[string]struct{}{
	models.RoleStudent: {},
	models.RoleTeacher: {},
	models.RoleManager: {},
}

// RequireRole guards a route with an explicit course-role allowlist.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if normalized := normalizeRoleValue(role); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := allowed[currentRole(c)]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// currentRole reads the authenticated course role off the request, discarding
// values outside the known vocabulary.
func currentRole(c *fiber.Ctx) string {
	role := normalizeRoleValue(c.Locals("user_role"))
	if _, ok := courseRoles[role]; !ok {
		return ""
	}
	return role
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(v.String()))
	default:
		if value == nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
	}
}
