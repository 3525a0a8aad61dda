package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/pkg/util"
)

// RequireRole ensures the caller holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return util.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role()]; !exists {
			return util.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequirePlatformAdmin restricts a route to platform staff.
func RequirePlatformAdmin() fiber.Handler {
	return RequireRole(domain.RolePlatformAdmin)
}
