package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/buyback-service/internal/domain"
	apperrors "github.com/spec-kit/buyback-service/pkg/util/errorutil"
)

// RequireStaff ensures any authenticated staff credential is present.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CredentialFromContext(c); !ok {
			return apperrors.NewUnauthorized("staff credential required")
		}
		return c.Next()
	}
}

// RequireRole ensures the staff credential has one of the allowed roles.
func RequireRole(allowed ...domain.StaffRole) fiber.Handler {
	allowedSet := make(map[domain.StaffRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		cred, ok := CredentialFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("staff credential required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[cred.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAdmin restricts a route to admin roles.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.StaffRoleAdmin, domain.StaffRoleSuperAdmin)
}
