package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/exam-service/pkg/util"
)

// RequireAuth rejects requests that reached a protected route without an
// authenticated principal.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
