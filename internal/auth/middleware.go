package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exam-service/internal/domain"
	apperrors "github.com/spec-kit/exam-service/pkg/util"
)

const principalKey = "auth_principal"

const bearerPrefix = "Bearer "

// AuthMiddleware validates bearer access tokens and attaches the request
// principal. It holds no mutable state and never touches the credential
// store.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle authenticates the request when an Authorization header is present.
// Requests without a bearer header pass through unauthenticated; route guards
// decide whether identity is required. A present but unusable token
// short-circuits with 401.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" || !strings.HasPrefix(authHeader, bearerPrefix) {
		return c.Next()
	}

	claims, err := m.tokens.Verify(strings.TrimPrefix(authHeader, bearerPrefix))
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return apperrors.NewUnauthorized("token expired")
		}
		return apperrors.NewUnauthorized("token invalid")
	}

	// A refresh token passes generic verification but must never authorize
	// API calls.
	if claims.TokenType != TokenTypeAccess {
		return apperrors.NewUnauthorized("token invalid")
	}

	if _, ok := PrincipalFromContext(c); !ok {
		c.Locals(principalKey, &domain.Principal{
			Username: claims.Subject,
			Role:     domain.RoleUser,
		})
	}
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated identity.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}
