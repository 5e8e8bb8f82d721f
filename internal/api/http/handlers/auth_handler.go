package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exam-service/internal/api/dto"
	"github.com/spec-kit/exam-service/internal/auth"
	"github.com/spec-kit/exam-service/internal/domain"
	"github.com/spec-kit/exam-service/internal/service"
	apperrors "github.com/spec-kit/exam-service/pkg/util"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"

// RefreshCookiePath scopes the cookie to the refresh endpoint only.
const RefreshCookiePath = "/api/auth/refresh"

// AuthHandler exposes registration, login and refresh endpoints.
type AuthHandler struct {
	auth       *service.AuthService
	refreshTTL time.Duration
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: authService, refreshTTL: refreshTTL}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	pair, err := h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.writeAuthResponse(c, pair)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	pair, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return h.writeAuthResponse(c, pair)
}

// Refresh handles POST /api/auth/refresh. The refresh token is read from the
// cookie; the request carries no body.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies(RefreshCookieName)
	if strings.TrimSpace(refreshToken) == "" {
		return apperrors.NewUnauthorized("invalid refresh token")
	}

	pair, err := h.auth.Refresh(c.UserContext(), refreshToken)
	if err != nil {
		return err
	}
	return h.writeAuthResponse(c, pair)
}

// Me handles GET /api/auth/me on the protected group.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.MeResponse{
		Username: principal.Username,
		Role:     string(principal.Role),
	})
}

func (h *AuthHandler) writeAuthResponse(c *fiber.Ctx, pair *domain.TokenPair) error {
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    pair.RefreshToken,
		Path:     RefreshCookiePath,
		MaxAge:   int(h.refreshTTL.Seconds()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(dto.AuthResponse{
		AccessToken: pair.AccessToken,
		Username:    pair.Username,
	})
}
