package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/exam-service/internal/api/http"
	"github.com/spec-kit/exam-service/internal/api/http/handlers"
	"github.com/spec-kit/exam-service/internal/auth"
	"github.com/spec-kit/exam-service/internal/config"
	"github.com/spec-kit/exam-service/internal/domain"
	"github.com/spec-kit/exam-service/internal/events"
	"github.com/spec-kit/exam-service/internal/observability"
	"github.com/spec-kit/exam-service/internal/persistence"
	"github.com/spec-kit/exam-service/internal/service"
)

type memoryUserRepo struct {
	users map[int64]*domain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]*domain.User)}
}

func (m *memoryUserRepo) Create(_ context.Context, user *domain.User) error {
	stored := *user
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.users[user.ID] = &stored
	return nil
}

func (m *memoryUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, user := range m.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, user := range m.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryUserRepo) NextAvailableID(_ context.Context) (int64, error) {
	id := int64(1)
	for {
		if _, taken := m.users[id]; !taken {
			return id, nil
		}
		id++
	}
}

type memoryExamRepo struct{}

func (memoryExamRepo) ListByCategory(_ context.Context, _ string) ([]domain.Exam, error) {
	return []domain.Exam{
		{ID: 1, Category: "network", QuestionText: "q1", AnswerText: "a1"},
	}, nil
}

func (memoryExamRepo) Categories(_ context.Context) ([]string, error) {
	return []string{"network"}, nil
}

type testEnv struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		App: config.AppConfig{Name: "exam-service-test", Version: "test"},
		Auth: config.AuthConfig{
			JWTSecret:              "test-secret",
			AccessTokenTTLMinutes:  30,
			RefreshTokenTTLMinutes: 7 * 24 * 60,
		},
		CORS: config.CORSConfig{AllowedOrigins: "http://localhost:3000"},
	}

	logger := zap.NewNop()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL())

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   newMemoryUserRepo(),
		Hasher:     auth.NewBcryptHasher(bcrypt.MinCost),
		Tokens:     tokens,
		Dispatcher: events.NewInMemoryDispatcher(),
	})
	examService := service.NewExamService(service.ExamDependencies{
		ExamRepo: memoryExamRepo{},
		MaxCount: 20,
		Logger:   logger,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), cfg)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, &persistence.Postgres{}, &persistence.Redis{}),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth.RefreshTokenTTL()),
		Exam:           handlers.NewExamHandler(examService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	return &testEnv{app: app, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var body map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return resp, body
}

func (e *testEnv) register(t *testing.T, username, email, password string) (*http.Response, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req)
}

func (e *testEnv) login(t *testing.T, username, password string) (*http.Response, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req)
}

func refreshCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, cookie := range resp.Cookies() {
		if cookie.Name == handlers.RefreshCookieName {
			return cookie
		}
	}
	t.Fatal("refresh_token cookie not set")
	return nil
}

func TestRegister_SetsRefreshCookieAndReturnsAccessToken(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.register(t, "carol", "carol@x.com", "pw123")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "carol", body["username"])

	accessToken, _ := body["accessToken"].(string)
	require.NotEmpty(t, accessToken)

	claims, err := env.tokens.Verify(accessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "carol", claims.Subject)

	cookie := refreshCookie(t, resp)
	assert.Equal(t, handlers.RefreshCookiePath, cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.Positive(t, cookie.MaxAge)

	refreshClaims, err := env.tokens.Verify(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, auth.TokenTypeRefresh, refreshClaims.TokenType)
}

func TestRegister_ValidationAndConflicts(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.register(t, "carol", "", "pw123")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.register(t, "carol", "carol@x.com", "pw123")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.register(t, "carol", "other@x.com", "pw123")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.NotEmpty(t, body["message"])

	resp, body = env.register(t, "dave", "carol@x.com", "pw123")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.NotEmpty(t, body["message"])
}

func TestLogin_FailureModesShareOneMessage(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.register(t, "alice", "a@x.com", "pw123")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, unknownBody := env.login(t, "nosuchuser", "x")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, wrongPassBody := env.login(t, "alice", "wrongpass")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Equal(t, unknownBody["message"], wrongPassBody["message"])
}

func TestRefresh_RotatesTokenPair(t *testing.T) {
	env := newTestEnv(t)

	registerResp, registerBody := env.register(t, "carol", "carol@x.com", "pw123")
	require.Equal(t, http.StatusOK, registerResp.StatusCode)
	firstAccess, _ := registerBody["accessToken"].(string)
	cookie := refreshCookie(t, registerResp)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: handlers.RefreshCookieName, Value: cookie.Value})
	resp, body := env.do(t, req)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "carol", body["username"])

	newAccess, _ := body["accessToken"].(string)
	require.NotEmpty(t, newAccess)
	assert.NotEqual(t, firstAccess, newAccess)

	claims, err := env.tokens.Verify(newAccess)
	require.NoError(t, err)
	assert.Equal(t, "carol", claims.Subject)

	newCookie := refreshCookie(t, resp)
	assert.NotEqual(t, cookie.Value, newCookie.Value)
}

func TestRefresh_MissingOrBadCookie(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	resp, body := env.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid refresh token", body["message"])

	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: handlers.RefreshCookieName, Value: "garbage"})
	resp, body = env.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid refresh token", body["message"])
}

func TestRefresh_RejectsAccessTokenInCookie(t *testing.T) {
	env := newTestEnv(t)

	registerResp, registerBody := env.register(t, "carol", "carol@x.com", "pw123")
	require.Equal(t, http.StatusOK, registerResp.StatusCode)
	accessToken, _ := registerBody["accessToken"].(string)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: handlers.RefreshCookieName, Value: accessToken})
	resp, body := env.do(t, req)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid refresh token", body["message"])
}

func TestProtectedRoutes_RequireAccessToken(t *testing.T) {
	env := newTestEnv(t)

	registerResp, registerBody := env.register(t, "carol", "carol@x.com", "pw123")
	require.Equal(t, http.StatusOK, registerResp.StatusCode)
	accessToken, _ := registerBody["accessToken"].(string)
	cookie := refreshCookie(t, registerResp)

	// no token
	req := httptest.NewRequest(http.MethodGet, "/api/exam/random", nil)
	resp, _ := env.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// refresh token as bearer is rejected
	req = httptest.NewRequest(http.MethodGet, "/api/exam/random", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	resp, body := env.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "token invalid", body["message"])

	// access token passes
	req = httptest.NewRequest(http.MethodGet, "/api/exam/random?category=network&count=1", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, body = env.do(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["questions"])

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, body = env.do(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "carol", body["username"])
	assert.Equal(t, string(domain.RoleUser), body["role"])
}
