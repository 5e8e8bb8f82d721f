package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/exam-service/internal/auth"
	"github.com/spec-kit/exam-service/internal/domain"
	"github.com/spec-kit/exam-service/internal/events"
	"github.com/spec-kit/exam-service/internal/repository"
	apperrors "github.com/spec-kit/exam-service/pkg/util"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+$`)

// Unknown username and wrong password must be indistinguishable to the
// caller.
const badCredentialsMessage = "invalid username or password"

const invalidRefreshMessage = "invalid refresh token"

// AuthService coordinates registration, login and token refresh.
type AuthService struct {
	users      repository.UserRepository
	hasher     auth.PasswordHasher
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Hasher     auth.PasswordHasher
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Register validates input, enforces username/email uniqueness, persists the
// account and returns a fresh token pair.
//
// The existence checks and the insert are not one atomic step; concurrent
// registrations can both pass the checks. The UNIQUE constraints on the users
// table are the actual guarantee, and a late violation from Create is
// reported as the same conflict.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.TokenPair, error) {
	if isBlank(email) {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	if !emailPattern.MatchString(email) {
		return nil, apperrors.NewValidationError("email format is invalid", nil)
	}
	if isBlank(username) {
		return nil, apperrors.NewValidationError("username is required", nil)
	}
	if isBlank(password) {
		return nil, apperrors.NewValidationError("password is required", nil)
	}

	emailTaken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if emailTaken {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"field": "email"})
	}

	usernameTaken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if usernameTaken {
		return nil, apperrors.NewConflict("username already registered", map[string]any{"field": "username"})
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	id, err := s.users.NextAvailableID(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("username or email already registered", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	pair, err := s.issuePair(user.Username)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventUserRegistered, user.Username, events.UserRegisteredPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	return pair, nil
}

// Login verifies credentials and returns a fresh token pair. Previously
// issued tokens stay valid; there is no server-side session to invalidate.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	if isBlank(username) {
		return nil, apperrors.NewValidationError("username is required", nil)
	}
	if isBlank(password) {
		return nil, apperrors.NewValidationError("password is required", nil)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized(badCredentialsMessage)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperrors.NewUnauthorized(badCredentialsMessage)
	}

	pair, err := s.issuePair(user.Username)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventUserLoggedIn, user.Username, events.UserLoggedInPayload{Role: user.Role})
	return pair, nil
}

// Refresh verifies a refresh token and rotates it into a brand-new pair. The
// presented token is not invalidated and stays usable until its own expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if isBlank(refreshToken) {
		return nil, apperrors.NewUnauthorized(invalidRefreshMessage)
	}

	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		s.logRefreshRejection(refreshToken, err)
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperrors.NewUnauthorized("token expired")
		}
		return nil, apperrors.NewUnauthorized(invalidRefreshMessage)
	}
	if claims.TokenType != auth.TokenTypeRefresh {
		s.logRefreshRejection(refreshToken, nil)
		return nil, apperrors.NewUnauthorized(invalidRefreshMessage)
	}

	pair, err := s.issuePair(claims.Subject)
	if err != nil {
		// the client-observable contract for refresh is 401, never a raw
		// internal failure
		return nil, apperrors.NewUnauthorized(invalidRefreshMessage)
	}

	s.publish(ctx, events.EventTokenRefreshed, claims.Subject, events.TokenRefreshedPayload{})
	return pair, nil
}

// logRefreshRejection records the type claim of a rejected token. The claim
// is read without verification and is diagnostic only.
func (s *AuthService) logRefreshRejection(token string, err error) {
	s.logger.Debug("refresh token rejected",
		zap.String("presented_type", string(s.tokens.Classify(token))),
		zap.Error(err),
	)
}

func isBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}

func (s *AuthService) issuePair(username string) (*domain.TokenPair, error) {
	accessToken, _, err := s.tokens.Issue(username, auth.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := s.tokens.Issue(username, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Username:     username,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, typ events.EventType, username string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Username:  username,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
