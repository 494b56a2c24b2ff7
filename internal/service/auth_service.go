package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"boostgate/internal/core/domain"
	"boostgate/internal/core/ports"
	"boostgate/pkg/apperror"
)

const (
	minPasswordLength = 8

	loginAttemptLimit  = 5
	loginAttemptWindow = 15 * time.Minute
)

type authService struct {
	users    ports.UserRepository
	hasher   ports.HashService
	tokens   ports.TokenService
	sessions ports.SessionStore
	limiter  ports.AttemptLimiter
	log      zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.HashService,
	tokens ports.TokenService,
	sessions ports.SessionStore,
	limiter ports.AttemptLimiter,
	log zerolog.Logger,
) ports.AuthService {
	return &authService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		limiter:  limiter,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

func (s *authService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.Validation("invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, apperror.Validation("password must be at least 8 characters")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Balance:      decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperror.InternalError(err)
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, nil
}

// Login counts attempts per email in Redis, so the lockout holds across
// instances and restarts. Failed and successful attempts both consume a
// slot within the window.
func (s *authService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	allowed, err := s.limiter.Allow(ctx, "login:"+email, loginAttemptLimit, loginAttemptWindow)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}
	if !allowed {
		return "", time.Time{}, apperror.ErrTooManyAttempts()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}
	if user == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}
	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}
	if !ok {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}
	if user.Banned {
		return "", time.Time{}, apperror.ErrAccountBanned()
	}

	token, tokenID, expiresAt, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}
	session := &domain.Session{
		TokenID:   tokenID,
		UserID:    user.ID,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		Balance:   user.Balance,
		CreatedAt: time.Now(),
	}
	if err := s.sessions.Save(ctx, session, time.Until(expiresAt)); err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return token, expiresAt, nil
}

func (s *authService) Logout(ctx context.Context, tokenID string) error {
	if err := s.sessions.Delete(ctx, tokenID); err != nil {
		return apperror.InternalError(err)
	}
	return nil
}

// CurrentUser refreshes the cached balance from the database before
// returning the session. The cache exists for display only.
func (s *authService) CurrentUser(ctx context.Context, tokenID string) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, tokenID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if session == nil {
		return nil, apperror.ErrInvalidToken()
	}

	balance, err := s.users.GetBalance(ctx, session.UserID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	session.Balance = balance
	if err := s.sessions.UpdateBalance(ctx, tokenID, balance); err != nil {
		s.log.Warn().Err(err).Str("token_id", tokenID).Msg("session balance refresh failed")
	}
	return session, nil
}
