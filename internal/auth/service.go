package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/draftvision/draftvision/internal/models"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	defaultResetTTL   = time.Hour
	minPasswordLen    = 8
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UserRepository defines what the service needs from the data layer.
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	CreateResetToken(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error)
}

// Session is an issued token pair with the authenticated user.
type Session struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

// Service implements sign up/in/out, session refresh and password reset.
// Refresh tokens are rotated on use; revoked token ids are tracked in
// memory, which is acceptable for a single-instance deployment.
type Service struct {
	repo   UserRepository
	tokens *TokenProvider
	clock  clockwork.Clock

	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration

	revokedMu sync.Mutex
	revoked   map[string]time.Time // token id -> expiry
}

// ServiceOption configures the auth service.
type ServiceOption func(*Service)

// WithClock sets the clock. Tests pass a clockwork fake clock.
func WithClock(c clockwork.Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

// NewService creates a new auth service.
func NewService(repo UserRepository, tokens *TokenProvider, opts ...ServiceOption) *Service {
	s := &Service{
		repo:       repo,
		tokens:     tokens,
		clock:      clockwork.NewRealClock(),
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		resetTTL:   defaultResetTTL,
		revoked:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp registers a new account. Username defaults to the local part of
// the email when omitted.
func (s *Service) SignUp(ctx context.Context, email, password, username string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if username == "" {
		username = email[:strings.Index(email, "@")]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Msg("user signed up")
	return user, nil
}

// SignIn verifies credentials and issues a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueSession(user)
}

// SignOut revokes the session's refresh token.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.Validate(refreshToken, tokenTypeRefresh)
	if err != nil {
		// Expired or garbage tokens are already unusable.
		return nil
	}
	s.revoke(claims.TokenID, claims.ExpiresAt)
	log.Info().Str("user_id", claims.UserID.String()).Msg("user signed out")
	return nil
}

// Session resolves the user for an access token. Expired tokens return
// ErrExpiredToken so the caller can attempt a single refresh before
// forcing sign-out.
func (s *Service) Session(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.Validate(accessToken, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, claims.UserID)
}

// Refresh exchanges a valid refresh token for a new session. The used
// token is revoked (single rotation).
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.Validate(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	if s.isRevoked(claims.TokenID) {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	s.revoke(claims.TokenID, claims.ExpiresAt)
	return s.issueSession(user)
}

// RequestPasswordReset creates a single-use reset token for the account.
// Unknown emails return no error so the endpoint does not leak accounts;
// the returned token is empty in that case.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	token := uuid.New().String()
	expiresAt := s.clock.Now().Add(s.resetTTL)
	if err := s.repo.CreateResetToken(ctx, token, user.ID, expiresAt); err != nil {
		return "", err
	}

	log.Info().Str("user_id", user.ID.String()).Msg("password reset requested")
	return token, nil
}

// CompletePasswordReset consumes a reset token and sets a new password.
func (s *Service) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return ErrWeakPassword
	}
	userID, err := s.repo.ConsumeResetToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	log.Info().Str("user_id", userID.String()).Msg("password reset completed")
	return nil
}

func (s *Service) issueSession(user *models.User) (*Session, error) {
	now := s.clock.Now()
	access, err := s.tokens.generate(user.ID, user.Email, tokenTypeAccess, now, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.generate(user.ID, user.Email, tokenTypeRefresh, now, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &Session{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.accessTTL),
	}, nil
}

func (s *Service) revoke(tokenID string, expiresAt time.Time) {
	s.revokedMu.Lock()
	defer s.revokedMu.Unlock()

	// Drop entries for tokens that have expired on their own.
	now := s.clock.Now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = expiresAt
}

func (s *Service) isRevoked(tokenID string) bool {
	s.revokedMu.Lock()
	defer s.revokedMu.Unlock()
	_, ok := s.revoked[tokenID]
	return ok
}
