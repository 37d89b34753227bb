package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ridepass/ridepass/internal/platform/httpx"
)

// Service wraps session lifecycle and credential-verification rules.
type Service struct {
	repo   Repository
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a new Service. ttl bounds the lifetime of every
// issued credential.
func NewService(repo Repository, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ttl: ttl, logger: logger, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Principal, error) {
	acc, err := s.repo.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return Principal{}, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
		}
		return Principal{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return Principal{}, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}
	return acc.Principal, nil
}

// Issue mints a fresh session credential for the principal, revoking any
// prior one in the same transaction. It returns the raw token; only the
// hash is stored and the raw value is never logged.
func (s *Service) Issue(ctx context.Context, principalID int64) (string, error) {
	raw, hash, err := NewToken()
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	cred := SessionCredential{
		ID:          uuid.NewString(),
		TokenHash:   hash,
		PrincipalID: principalID,
		CreatedAt:   now,
		LastUsedAt:  now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if err := s.repo.ReplaceSession(ctx, cred); err != nil {
		return "", fmt.Errorf("auth: issue session: %w", err)
	}
	return raw, nil
}

// Login authenticates the credentials, stamps last_login_at and issues a
// session token.
func (s *Service) Login(ctx context.Context, username, password string) (Principal, string, error) {
	principal, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return Principal{}, "", err
	}
	if err := s.repo.UpdateLastLogin(ctx, principal.ID, s.now().UTC()); err != nil {
		s.logger.Warn("update last login", slog.Any("error", err))
	}
	raw, err := s.Issue(ctx, principal.ID)
	if err != nil {
		return Principal{}, "", err
	}
	return principal, raw, nil
}

// Validate resolves a raw token to its principal. A missing, unknown or
// expired credential uniformly yields ErrUnauthorized. The last_used_at
// touch is advisory and never fails the decision.
func (s *Service) Validate(ctx context.Context, rawToken string) (Principal, error) {
	if rawToken == "" {
		return Principal{}, fmt.Errorf("%w: no session token", httpx.ErrUnauthorized)
	}
	vs, err := s.repo.GetSessionByTokenHash(ctx, HashToken(rawToken))
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return Principal{}, fmt.Errorf("%w: invalid session", httpx.ErrUnauthorized)
		}
		return Principal{}, err
	}
	now := s.now().UTC()
	if now.After(vs.Credential.ExpiresAt) {
		return Principal{}, fmt.Errorf("%w: session expired", httpx.ErrUnauthorized)
	}
	if err := s.repo.TouchSession(ctx, vs.Credential.ID, now); err != nil {
		s.logger.Warn("touch session", slog.Any("error", err))
	}
	return vs.Principal, nil
}

// Revoke deletes every credential for the principal. Revoking with no
// existing session succeeds silently.
func (s *Service) Revoke(ctx context.Context, principalID int64) error {
	return s.repo.DeleteSessionsByPrincipal(ctx, principalID)
}

// RevokeToken deletes the credential matching the presented raw token.
// Unknown tokens are a no-op so logout stays idempotent.
func (s *Service) RevokeToken(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	return s.repo.DeleteSessionByTokenHash(ctx, HashToken(rawToken))
}

// ChangePassword verifies the old password, stores the new hash and revokes
// every session for the principal, forcing a fresh login.
func (s *Service) ChangePassword(ctx context.Context, principalID int64, oldPassword, newPassword string) error {
	acc, err := s.repo.GetAccountByID(ctx, principalID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("%w: old password incorrect", httpx.ErrValidation)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, principalID, string(hashed)); err != nil {
		return err
	}
	return s.Revoke(ctx, principalID)
}

// TTL exposes the configured session lifetime for cookie bounds.
func (s *Service) TTL() time.Duration {
	return s.ttl
}
