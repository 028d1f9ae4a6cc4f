// Package service implements the application use cases on top of the
// database, cache, message queue, and broadcast ports.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rostralabs/rostra/internal/config"
	"github.com/rostralabs/rostra/internal/domain"
	"github.com/rostralabs/rostra/internal/domain/user"
	"github.com/rostralabs/rostra/internal/port/cache"
	"github.com/rostralabs/rostra/internal/port/database"
)

// sessionKeyPrefix namespaces session entries in the lookup cache.
const sessionKeyPrefix = "session:"

// AuthService handles registration, login, and opaque session resolution.
// It implements identity.Resolver: the session ID issued at login is the
// credential later presented during the realtime handshake.
type AuthService struct {
	store      database.Store
	cache      cache.Cache
	cfg        config.Auth
	sessionTTL time.Duration
}

// NewAuthService creates a new authentication service. sessionTTL bounds how
// long resolved sessions stay in the cache; the store remains authoritative.
func NewAuthService(store database.Store, c cache.Cache, cfg config.Auth, sessionTTL time.Duration) *AuthService {
	return &AuthService{store: store, cache: c, cfg: cfg, sessionTTL: sessionTTL}
}

// Register creates a new user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, req *user.CreateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         user.RoleOwner,
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login authenticates a user and issues an opaque session.
func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest) (*user.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	u, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errors.New("invalid credentials")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	sess := &user.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: time.Now().Add(s.cfg.SessionExpiry),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &user.LoginResponse{
		SessionID: sess.ID,
		ExpiresIn: int(s.cfg.SessionExpiry.Seconds()),
		User:      *u,
	}, nil
}

// Logout deletes the session; a missing session is treated as already out.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, sessionKeyPrefix+sessionID); err != nil {
		slog.Warn("session cache delete failed", "error", err)
	}
	if err := s.store.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Resolve maps an opaque session credential to a user ID. It serves the
// realtime handshake and REST session auth: cache hit first, then the
// sessions table. Unknown or expired credentials resolve to
// domain.ErrInvalidSession.
func (s *AuthService) Resolve(ctx context.Context, credential string) (string, error) {
	if uuid.Validate(credential) != nil {
		return "", domain.ErrInvalidSession
	}

	key := sessionKeyPrefix + credential
	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return string(data), nil
	}

	sess, err := s.store.GetSession(ctx, credential)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrInvalidSession
		}
		return "", fmt.Errorf("resolve session: %w", err)
	}
	if sess.Expired(time.Now()) {
		return "", domain.ErrInvalidSession
	}

	ttl := s.sessionTTL
	if remaining := time.Until(sess.ExpiresAt); remaining < ttl {
		ttl = remaining
	}
	if err := s.cache.Set(ctx, key, []byte(sess.UserID), ttl); err != nil {
		slog.Warn("session cache set failed", "error", err)
	}
	return sess.UserID, nil
}

// User returns the user behind an authenticated request.
func (s *AuthService) User(ctx context.Context, id string) (*user.User, error) {
	return s.store.GetUser(ctx, id)
}

// RunSessionSweeper periodically deletes expired sessions until ctx is
// canceled. Intended to run in its own goroutine.
func (s *AuthService) RunSessionSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.DeleteExpiredSessions(ctx)
			if err != nil {
				slog.Error("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired sessions removed", "count", n)
			}
		}
	}
}
