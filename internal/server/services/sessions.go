package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// DefaultSessionTTL is the lifetime of a new session.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionService issues, resolves and revokes opaque bearer sessions.
type SessionService struct {
	repos  repomanager.RepositoryManager
	tokens TokenGenerator
	ttl    time.Duration
	now    func() time.Time
	logger logging.Logger
}

func NewSessionService(repos repomanager.RepositoryManager, tokens TokenGenerator, ttl time.Duration, logger logging.Logger) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		repos:  repos,
		tokens: tokens,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With("module", "sessions"),
	}
}

// Create stores a new session for userID and returns its token.
func (s *SessionService) Create(ctx context.Context, userID string) (string, error) {
	var token string
	err := withFreshToken(s.tokens, func(candidate string) error {
		_, err := s.repos.Sessions().Create(ctx, &models.Session{
			UserID:    userID,
			Token:     candidate,
			ExpiresAt: s.now().Add(s.ttl),
		})
		if err == nil {
			token = candidate
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Validate resolves token to its user. Unknown and expired tokens yield
// (nil, nil); an error means the store could not be consulted.
func (s *SessionService) Validate(ctx context.Context, token string) (*models.PublicUser, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.repos.Sessions().FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, internalError("find session", err)
	}

	if session.Expired(s.now()) {
		return nil, nil
	}
	return session.User.Public(), nil
}

// Revoke deletes the session with token. Unknown tokens are not an error.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := s.repos.Sessions().DeleteByToken(ctx, token); err != nil {
		return internalError("delete session", err)
	}
	return nil
}

// PurgeExpired removes sessions past their expiry and returns how many were
// deleted.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repos.Sessions().DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, internalError("purge sessions", err)
	}
	if n > 0 {
		s.logger.Info(ctx, "expired sessions purged", "count", n)
	}
	return n, nil
}
