package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/mail"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// DefaultVerificationTTL is how long a verification link stays valid.
const DefaultVerificationTTL = 24 * time.Hour

// VerificationService issues single-use email verification tokens and
// redeems them.
type VerificationService struct {
	repos       repomanager.RepositoryManager
	tokens      TokenGenerator
	mailer      mail.Sender
	frontendURL string
	ttl         time.Duration
	now         func() time.Time
	logger      logging.Logger
}

func NewVerificationService(
	repos repomanager.RepositoryManager,
	tokens TokenGenerator,
	mailer mail.Sender,
	frontendURL string,
	ttl time.Duration,
	logger logging.Logger,
) *VerificationService {
	if ttl <= 0 {
		ttl = DefaultVerificationTTL
	}
	return &VerificationService{
		repos:       repos,
		tokens:      tokens,
		mailer:      mailer,
		frontendURL: frontendURL,
		ttl:         ttl,
		now:         time.Now,
		logger:      logger.With("module", "verification"),
	}
}

// Issue stores a new token for user and queues the verification email.
// Delivery failures are logged; the stored token remains redeemable.
func (s *VerificationService) Issue(ctx context.Context, user *models.User) (*models.EmailVerification, error) {
	var issued *models.EmailVerification
	err := withFreshToken(s.tokens, func(token string) error {
		v, err := s.repos.Verifications().Create(ctx, &models.EmailVerification{
			UserID:    user.ID,
			Email:     user.Email,
			Token:     token,
			ExpiresAt: s.now().Add(s.ttl),
		})
		if err == nil {
			issued = v
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	msg, err := mail.VerificationMessage(user.Email, user.Name, mail.VerificationLink(s.frontendURL, issued.Token), s.ttl)
	if err != nil {
		s.logger.Error(ctx, "verification email not rendered", "user_id", user.ID, "error", err)
		return issued, nil
	}
	if err := s.mailer.Send(context.WithoutCancel(ctx), msg); err != nil {
		s.logger.Warn(ctx, "verification email not queued", "user_id", user.ID, "error", err)
	}
	return issued, nil
}

// Redeem consumes token and marks its owner's email verified. The flip of
// the token and the user update commit together; when two callers race on
// the same token exactly one succeeds and the other gets
// common.ErrVerificationTokenUsed.
func (s *VerificationService) Redeem(ctx context.Context, token string) error {
	if token == "" {
		return common.ErrVerificationTokenInvalid
	}

	v, err := s.repos.Verifications().FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrVerificationTokenInvalid
		}
		return internalError("find verification", err)
	}
	if v.IsUsed {
		return common.ErrVerificationTokenUsed
	}
	if v.Expired(s.now()) {
		return common.ErrVerificationTokenExpired
	}

	err = s.repos.WithTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		flipped, err := tx.Verifications().MarkUsed(ctx, v.ID)
		if err != nil {
			return internalError("mark verification used", err)
		}
		if !flipped {
			return common.ErrVerificationTokenUsed
		}
		if err := tx.Users().MarkEmailVerified(ctx, v.UserID); err != nil {
			return internalError("mark email verified", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "email verified", "user_id", v.UserID)
	return nil
}
