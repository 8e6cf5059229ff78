// Package verifications persists single-use email verification tokens.
package verifications

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the verification token store.
//
// FindByToken joins the owning user and returns common.ErrorNotFound on a
// miss. MarkUsed flips is_used only while it is still false and reports
// whether this call performed the flip.
type Repository interface {
	Create(ctx context.Context, v *models.EmailVerification) (*models.EmailVerification, error)
	FindByToken(ctx context.Context, token string) (*models.EmailVerification, error)
	MarkUsed(ctx context.Context, id string) (bool, error)
}
