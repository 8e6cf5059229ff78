// Package sessions persists opaque bearer sessions.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the session store. FindByToken joins the owning user and
// returns common.ErrorNotFound on a miss. Create returns common.ErrorConflict
// when the token is already taken.
type Repository interface {
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
