package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// tokenConstraint is the unique constraint name from the migrations.
const tokenConstraint = "sessions_token_key"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	query :=
		`INSERT INTO sessions (user_id, token, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, session.UserID, session.Token, session.ExpiresAt).
		Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, tokenConstraint) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return session, nil
}

func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	query :=
		`SELECT s.id, s.user_id, s.token, s.expires_at, s.created_at,
		        u.id, u.email, u.name, u.password_hash, u.is_email_verified, u.avatar, u.created_at, u.updated_at
		 FROM sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.token = $1`

	s := &models.Session{User: &models.User{}}
	dest := append([]any{&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt}, users.ScanTargets(s.User)...)

	if err := r.db.QueryRowContext(ctx, query, token).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	return r.delete(ctx, `DELETE FROM sessions WHERE token = $1`, token)
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.delete(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
}

func (r *PostgresRepository) delete(ctx context.Context, query string, arg any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
