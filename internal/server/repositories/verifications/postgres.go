package verifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// tokenConstraint is the unique constraint name from the migrations.
const tokenConstraint = "email_verifications_token_key"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, v *models.EmailVerification) (*models.EmailVerification, error) {
	query :=
		`INSERT INTO email_verifications (user_id, email, token, expires_at, is_used)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, v.UserID, v.Email, v.Token, v.ExpiresAt, v.IsUsed).
		Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, tokenConstraint) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.EmailVerification, error) {
	query :=
		`SELECT v.id, v.user_id, v.email, v.token, v.expires_at, v.is_used, v.created_at,
		        u.id, u.email, u.name, u.password_hash, u.is_email_verified, u.avatar, u.created_at, u.updated_at
		 FROM email_verifications v
		 JOIN users u ON u.id = v.user_id
		 WHERE v.token = $1`

	v := &models.EmailVerification{User: &models.User{}}
	dest := append([]any{&v.ID, &v.UserID, &v.Email, &v.Token, &v.ExpiresAt, &v.IsUsed, &v.CreatedAt},
		users.ScanTargets(v.User)...)

	if err := r.db.QueryRowContext(ctx, query, token).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE email_verifications SET is_used = TRUE WHERE id = $1 AND is_used = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}
