package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/token"
)

type tokenRepository struct {
	exec core.DBExecutor
}

var _ token.Repository = (*tokenRepository)(nil) // interface compliance check

func NewTokenRepository(exec core.DBExecutor) *tokenRepository {
	return &tokenRepository{exec: exec}
}

type tokenRow struct {
	UserID               string      `db:"user_id"`
	AccessToken          string      `db:"access_token"`
	RefreshToken         null.String `db:"refresh_token"`
	AccessTokenExpiresAt null.Time   `db:"access_token_expires_at"`
	CreatedAt            time.Time   `db:"created_at"`
	UpdatedAt            time.Time   `db:"updated_at"`
}

func (r tokenRow) token() token.Token {
	return token.Token{
		UserID:               r.UserID,
		AccessToken:          r.AccessToken,
		RefreshToken:         r.RefreshToken,
		AccessTokenExpiresAt: r.AccessTokenExpiresAt,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func (repo tokenRepository) GetTokenByUserID(ctx context.Context, userID string) (token.Token, error) {
	var row tokenRow
	err := repo.exec.GetContext(ctx, &row, `SELECT * FROM provider_token WHERE user_id = $1`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return token.Token{}, token.ErrNoToken
		}
		return token.Token{}, errors.Wrap(err, "getting provider token")
	}
	return row.token(), nil
}

const saveTokenSQL = `
INSERT INTO provider_token (user_id, access_token, refresh_token, access_token_expires_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (user_id) DO UPDATE SET
	access_token = EXCLUDED.access_token,
	refresh_token = EXCLUDED.refresh_token,
	access_token_expires_at = EXCLUDED.access_token_expires_at,
	updated_at = EXCLUDED.updated_at
RETURNING user_id, access_token, refresh_token, access_token_expires_at, created_at, updated_at`

func (repo tokenRepository) SaveToken(ctx context.Context, tok token.Token) (token.Token, error) {
	var row tokenRow
	err := repo.exec.GetContext(ctx, &row, saveTokenSQL,
		tok.UserID, tok.AccessToken, tok.RefreshToken, tok.AccessTokenExpiresAt, time.Now().UTC())
	if err != nil {
		return token.Token{}, errors.Wrap(err, "saving provider token")
	}
	return row.token(), nil
}

func (repo tokenRepository) DeleteTokenByUserID(ctx context.Context, userID string) error {
	if _, err := repo.exec.ExecContext(ctx, `DELETE FROM provider_token WHERE user_id = $1`, userID); err != nil {
		return errors.Wrap(err, "deleting provider token")
	}
	return nil
}
