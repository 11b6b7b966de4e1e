package token

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	pkgerrors "github.com/pkg/errors"
)

var (
	// errors; all three require the user to go through the OAuth consent
	// flow again before syncing can resume.
	ErrNoToken        = errors.New("no provider token stored for user")
	ErrNoRefreshToken = errors.New("provider token expired and no refresh token stored")
	ErrRefreshFailed  = errors.New("provider token refresh failed")
)

// IsAuthError reports whether err means the user must re-authenticate with
// the classroom provider. Terminal for a whole sync run.
func IsAuthError(err error) bool {
	switch pkgerrors.Cause(err) {
	case ErrNoToken, ErrNoRefreshToken, ErrRefreshFailed:
		return true
	}
	return false
}

// Token is the stored OAuth token record for one user.
// Created by the OAuth consent callback (outside this package), mutated on
// every refresh, never deleted by the sync engine.
type Token struct {
	UserID               string      `json:"user_id"`
	AccessToken          string      `json:"-"`
	RefreshToken         null.String `json:"-"`
	AccessTokenExpiresAt null.Time   `json:"access_token_expires_at"`
	CreatedAt            time.Time   `json:"created_at"` // UTC
	UpdatedAt            time.Time   `json:"updated_at"` // UTC
}

type Repository interface {
	// GetTokenByUserID returns ErrNoToken if the user never authenticated.
	GetTokenByUserID(ctx context.Context, userID string) (Token, error)
	// SaveToken upserts the record keyed by user id.
	SaveToken(ctx context.Context, tok Token) (Token, error)
	DeleteTokenByUserID(ctx context.Context, userID string) error
}
