package inmemdb

import (
	"context"
	"time"

	"github.com/darasahq/darasa/core/token"
)

type tokenRepository struct {
	db *DB
}

var _ token.Repository = (*tokenRepository)(nil)

func NewTokenRepository(db *DB) *tokenRepository {
	return &tokenRepository{db: db}
}

func (repo *tokenRepository) GetTokenByUserID(ctx context.Context, userID string) (token.Token, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tok, ok := repo.db.tokens[userID]; ok {
		return *tok, nil
	}
	return token.Token{}, token.ErrNoToken
}

func (repo *tokenRepository) SaveToken(ctx context.Context, tok token.Token) (token.Token, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	if existing, ok := repo.db.tokens[tok.UserID]; ok {
		tok.CreatedAt = existing.CreatedAt
	} else {
		tok.CreatedAt = now
	}
	tok.UpdatedAt = now
	repo.db.tokens[tok.UserID] = &tok
	return tok, nil
}

func (repo *tokenRepository) DeleteTokenByUserID(ctx context.Context, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.tokens, userID)
	return nil
}
