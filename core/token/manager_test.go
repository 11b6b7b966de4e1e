package token

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
)

func errCause(err error) error { return pkgerrors.Cause(err) }

func testLogger() *log.Logger { return log.New(ioutil.Discard, "", 0) }

type fakeRepo struct {
	mu     sync.Mutex
	tokens map[string]Token
	saves  int
}

func newFakeRepo(toks ...Token) *fakeRepo {
	repo := &fakeRepo{tokens: make(map[string]Token)}
	for _, tok := range toks {
		repo.tokens[tok.UserID] = tok
	}
	return repo
}

func (r *fakeRepo) GetTokenByUserID(_ context.Context, userID string) (Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tok, ok := r.tokens[userID]; ok {
		return tok, nil
	}
	return Token{}, ErrNoToken
}

func (r *fakeRepo) SaveToken(_ context.Context, tok Token) (Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.tokens[tok.UserID] = tok
	return tok, nil
}

func (r *fakeRepo) DeleteTokenByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, userID)
	return nil
}

// newTokenEndpoint serves the provider's token endpoint and counts refresh calls.
func newTokenEndpoint(calls *int, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "new-access-token",
			"refresh_token": "new-refresh-token",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
}

func newTestManager(repo Repository, tokenURL string) *Manager {
	conf := new(core.Config)
	conf.Classroom.ClientID = "client-id"
	conf.Classroom.ClientSecret = "client-secret"
	conf.Classroom.TokenURL = tokenURL
	conf.Classroom.TokenExpiryMargin = 5 * time.Minute
	return NewManager(repo, conf, core.NewStdLogger(testLogger()))
}

func TestManager_GetValidAccessToken(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("no stored token", func(t *testing.T) {
		var calls int
		srv := newTokenEndpoint(&calls, http.StatusOK)
		defer srv.Close()

		mgr := newTestManager(newFakeRepo(), srv.URL)
		_, err := mgr.GetValidAccessToken(ctx, "u1")
		assert.Equal(t, ErrNoToken, errCause(err))
		assert.True(t, IsAuthError(err))
		assert.Equal(t, 0, calls)
	})

	t.Run("valid token is returned as-is", func(t *testing.T) {
		var calls int
		srv := newTokenEndpoint(&calls, http.StatusOK)
		defer srv.Close()

		repo := newFakeRepo(Token{
			UserID:               "u1",
			AccessToken:          "stored-access-token",
			RefreshToken:         null.StringFrom("stored-refresh-token"),
			AccessTokenExpiresAt: null.TimeFrom(now.Add(time.Hour)),
		})
		mgr := newTestManager(repo, srv.URL)

		got, err := mgr.GetValidAccessToken(ctx, "u1")
		assert.NoError(t, err)
		assert.Equal(t, "stored-access-token", got)
		assert.Equal(t, 0, calls)
		assert.Equal(t, 0, repo.saves)
	})

	t.Run("token within expiry margin is refreshed once and persisted", func(t *testing.T) {
		var calls int
		srv := newTokenEndpoint(&calls, http.StatusOK)
		defer srv.Close()

		repo := newFakeRepo(Token{
			UserID:               "u1",
			AccessToken:          "stored-access-token",
			RefreshToken:         null.StringFrom("stored-refresh-token"),
			AccessTokenExpiresAt: null.TimeFrom(now.Add(2 * time.Minute)), // inside the 5min margin
		})
		mgr := newTestManager(repo, srv.URL)

		got, err := mgr.GetValidAccessToken(ctx, "u1")
		assert.NoError(t, err)
		assert.Equal(t, "new-access-token", got)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, repo.saves)

		saved, _ := repo.GetTokenByUserID(ctx, "u1")
		assert.Equal(t, "new-access-token", saved.AccessToken)
		assert.Equal(t, "new-refresh-token", saved.RefreshToken.String)
		assert.True(t, saved.AccessTokenExpiresAt.Valid)
		assert.True(t, saved.AccessTokenExpiresAt.Time.After(now.Add(5*time.Minute)))
	})

	t.Run("absent expiry is treated as expired", func(t *testing.T) {
		var calls int
		srv := newTokenEndpoint(&calls, http.StatusOK)
		defer srv.Close()

		repo := newFakeRepo(Token{
			UserID:       "u1",
			AccessToken:  "stored-access-token",
			RefreshToken: null.StringFrom("stored-refresh-token"),
		})
		mgr := newTestManager(repo, srv.URL)

		got, err := mgr.GetValidAccessToken(ctx, "u1")
		assert.NoError(t, err)
		assert.Equal(t, "new-access-token", got)
		assert.Equal(t, 1, calls)
	})

	t.Run("expired token without refresh token fails before any network call", func(t *testing.T) {
		var calls int
		srv := newTokenEndpoint(&calls, http.StatusOK)
		defer srv.Close()

		repo := newFakeRepo(Token{
			UserID:               "u1",
			AccessToken:          "stored-access-token",
			AccessTokenExpiresAt: null.TimeFrom(now.Add(-time.Hour)),
		})
		mgr := newTestManager(repo, srv.URL)

		_, err := mgr.GetValidAccessToken(ctx, "u1")
		assert.Equal(t, ErrNoRefreshToken, errCause(err))
		assert.True(t, IsAuthError(err))
		assert.Equal(t, 0, calls)
		assert.Equal(t, 0, repo.saves)
	})

	t.Run("provider rejection maps to ErrRefreshFailed", func(t *testing.T) {
		var calls int
		srv := newTokenEndpoint(&calls, http.StatusBadRequest)
		defer srv.Close()

		repo := newFakeRepo(Token{
			UserID:               "u1",
			AccessToken:          "stored-access-token",
			RefreshToken:         null.StringFrom("revoked-refresh-token"),
			AccessTokenExpiresAt: null.TimeFrom(now.Add(-time.Hour)),
		})
		mgr := newTestManager(repo, srv.URL)

		_, err := mgr.GetValidAccessToken(ctx, "u1")
		assert.Equal(t, ErrRefreshFailed, errCause(err))
		assert.True(t, IsAuthError(err))
		assert.Equal(t, 1, calls)
		assert.Equal(t, 0, repo.saves)
	})
}
