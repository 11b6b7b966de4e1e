package token

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/darasahq/darasa/core"
)

var nowFunc = time.Now // mockable

// Manager owns the OAuth access/refresh token lifecycle per user.
// Refresh-and-persist is serialized per user: overlapping sync triggers for
// the same user share a single refresh instead of racing to overwrite the
// stored record.
type Manager struct {
	repo         Repository
	oauth        *oauth2.Config
	expiryMargin time.Duration
	log          core.Logger

	group singleflight.Group // keyed by user id
}

func NewManager(repo Repository, conf *core.Config, log core.Logger) *Manager {
	return &Manager{
		repo: repo,
		oauth: &oauth2.Config{
			ClientID:     conf.Classroom.ClientID,
			ClientSecret: conf.Classroom.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: conf.Classroom.TokenURL},
		},
		expiryMargin: conf.Classroom.TokenExpiryMargin,
		log:          log,
	}
}

// GetValidAccessToken returns an access token guaranteed to outlive the
// expiry margin, refreshing and persisting first when needed.
func (m *Manager) GetValidAccessToken(ctx context.Context, userID string) (string, error) {
	accessToken, err, _ := m.group.Do(userID, func() (interface{}, error) {
		return m.getValidAccessToken(ctx, userID)
	})
	if err != nil {
		return "", err
	}
	return accessToken.(string), nil
}

func (m *Manager) getValidAccessToken(ctx context.Context, userID string) (string, error) {
	tok, err := m.repo.GetTokenByUserID(ctx, userID)
	if err != nil {
		return "", errors.Wrap(err, "getting stored token")
	}
	if m.isValid(tok) {
		return tok.AccessToken, nil
	}
	if !tok.RefreshToken.Valid || tok.RefreshToken.String == "" {
		return "", ErrNoRefreshToken
	}

	newTok, err := m.refresh(ctx, tok.RefreshToken.String)
	if err != nil {
		m.log.Warn("provider token refresh failed for user "+userID, err)
		return "", ErrRefreshFailed
	}

	tok.AccessToken = newTok.AccessToken
	if newTok.RefreshToken != "" { // provider may rotate it
		tok.RefreshToken = null.StringFrom(newTok.RefreshToken)
	}
	tok.AccessTokenExpiresAt = null.NewTime(newTok.Expiry.UTC(), !newTok.Expiry.IsZero())
	tok.UpdatedAt = nowFunc().UTC()

	if _, err = m.repo.SaveToken(ctx, tok); err != nil {
		return "", errors.Wrap(err, "persisting refreshed token")
	}
	return tok.AccessToken, nil
}

// isValid reports whether the stored access token outlives the expiry margin.
// An absent expiry is treated as already expired.
func (m *Manager) isValid(tok Token) bool {
	if tok.AccessToken == "" || !tok.AccessTokenExpiresAt.Valid {
		return false
	}
	return tok.AccessTokenExpiresAt.Time.After(nowFunc().Add(m.expiryMargin))
}

func (m *Manager) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := m.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return src.Token() // one round trip to the provider's token endpoint
}
