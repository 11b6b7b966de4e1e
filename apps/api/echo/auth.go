package echoapi

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
)

const contextTokenKey = "userToken"

var errNoClaimsInCtx = errors.New("user claims not found in echo.Context")

// Claims represents the authorization claims transmitted via a JWT.
// Subject carries the dashboard user id; issuance happens in the
// authentication provider, outside this service.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

func newAppJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// getContextClaims returns the authenticated user's claims.
func getContextClaims(ctx echo.Context) (*Claims, error) {
	if tok, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := tok.Claims.(*Claims); ok {
			return claims, nil
		}
	}
	return nil, errNoClaimsInCtx
}
