package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/syncer"
	"github.com/darasahq/darasa/core/token"
)

type syncApi struct {
	svc       SyncService
	tokenRepo token.Repository
	emailSvc  core.EmailService
	conf      *core.Config
	logger    core.Logger

	// last completed run per user; in memory only, results are not persisted
	mu          sync.RWMutex
	lastResults map[string]syncer.FullSyncResult
}

func registerSyncAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := &syncApi{
		svc:         opts.SyncSvc,
		tokenRepo:   opts.TokenRepo,
		emailSvc:    opts.EmailSvc,
		conf:        opts.Conf,
		logger:      opts.Logger,
		lastResults: make(map[string]syncer.FullSyncResult),
	}

	sg := g.Group("/sync", jwt)
	sg.POST("", api.trigger)
	sg.GET("/status", api.status)
	sg.DELETE("/token", api.disconnect)
}

// trigger runs a full mirror sync for the authenticated user. Partial
// failures still return 200 with the per-stage results; only an unusable
// provider token turns the whole run into an error.
func (api *syncApi) trigger(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	res, err := api.svc.FullSyncForUser(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if token.IsAuthError(err) && claims.Email != "" {
			api.sendReauthEmail(claims.Username, claims.Email)
		}
		return err
	}

	api.mu.Lock()
	api.lastResults[claims.Subject] = res
	api.mu.Unlock()

	return ctx.JSON(http.StatusOK, res)
}

// status returns the result of the user's last completed sync in this
// process, if any.
func (api *syncApi) status(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	api.mu.RLock()
	res, ok := api.lastResults[claims.Subject]
	api.mu.RUnlock()
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, res)
}

// disconnect deletes the user's stored provider token. Syncing stays off
// until they run the OAuth consent flow again.
func (api *syncApi) disconnect(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.tokenRepo.DeleteTokenByUserID(ctx.Request().Context(), claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *syncApi) sendReauthEmail(name, email string) {
	api.emailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: name, Address: email}},
		Subject: "Reconnect your classroom account",
		BodyStr: fmt.Sprintf(
			"We could no longer access your classroom data. Please reconnect your account at %s to resume syncing.",
			api.conf.FrontendBaseURL,
		),
	})
}
