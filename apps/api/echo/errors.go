package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/token"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")
)

type fieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type errorResponse struct {
	Detail interface{}  `json:"detail,omitempty"`
	Code   string       `json:"code,omitempty"`
	Fields []fieldError `json:"fields,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var body errorResponse

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				body = errorResponse{Detail: errUnauthorized.Message}
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			body = errorResponse{Detail: origErr.Message}
		case *core.ValidationError:
			code = http.StatusBadRequest
			body = errorResponse{Detail: origErr.Error(), Code: "invalid"}
			for _, fe := range origErr.Fields {
				body.Fields = append(body.Fields, fieldError{Field: fe.Field, Error: fe.Error})
			}
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			body = errorResponse{Code: "invalid"}
			for _, fe := range origErr {
				body.Fields = append(body.Fields, fieldError{Field: fe.Field(), Error: fe.Translate(translator)})
			}
		default:
			if token.IsAuthError(err) {
				// the stored provider token is unusable; the caller must
				// run the OAuth consent flow again
				code = http.StatusUnauthorized
				body = errorResponse{Detail: "re-authentication required", Code: "reauth_required"}
				break
			}
			code = http.StatusInternalServerError
			body = errorResponse{Detail: http.StatusText(code)}
			logger.Error(err.Error(), err)
		}

		if !ctx.Response().Committed {
			_ = ctx.JSON(code, body)
		}
	}
}
