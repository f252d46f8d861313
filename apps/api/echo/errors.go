package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa/platform/core"
	"github.com/darasa/platform/core/auth"
)

// Machine-readable failure codes exposed to clients.
const (
	CodeNoTokenProvided         = "NO_TOKEN_PROVIDED"
	CodeInvalidToken            = "INVALID_TOKEN"
	CodeTokenExpired            = "TOKEN_EXPIRED"
	CodeInsufficientRole        = "INSUFFICIENT_ROLE"
	CodeCrossTenantAccessDenied = "CROSS_TENANT_ACCESS_DENIED"
	CodeInvalidRefreshToken     = "INVALID_REFRESH_TOKEN"
	CodeTokenRevoked            = "TOKEN_REVOKED"
)

func newAPIError(status int, code, msg string) *echo.HTTPError {
	return echo.NewHTTPError(status, echo.Map{"code": code, "error": msg})
}

var (
	errNoToken         = newAPIError(http.StatusUnauthorized, CodeNoTokenProvided, "authentication credentials were not provided")
	errInvalidToken    = newAPIError(http.StatusUnauthorized, CodeInvalidToken, "invalid token")
	errTokenExpired    = newAPIError(http.StatusUnauthorized, CodeTokenExpired, "token has expired")
	errForbiddenRole   = newAPIError(http.StatusForbidden, CodeInsufficientRole, "permission denied")
	errCrossTenant     = newAPIError(http.StatusForbidden, CodeCrossTenantAccessDenied, "access to this tenant is denied")
	errInvalidRefresh  = newAPIError(http.StatusUnauthorized, CodeInvalidRefreshToken, "invalid refresh token")
	errTokenRevoked    = newAPIError(http.StatusUnauthorized, CodeTokenRevoked, "token has been revoked")
	errAcctDeactivated = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
)

// newAppHTTPErrorHandler returns an echo.HTTPErrorHandler that knows how to
// handle our errors. signalShutdown is called to gracefully stop the server
// whenever a core shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			args := []interface{}{errors.Wrap(err, msg), "path=" + ctx.Path()}
			if identity, idErr := GetContextIdentity(ctx); idErr == nil {
				args = append(args, identity)
			}
			logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// authFailureError maps token verification failures to API errors.
func authFailureError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return errTokenExpired
	default:
		return errInvalidToken
	}
}
