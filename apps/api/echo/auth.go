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

type authApi struct {
	svc        *auth.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAuthAPI(g *echo.Group, guard *Guard, svc *auth.Service, validate *validator.Validate, translator ut.Translator) {
	api := authApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/token-refresh", api.refresh)

	// authed endpoints
	ag.POST("/logout", api.logout, guard.Authenticate)
	ag.GET("/me", api.me, guard.Authenticate)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	res, err := api.svc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case auth.ErrInvalidCredentials:
			return core.NewValidationError(errors.New("invalid credentials"))
		case auth.ErrAccountDeactivated:
			return errAcctDeactivated
		}
		return errors.Wrap(err, "authenticating")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{TokenPair: res.TokenPair, Identity: res.Identity})
}

func (api *authApi) refresh(ctx echo.Context) error {
	var data RefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	pair, err := api.svc.Refresh(ctx.Request().Context(), data.RefreshToken)
	if err != nil {
		switch errors.Cause(err) {
		case auth.ErrTokenRevoked:
			return errTokenRevoked
		case auth.ErrInvalidRefreshToken:
			return errInvalidRefresh
		case auth.ErrAccountDeactivated:
			return errAcctDeactivated
		}
		return errors.Wrap(err, "refreshing token")
	}

	return ctx.JSON(http.StatusOK, pair)
}

func (api *authApi) logout(ctx echo.Context) error {
	identity, err := GetContextIdentity(ctx)
	if err != nil {
		return errNoToken
	}

	var data LogoutRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LogoutRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	if err := api.svc.Logout(ctx.Request().Context(), identity.ID, data.RefreshToken); err != nil {
		if errors.Cause(err) == auth.ErrInvalidRefreshToken {
			return errInvalidRefresh
		}
		return errors.Wrap(err, "logging out")
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) me(ctx echo.Context) error {
	identity, err := GetContextIdentity(ctx)
	if err != nil {
		return errNoToken
	}
	return ctx.JSON(http.StatusOK, identity)
}
