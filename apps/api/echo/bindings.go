package echoapi

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/darasa/platform/core"
	"github.com/darasa/platform/core/auth"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	RefreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	LogoutRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	LoginResponse struct {
		auth.TokenPair
		Identity auth.Identity `json:"identity"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (r *LoginRequest) Validate(validate *validator.Validate, _ ut.Translator) error {
	r.Username = core.CleanString(r.Username, true /* lower */)
	return validate.Struct(r)
}

func (r *RefreshRequest) Validate(validate *validator.Validate, _ ut.Translator) error {
	r.RefreshToken = core.CleanString(r.RefreshToken)
	return validate.Struct(r)
}

func (r *LogoutRequest) Validate(validate *validator.Validate, _ ut.Translator) error {
	r.RefreshToken = core.CleanString(r.RefreshToken)
	return validate.Struct(r)
}
