package echoapi

import (
	"github.com/go-playground/validator/v10"
)

type ImpersonationRequest struct {
	TenantID string `json:"tenant_id" validate:"required,uuid4"`
}

func (r *ImpersonationRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

type OnboardingRequest struct {
	TenantSlug string `json:"tenant_slug" validate:"required,slug"`
	Role       string `json:"role" validate:"omitempty"`
}

func (r *OnboardingRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}
