package tenant

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Tenant is one isolated school on the platform. Every piece of
// tenant-owned data hangs off Tenant.ID; Slug is what appears in the
// subdomain (acme.darasa.app).
type Tenant struct {
	ID           string    `json:"id" db:"id"`
	Slug         string    `json:"slug" db:"slug"`
	Name         string    `json:"name" db:"name"`
	ContactEmail string    `json:"contact_email" db:"contact_email"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewTenant contains information needed to create a new Tenant.
type NewTenant struct {
	Name         string `json:"name" validate:"required"`
	Slug         string `json:"slug" validate:"required,slug"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
}

func (nt *NewTenant) Validate(validate *validator.Validate, svc *Service) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Slug = core.CleanString(nt.Slug, true /* lower */)
	nt.ContactEmail = core.CleanString(nt.ContactEmail, true /* lower */)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	return svc.checkSlugUniqueness(nt.Slug)
}

// UpdateTenant defines what information may be provided to modify an existing Tenant.
type UpdateTenant struct {
	Name         string `json:"name"`
	Slug         string `json:"slug" validate:"omitempty,slug"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	IsActive     *bool  `json:"is_active"`
}

func (ut *UpdateTenant) Validate(origTnt Tenant, validate *validator.Validate, svc *Service) error {
	name := core.CleanString(ut.Name)
	if name != "" {
		ut.Name = name
	} else {
		ut.Name = origTnt.Name
	}

	slug := core.CleanString(ut.Slug, true /* lower */)
	if slug != "" {
		ut.Slug = slug
	} else {
		ut.Slug = origTnt.Slug
	}

	email := core.CleanString(ut.ContactEmail, true /* lower */)
	if email != "" {
		ut.ContactEmail = email
	} else {
		ut.ContactEmail = origTnt.ContactEmail
	}

	if err := validate.Struct(ut); err != nil {
		return err
	}
	return svc.checkSlugUniqueness(ut.Slug, origTnt)
}

// QueryFilter narrows tenant listings. Fields are ANDed.
type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
