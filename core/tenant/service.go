package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound   = errors.New("tenant not found")
	ErrSlugExists = errors.New("a tenant with this slug already exists")
)

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string, excludedTenants ...Tenant) error
		CreateTenant(ctx context.Context, tnt Tenant) (Tenant, error)
		QueryAllTenants(ctx context.Context) ([]Tenant, error)
		GetTenantByID(ctx context.Context, id string) (Tenant, error)
		GetTenantBySlug(ctx context.Context, slug string) (Tenant, error)
		// FilterTenants applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Tenant.Name or Tenant.Slug.
		FilterTenants(ctx context.Context, filter QueryFilter) ([]Tenant, error)
		UpdateTenant(ctx context.Context, tnt Tenant, isActive *bool) (Tenant, error)
		DeleteTenantsByID(ctx context.Context, ids ...string) error
	}

	// SlugCache is a shared, concurrently-read slug→id cache. The
	// resolution pipeline only ever reads it; writes happen here, on
	// tenant mutations.
	SlugCache interface {
		GetID(ctx context.Context, slug string) (string, error) // "" when absent
		SetID(ctx context.Context, slug, id string) error
		Invalidate(ctx context.Context, slugs ...string) error
	}

	Service struct {
		repo  Repository
		cache SlugCache
		log   core.Logger
	}
)

func NewService(repo Repository, cache SlugCache, log core.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

func (svc *Service) checkSlugUniqueness(slug string, exclTenants ...Tenant) error {
	if err := svc.repo.CheckSlugUniqueness(context.Background(), slug, exclTenants...); err != nil {
		if errors.Is(err, ErrSlugExists) {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nt NewTenant) (Tenant, error) {
	now := time.Now().UTC()
	tnt := Tenant{
		ID:           uuid.NewString(),
		Slug:         nt.Slug,
		Name:         nt.Name,
		ContactEmail: nt.ContactEmail,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateTenant(ctx, tnt)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Tenant, error) {
	return svc.repo.QueryAllTenants(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Tenant, error) {
	return svc.repo.GetTenantByID(ctx, id)
}

func (svc *Service) GetBySlug(ctx context.Context, slug string) (Tenant, error) {
	return svc.repo.GetTenantBySlug(ctx, core.CleanString(slug, true /* lower */))
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Tenant, error) {
	return svc.repo.FilterTenants(ctx, filter)
}

// IDBySlug resolves a tenant slug to its id, read-through the shared
// cache. Inactive tenants resolve as not found; the cache only ever
// holds active tenants so deactivation stays effective.
func (svc *Service) IDBySlug(ctx context.Context, slug string) (string, error) {
	slug = core.CleanString(slug, true /* lower */)
	if slug == "" {
		return "", ErrNotFound
	}

	if svc.cache != nil {
		if id, err := svc.cache.GetID(ctx, slug); err != nil {
			// a broken cache must not break resolution
			svc.log.Warn("tenant slug cache read failed", err)
			observeSlugCacheLookup(false)
		} else if id != "" {
			observeSlugCacheLookup(true)
			return id, nil
		} else {
			observeSlugCacheLookup(false)
		}
	}

	tnt, err := svc.repo.GetTenantBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	if !tnt.IsActive {
		return "", ErrNotFound
	}
	if svc.cache != nil {
		if err := svc.cache.SetID(ctx, slug, tnt.ID); err != nil {
			svc.log.Warn("tenant slug cache write failed", err)
		}
	}
	return tnt.ID, nil
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTenant) (Tenant, error) {
	orig, err := svc.repo.GetTenantByID(ctx, id)
	if err != nil {
		return Tenant{}, err
	}

	// partial updates keep the original values
	if ut.Name == "" {
		ut.Name = orig.Name
	}
	if ut.Slug == "" {
		ut.Slug = orig.Slug
	}
	if ut.ContactEmail == "" {
		ut.ContactEmail = orig.ContactEmail
	}

	tnt := Tenant{
		ID:           id,
		Slug:         ut.Slug,
		Name:         ut.Name,
		ContactEmail: ut.ContactEmail,
		UpdatedAt:    time.Now().UTC(),
	}
	updated, err := svc.repo.UpdateTenant(ctx, tnt, ut.IsActive)
	if err != nil {
		return Tenant{}, err
	}

	// a renamed or deactivated tenant must drop out of the cache
	renamed := orig.Slug != updated.Slug
	deactivated := ut.IsActive != nil && !*ut.IsActive
	if svc.cache != nil && (renamed || deactivated) {
		if err := svc.cache.Invalidate(ctx, orig.Slug); err != nil {
			svc.log.Warn("tenant slug cache invalidation failed", err)
		}
	}
	return updated, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	slugs := make([]string, 0, len(ids))
	for _, id := range ids {
		if tnt, err := svc.repo.GetTenantByID(ctx, id); err == nil {
			slugs = append(slugs, tnt.Slug)
		}
	}
	if err := svc.repo.DeleteTenantsByID(ctx, ids...); err != nil {
		return err
	}
	if svc.cache != nil && len(slugs) > 0 {
		if err := svc.cache.Invalidate(ctx, slugs...); err != nil {
			svc.log.Warn("tenant slug cache invalidation failed", err)
		}
	}
	return nil
}
