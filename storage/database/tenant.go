package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/tenant"
)

type tenantRepository struct {
	db *sqlx.DB
}

var _ tenant.Repository = (*tenantRepository)(nil)

func NewTenantRepository(db *sqlx.DB) *tenantRepository {
	return &tenantRepository{db: db}
}

func (repo tenantRepository) CheckSlugUniqueness(ctx context.Context, slug string, excludedTenants ...tenant.Tenant) error {
	query := `SELECT count(*) FROM tenant WHERE slug = $1`
	args := []interface{}{slug}
	if len(excludedTenants) > 0 {
		ids := make([]string, 0, len(excludedTenants))
		for _, tnt := range excludedTenants {
			ids = append(ids, tnt.ID)
		}
		q, inArgs, err := sqlx.In(`SELECT count(*) FROM tenant WHERE slug = ? AND id NOT IN (?)`, slug, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		query = repo.db.Rebind(q)
		args = inArgs
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if count > 0 {
		return tenant.ErrSlugExists
	}
	return nil
}

func (repo tenantRepository) CreateTenant(ctx context.Context, tnt tenant.Tenant) (tenant.Tenant, error) {
	query := `
INSERT INTO tenant (id, slug, name, contact_email, is_active, created_at, updated_at)
VALUES (:id, :slug, :name, :contact_email, :is_active, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, tnt); err != nil {
		return tenant.Tenant{}, errors.Wrap(err, "creating tenant")
	}
	return tnt, nil
}

func (repo tenantRepository) QueryAllTenants(ctx context.Context) ([]tenant.Tenant, error) {
	tenants := make([]tenant.Tenant, 0)
	if err := repo.db.SelectContext(ctx, &tenants, `SELECT * FROM tenant ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying tenants")
	}
	return tenants, nil
}

func (repo tenantRepository) GetTenantByID(ctx context.Context, id string) (tenant.Tenant, error) {
	var tnt tenant.Tenant
	if err := repo.db.GetContext(ctx, &tnt, `SELECT * FROM tenant WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tenant.Tenant{}, tenant.ErrNotFound
		}
		return tenant.Tenant{}, errors.Wrap(err, "getting tenant by id")
	}
	return tnt, nil
}

func (repo tenantRepository) GetTenantBySlug(ctx context.Context, slug string) (tenant.Tenant, error) {
	var tnt tenant.Tenant
	if err := repo.db.GetContext(ctx, &tnt, `SELECT * FROM tenant WHERE slug = $1`, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tenant.Tenant{}, tenant.ErrNotFound
		}
		return tenant.Tenant{}, errors.Wrap(err, "getting tenant by slug")
	}
	return tnt, nil
}

func (repo tenantRepository) FilterTenants(ctx context.Context, filter tenant.QueryFilter) ([]tenant.Tenant, error) {
	filter.Clean()
	if filter.IsEmpty() {
		return repo.QueryAllTenants(ctx)
	}

	clauses := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		clauses = append(clauses, `(lower(name) LIKE $1 OR lower(slug) LIKE $1)`)
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		if len(args) == 1 {
			clauses = append(clauses, `is_active = $1`)
		} else {
			clauses = append(clauses, `is_active = $2`)
		}
	}

	query := `SELECT * FROM tenant WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY created_at`
	tenants := make([]tenant.Tenant, 0)
	if err := repo.db.SelectContext(ctx, &tenants, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering tenants")
	}
	return tenants, nil
}

func (repo tenantRepository) UpdateTenant(ctx context.Context, tnt tenant.Tenant, isActive *bool) (tenant.Tenant, error) {
	query := `
UPDATE tenant
SET slug = :slug, name = :name, contact_email = :contact_email, updated_at = :updated_at
WHERE id = :id`
	if isActive != nil {
		tnt.IsActive = *isActive
		query = `
UPDATE tenant
SET slug = :slug, name = :name, contact_email = :contact_email, is_active = :is_active, updated_at = :updated_at
WHERE id = :id`
	}
	res, err := repo.db.NamedExecContext(ctx, query, tnt)
	if err != nil {
		return tenant.Tenant{}, errors.Wrap(err, "updating tenant")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tenant.Tenant{}, tenant.ErrNotFound
	}
	return repo.GetTenantByID(ctx, tnt.ID)
}

func (repo tenantRepository) DeleteTenantsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM tenant WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting tenants")
	}
	return nil
}
