package access

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/tenant"
)

// Source records where a context's tenant scope came from, for audit
// and debugging.
type Source string

const (
	SourceNone          Source = ""
	SourceImpersonation Source = "impersonation-override"
	SourceHost          Source = "host-header"
	SourceSession       Source = "session-claim"
)

// TenantContext is the authoritative request scope. It is built fresh
// per request by Resolver.Resolve, never cached and never mutated.
type TenantContext struct {
	// TenantID is the effective tenant scope; empty means "no tenant",
	// which is only a valid steady state for operators and unassigned
	// users.
	TenantID      string `json:"tenant_id,omitempty"`
	Role          string `json:"role"`
	Source        Source `json:"source"`
	Authenticated bool   `json:"authenticated"`

	// TenantNotFound marks a host slug that resolved to no known
	// tenant. The gate turns this into a not-found response; it must
	// never fall through to another tenant's data.
	TenantNotFound bool `json:"-"`

	// HomeTenantID is the identity's own tenant, carried for the
	// gate's tenant-match rule. It may differ from TenantID when a
	// session is replayed against another tenant's subdomain.
	HomeTenantID string `json:"-"`
}

// MustTenantID returns the effective tenant id, panicking when a
// tenant-scoped operation is attempted without one by anyone but an
// operator. That panic is deliberate: an unscoped query is a defect in
// the calling code and must fail loudly, never return unscoped data.
func (tc TenantContext) MustTenantID() string {
	if tc.TenantID == "" && tc.Role != auth.RoleOperator {
		panic(core.MissingScopeError{Op: "TenantContext.MustTenantID"})
	}
	return tc.TenantID
}

type (
	// TenantLookup resolves tenant identity; satisfied by *tenant.Service.
	TenantLookup interface {
		IDBySlug(ctx context.Context, slug string) (string, error)
		GetByID(ctx context.Context, id string) (tenant.Tenant, error)
	}

	// ImpersonationStore reports the tenant an operator is currently
	// viewing as, keyed by the operator's user id. Entries are written
	// by operator-only administrative action, never by resolution.
	ImpersonationStore interface {
		Impersonation(ctx context.Context, userID string) (string, error) // "" when none
	}

	// Resolver combines a parsed host, an identity and the optional
	// impersonation override into one TenantContext. Priority:
	// impersonation > host > session claim; each level is
	// all-or-nothing, never blended.
	Resolver struct {
		tenants TenantLookup
		imps    ImpersonationStore
		log     core.Logger
	}
)

func NewResolver(tenants TenantLookup, imps ImpersonationStore, log core.Logger) *Resolver {
	return &Resolver{tenants: tenants, imps: imps, log: log}
}

func (r *Resolver) Resolve(ctx context.Context, host ResolvedHost, idn auth.Identity) (TenantContext, error) {
	tc := TenantContext{
		Role:          idn.Role,
		Authenticated: !idn.IsAnonymous(),
		HomeTenantID:  idn.HomeTenantID,
	}

	// 1. impersonation override: operators only; scope changes, role
	// does not.
	if tc.Authenticated && r.imps != nil {
		impID, err := r.imps.Impersonation(ctx, idn.UserID)
		if err != nil {
			return TenantContext{}, errors.Wrap(err, "reading impersonation store")
		}
		if impID != "" {
			if !idn.IsOperator() {
				// must be ignored, not silently honored
				r.log.Warn("impersonation entry present for non-operator user " + idn.UserID)
			} else if tnt, err := r.tenants.GetByID(ctx, impID); err == nil && tnt.IsActive {
				tc.TenantID = tnt.ID
				tc.Source = SourceImpersonation
				return tc, nil
			} else if err != nil && !errors.Is(err, tenant.ErrNotFound) {
				return TenantContext{}, errors.Wrap(err, "validating impersonated tenant")
			}
			// stale impersonation of a dead tenant falls through
		}
	}

	// 2. host-derived tenant. A mismatch with the identity's home
	// tenant is not resolved here; that is the gate's call.
	if host.TenantSlug != "" {
		id, err := r.tenants.IDBySlug(ctx, host.TenantSlug)
		if err != nil {
			if errors.Is(err, tenant.ErrNotFound) {
				tc.TenantNotFound = true
				return tc, nil
			}
			return TenantContext{}, errors.Wrap(err, "resolving tenant slug "+host.TenantSlug)
		}
		tc.TenantID = id
		tc.Source = SourceHost
		return tc, nil
	}

	// 3. session-derived tenant (platform domain, no impersonation)
	if idn.HomeTenantID != "" {
		tc.TenantID = idn.HomeTenantID
		tc.Source = SourceSession
	}
	return tc, nil
}
