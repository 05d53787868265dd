package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core/auth"
)

func TestGate_Authorize(t *testing.T) {
	gate := NewGate(DefaultRouteTable())

	instructorAt := func(tenantID string) TenantContext {
		return TenantContext{
			TenantID:      tenantID,
			Role:          auth.RoleTeacher,
			Source:        SourceHost,
			Authenticated: true,
			HomeTenantID:  "acme-id",
		}
	}

	tests := []struct {
		name         string
		tc           TenantContext
		path         string
		wantKind     DecisionKind
		wantRedirect string
	}{
		{
			name:     "public route allows anonymous",
			tc:       TenantContext{},
			path:     "/",
			wantKind: Allow,
		},
		{
			name:     "login is public",
			tc:       TenantContext{},
			path:     "/login",
			wantKind: Allow,
		},
		{
			name:         "anonymous on private route redirects to login with return target",
			tc:           TenantContext{},
			path:         "/dashboard",
			wantKind:     RedirectToLogin,
			wantRedirect: "/login?next=%2Fdashboard",
		},
		{
			name:     "tenant not found wins over everything",
			tc:       TenantContext{TenantNotFound: true, Authenticated: true, Role: auth.RoleAdmin},
			path:     "/",
			wantKind: NotFound,
		},
		{
			name:     "unknown route is not found",
			tc:       instructorAt("acme-id"),
			path:     "/no-such-page",
			wantKind: NotFound,
		},
		{
			name:     "matching tenant allows instructor dashboard",
			tc:       instructorAt("acme-id"),
			path:     "/dashboard",
			wantKind: Allow,
		},
		{
			name:     "foreign tenant host denies despite valid session",
			tc:       instructorAt("other-id"),
			path:     "/dashboard",
			wantKind: Deny,
		},
		{
			name: "impersonation source is exempt from tenant match",
			tc: TenantContext{
				TenantID:      "other-id",
				Role:          auth.RoleOperator,
				Source:        SourceImpersonation,
				Authenticated: true,
			},
			path:     "/dashboard",
			wantKind: Allow,
		},
		{
			name: "unassigned user on tenant route redirects to onboarding, not deny",
			tc: TenantContext{
				Role:          auth.RoleUnassigned,
				Authenticated: true,
			},
			path:         "/finance/invoices",
			wantKind:     RedirectToOnboarding,
			wantRedirect: "/onboarding",
		},
		{
			name: "unassigned user may visit onboarding",
			tc: TenantContext{
				Role:          auth.RoleUnassigned,
				Authenticated: true,
			},
			path:     "/onboarding",
			wantKind: Allow,
		},
		{
			name: "wrong role denies",
			tc: TenantContext{
				TenantID:      "acme-id",
				Role:          auth.RoleStudent,
				Source:        SourceSession,
				Authenticated: true,
				HomeTenantID:  "acme-id",
			},
			path:     "/finance/invoices",
			wantKind: Deny,
		},
		{
			name: "finance staff allowed on finance",
			tc: TenantContext{
				TenantID:      "acme-id",
				Role:          auth.RoleFinance,
				Source:        SourceSession,
				Authenticated: true,
				HomeTenantID:  "acme-id",
			},
			path:     "/finance/invoices",
			wantKind: Allow,
		},
		{
			name: "operator needs no tenant scope",
			tc: TenantContext{
				Role:          auth.RoleOperator,
				Authenticated: true,
			},
			path:     "/ops/tenants",
			wantKind: Allow,
		},
		{
			name: "non-operator denied on operator console",
			tc: TenantContext{
				TenantID:      "acme-id",
				Role:          auth.RoleAdmin,
				Source:        SourceSession,
				Authenticated: true,
				HomeTenantID:  "acme-id",
			},
			path:     "/ops/tenants",
			wantKind: Deny,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gate.Authorize(tt.tc, tt.path)
			assert.Equal(t, tt.wantKind, got.Kind)
			if tt.wantRedirect != "" {
				assert.Equal(t, tt.wantRedirect, got.RedirectURL)
			}
		})
	}
}

// An unassigned user hitting a role-restricted tenant route must be
// sent to onboarding first; "wrong role" would not be actionable.
func TestGate_OnboardingPrecedesRoleCheck(t *testing.T) {
	gate := NewGate(NewRouteTable(
		RouteCapability{Pattern: "/finance/*", Roles: []string{auth.RoleFinance}, RequireTenant: true, RequireTenantMatch: true},
	))

	tc := TenantContext{Role: auth.RoleUnassigned, Authenticated: true}
	got := gate.Authorize(tc, "/finance/fees")
	assert.Equal(t, RedirectToOnboarding, got.Kind)
}

func TestGate_AllowForeignTenant(t *testing.T) {
	gate := NewGate(NewRouteTable(
		RouteCapability{Pattern: "/reports/*", Roles: []string{auth.RoleOperator}, RequireTenantMatch: true, AllowForeignTenant: true},
	))

	tc := TenantContext{
		TenantID:      "other-id",
		Role:          auth.RoleOperator,
		Source:        SourceHost,
		Authenticated: true,
		HomeTenantID:  "",
	}
	got := gate.Authorize(tc, "/reports/enrollment")
	assert.Equal(t, Allow, got.Kind)
}

func TestRouteTable_Match(t *testing.T) {
	table := NewRouteTable(
		RouteCapability{Pattern: "/finance/*", Roles: []string{auth.RoleFinance}},
		RouteCapability{Pattern: "/finance/reports/*", Roles: []string{auth.RoleAdmin}},
		RouteCapability{Pattern: "/", Public: true},
	)

	cap, ok := table.Match("/finance/reports/2026")
	assert.True(t, ok)
	assert.Equal(t, "/finance/reports/*", cap.Pattern) // longest pattern wins

	cap, ok = table.Match("/finance/fees")
	assert.True(t, ok)
	assert.Equal(t, "/finance/*", cap.Pattern)

	_, ok = table.Match("/unknown")
	assert.False(t, ok)
}
