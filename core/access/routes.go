package access

import (
	"sort"
	"strings"

	"github.com/trezcool/darasa/core/auth"
)

// RouteCapability maps a route pattern to the roles permitted on it.
// This is static reference data consulted by the gate; request
// processing never mutates it.
type RouteCapability struct {
	// Pattern is an exact path ("/dashboard") or a prefix ending in
	// "/*" ("/finance/*"). The longest matching pattern wins.
	Pattern string
	Public  bool
	// Roles permitted; empty means any authenticated role.
	Roles []string
	// RequireTenant routes need a non-null tenant scope (operators
	// excepted).
	RequireTenant bool
	// RequireTenantMatch routes refuse a session whose home tenant
	// differs from the host's tenant.
	RequireTenantMatch bool
	// AllowForeignTenant suspends the tenant-match rule on this route
	// only. Reserved for operator read-only surfaces; do not reach for
	// it elsewhere.
	AllowForeignTenant bool
}

func (cap RouteCapability) allowsRole(role string) bool {
	if len(cap.Roles) == 0 {
		return true
	}
	for _, r := range cap.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (cap RouteCapability) matches(path string) bool {
	if prefix, ok := strings.CutSuffix(cap.Pattern, "/*"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == cap.Pattern
}

// RouteTable holds all route capabilities in one auditable place.
type RouteTable struct {
	caps []RouteCapability
}

func NewRouteTable(caps ...RouteCapability) *RouteTable {
	t := &RouteTable{caps: make([]RouteCapability, len(caps))}
	copy(t.caps, caps)
	// longest pattern first so Match can take the first hit
	sort.SliceStable(t.caps, func(i, j int) bool {
		return len(t.caps[i].Pattern) > len(t.caps[j].Pattern)
	})
	return t
}

func (t *RouteTable) Match(path string) (RouteCapability, bool) {
	for _, cap := range t.caps {
		if cap.matches(path) {
			return cap, true
		}
	}
	return RouteCapability{}, false
}

// DefaultRouteTable is the platform's capability table.
func DefaultRouteTable() *RouteTable {
	anyTenantRole := append([]string{auth.RoleOperator}, auth.TenantRoles...)
	return NewRouteTable(
		RouteCapability{Pattern: "/", Public: true},
		RouteCapability{Pattern: "/login", Public: true},
		RouteCapability{Pattern: "/signup", Public: true},
		RouteCapability{Pattern: "/health", Public: true},
		RouteCapability{Pattern: "/metrics", Public: true},

		// pre-onboarding surface
		RouteCapability{Pattern: "/onboarding/*", Roles: []string{auth.RoleUnassigned}},

		// tenant portals
		RouteCapability{Pattern: "/dashboard/*", Roles: anyTenantRole, RequireTenant: true, RequireTenantMatch: true},
		RouteCapability{Pattern: "/students/*", Roles: []string{auth.RoleOperator, auth.RoleAdmin, auth.RoleTeacher, auth.RoleStaff}, RequireTenant: true, RequireTenantMatch: true},
		RouteCapability{Pattern: "/attendance/*", Roles: []string{auth.RoleOperator, auth.RoleAdmin, auth.RoleTeacher, auth.RoleStaff}, RequireTenant: true, RequireTenantMatch: true},
		RouteCapability{Pattern: "/finance/*", Roles: []string{auth.RoleOperator, auth.RoleAdmin, auth.RoleFinance}, RequireTenant: true, RequireTenantMatch: true},
		RouteCapability{Pattern: "/admissions/*", Roles: []string{auth.RoleOperator, auth.RoleAdmin, auth.RoleStaff}, RequireTenant: true, RequireTenantMatch: true},
		RouteCapability{Pattern: "/timetable/*", Roles: anyTenantRole, RequireTenant: true, RequireTenantMatch: true},
		RouteCapability{Pattern: "/grades/*", Roles: []string{auth.RoleOperator, auth.RoleAdmin, auth.RoleTeacher, auth.RoleStudent, auth.RoleGuardian}, RequireTenant: true, RequireTenantMatch: true},
		RouteCapability{Pattern: "/settings/*", Roles: []string{auth.RoleOperator, auth.RoleAdmin}, RequireTenant: true, RequireTenantMatch: true},

		// operator console: cross-tenant by design, read-only surface
		RouteCapability{Pattern: "/ops/*", Roles: []string{auth.RoleOperator}, AllowForeignTenant: true},

		// platform API
		RouteCapability{Pattern: "/v1/context", Roles: nil},
		RouteCapability{Pattern: "/v1/roles", Roles: nil},
		RouteCapability{Pattern: "/v1/tenants/*", Roles: []string{auth.RoleOperator}},
		RouteCapability{Pattern: "/v1/impersonation/*", Roles: []string{auth.RoleOperator}},
		RouteCapability{Pattern: "/v1/members/*", Roles: []string{auth.RoleOperator, auth.RoleAdmin}, RequireTenant: true, RequireTenantMatch: true},
		RouteCapability{Pattern: "/v1/onboarding/*", Roles: []string{auth.RoleUnassigned}},
	)
}
