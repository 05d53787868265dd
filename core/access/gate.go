package access

import (
	"net/url"

	"github.com/trezcool/darasa/core/auth"
)

// Redirect targets handed back with gate decisions.
const (
	LoginPath      = "/login"
	OnboardingPath = "/onboarding"
)

type DecisionKind string

const (
	Allow                DecisionKind = "allow"
	RedirectToLogin      DecisionKind = "redirect-to-login"
	RedirectToOnboarding DecisionKind = "redirect-to-onboarding"
	Deny                 DecisionKind = "deny"
	NotFound             DecisionKind = "not-found"
)

type Decision struct {
	Kind DecisionKind
	// RedirectURL is set for the redirect kinds; the login redirect
	// preserves the originally requested path as a return target.
	RedirectURL string
}

func (d Decision) Allowed() bool { return d.Kind == Allow }

// LoginRedirectURL builds the login redirect carrying the originally
// requested path as the post-login return target.
func LoginRedirectURL(path string) string {
	return LoginPath + "?next=" + url.QueryEscape(path)
}

// Gate decides what a resolved context may do with a route. It is a
// pure function of its inputs plus the static route table: no I/O, no
// side effects.
type Gate struct {
	table *RouteTable
}

func NewGate(table *RouteTable) *Gate {
	return &Gate{table: table}
}

func (g *Gate) Authorize(tc TenantContext, path string) Decision {
	// a host slug with no tenant behind it has no pages at all;
	// answering anything but 404 would leak which slugs exist
	if tc.TenantNotFound {
		return Decision{Kind: NotFound}
	}

	cap, ok := g.table.Match(path)
	if !ok {
		return Decision{Kind: NotFound}
	}

	if cap.Public {
		return Decision{Kind: Allow}
	}

	if !tc.Authenticated {
		return Decision{
			Kind:        RedirectToLogin,
			RedirectURL: LoginRedirectURL(path),
		}
	}

	// the no-tenant check precedes the role check on purpose: an
	// unassigned user must be sent to onboarding, not told "wrong role"
	if cap.RequireTenant && tc.TenantID == "" && tc.Role != auth.RoleOperator {
		return Decision{Kind: RedirectToOnboarding, RedirectURL: OnboardingPath}
	}

	if !cap.allowsRole(tc.Role) {
		return Decision{Kind: Deny}
	}

	// a legitimately-logged-in user must not reuse their session
	// against another tenant's subdomain
	if cap.RequireTenantMatch && !cap.AllowForeignTenant &&
		tc.Source == SourceHost && tc.HomeTenantID != "" && tc.HomeTenantID != tc.TenantID {
		return Decision{Kind: Deny}
	}

	return Decision{Kind: Allow}
}
