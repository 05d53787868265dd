package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/auth"
)

var (
	contextTenantKey   = "tenantContext"
	contextIdentityKey = "identity"
	contextHostKey     = "resolvedHost"
	contextRawPathKey  = "rawPath"

	// SessionCookieName carries the auth token; an Authorization
	// bearer header works too (API clients).
	SessionCookieName = "darasa_session"
)

// resolveHostMiddleware parses tenancy off the raw host and path
// before routing, then strips the /s/{slug} path prefix so the router
// sees the canonical path. Must be registered with Pre: the rewrite is
// useless once a route has been matched.
func resolveHostMiddleware(parser access.HostParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			ctx.Set(contextHostKey, parser.Parse(req.Host, req.URL.Path))
			ctx.Set(contextRawPathKey, req.URL.Path)
			req.URL.Path = parser.NormalizePath(req.URL.Path)
			return next(ctx)
		}
	}
}

// tenantContextMiddleware runs the full parse→session→resolve→gate
// pipeline on every request. Handlers behind it always see a complete
// TenantContext; no partial context is ever exposed.
func tenantContextMiddleware(
	parser access.HostParser,
	sessions *auth.SessionResolver,
	resolver *access.Resolver,
	gate *access.Gate,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()

			host, ok := ctx.Get(contextHostKey).(access.ResolvedHost)
			if !ok { // resolveHostMiddleware not registered (tests)
				host = parser.Parse(req.Host, req.URL.Path)
			}
			idn := sessions.Resolve(req.Context(), extractToken(req))
			tc, err := resolver.Resolve(req.Context(), host, idn)
			if err != nil {
				return errors.Wrap(err, "resolving tenant context")
			}

			// the path was normalized before routing
			decision := gate.Authorize(tc, req.URL.Path)
			observeGateDecision(decision.Kind)

			switch decision.Kind {
			case access.Allow:
				ctx.Set(contextTenantKey, tc)
				ctx.Set(contextIdentityKey, idn)
				return next(ctx)
			case access.RedirectToLogin:
				// return to the path as requested, not as normalized:
				// the /s/{slug} prefix must survive the login roundtrip
				if raw, ok := ctx.Get(contextRawPathKey).(string); ok && raw != req.URL.Path {
					return ctx.Redirect(http.StatusSeeOther, access.LoginRedirectURL(raw))
				}
				return ctx.Redirect(http.StatusSeeOther, decision.RedirectURL)
			case access.RedirectToOnboarding:
				return ctx.Redirect(http.StatusSeeOther, decision.RedirectURL)
			case access.Deny:
				return errHttpForbidden
			default:
				return errHttpNotFound
			}
		}
	}
}

func extractToken(req *http.Request) string {
	if c, err := req.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := req.Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func getTenantContext(ctx echo.Context) (access.TenantContext, error) {
	if tc, ok := ctx.Get(contextTenantKey).(access.TenantContext); ok {
		return tc, nil
	}
	return access.TenantContext{}, errUnauthorized
}

func getIdentity(ctx echo.Context) (auth.Identity, error) {
	if idn, ok := ctx.Get(contextIdentityKey).(auth.Identity); ok && !idn.IsAnonymous() {
		return idn, nil
	}
	return auth.Identity{}, errUnauthorized
}
