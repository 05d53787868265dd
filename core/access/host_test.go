package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core"
)

func newTestParser(devPathTenancy bool) HostParser {
	return NewHostParser(&core.Config{
		PlatformDomain:     "darasa.app",
		ReservedSubdomains: []string{"www", "api", "admin"},
		DevPathTenancy:     devPathTenancy,
	})
}

func TestHostParser_Parse(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		path     string
		dev      bool
		wantSlug string
	}{
		{name: "platform domain", host: "darasa.app"},
		{name: "platform domain with port", host: "darasa.app:8000"},
		{name: "tenant subdomain", host: "acme.darasa.app", wantSlug: "acme"},
		{name: "tenant subdomain with port", host: "acme.darasa.app:443", wantSlug: "acme"},
		{name: "tenant subdomain uppercase", host: "ACME.Darasa.App", wantSlug: "acme"},
		{name: "trailing dot", host: "acme.darasa.app.", wantSlug: "acme"},
		{name: "reserved label", host: "www.darasa.app"},
		{name: "reserved label api", host: "api.darasa.app"},
		{name: "nested labels do not name a tenant", host: "a.b.darasa.app"},
		{name: "empty host", host: ""},
		{name: "malformed host", host: "what ever"},
		{name: "malformed host with path", host: "darasa.app/evil"},
		{name: "unrelated domain", host: "evil.example.com"},
		{name: "root domain as suffix trick", host: "notdarasa.app"},
		{name: "slug with invalid chars", host: "ac_me.darasa.app"},
		{name: "single char slug", host: "a.darasa.app"}, // too short per slug rules

		// local development
		{name: "localhost platform", host: "localhost:8000", dev: true},
		{name: "localhost subdomain", host: "acme.localhost:8000", dev: true, wantSlug: "acme"},
		{name: "localhost subdomain disabled in prod", host: "acme.localhost:8000"},
		{name: "path form", host: "localhost:8000", path: "/s/acme/dashboard", dev: true, wantSlug: "acme"},
		{name: "path form bare slug", host: "localhost:8000", path: "/s/acme", dev: true, wantSlug: "acme"},
		{name: "path form reserved", host: "localhost:8000", path: "/s/www/dashboard", dev: true},
		{name: "path form not reachable in prod", host: "darasa.app", path: "/s/acme/dashboard"},
		{name: "plain path is not tenant addressing", host: "localhost:8000", path: "/dashboard", dev: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := newTestParser(tt.dev)
			got := parser.Parse(tt.host, tt.path)

			assert.Equal(t, tt.wantSlug, got.TenantSlug)
			// slug is non-empty iff the host is not the platform's
			assert.Equal(t, got.TenantSlug == "", got.IsPlatform)
			assert.Equal(t, tt.host, got.Raw)
		})
	}
}

func TestHostParser_PathAndSubdomainFormsAgree(t *testing.T) {
	prod := newTestParser(false)
	dev := newTestParser(true)

	viaSubdomain := prod.Parse("acme.darasa.app", "/dashboard")
	viaPath := dev.Parse("localhost:8000", "/s/acme/dashboard")

	assert.Equal(t, viaSubdomain.TenantSlug, viaPath.TenantSlug)
	assert.Equal(t, viaSubdomain.IsPlatform, viaPath.IsPlatform)
}

func TestHostParser_NormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		dev  bool
		want string
	}{
		{name: "strips slug prefix", path: "/s/acme/dashboard", dev: true, want: "/dashboard"},
		{name: "strips bare slug", path: "/s/acme", dev: true, want: "/"},
		{name: "nested path", path: "/s/acme/finance/invoices", dev: true, want: "/finance/invoices"},
		{name: "plain path untouched", path: "/dashboard", dev: true, want: "/dashboard"},
		{name: "prod passes through", path: "/s/acme/dashboard", want: "/s/acme/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := newTestParser(tt.dev)
			assert.Equal(t, tt.want, parser.NormalizePath(tt.path))
		})
	}
}
