package access

import (
	"net"
	"strings"

	"github.com/trezcool/darasa/core"
)

// ResolvedHost is the outcome of parsing a request's origin.
// TenantSlug is non-empty iff IsPlatform is false.
type ResolvedHost struct {
	Raw        string `json:"raw"`
	IsPlatform bool   `json:"is_platform"`
	TenantSlug string `json:"tenant_slug,omitempty"`
}

// HostParser extracts a tenant slug from a request's host header
// (acme.darasa.app → "acme"). Anything it cannot make sense of parses
// as the platform domain: the failure direction is always "no tenant",
// never "guess a tenant".
type HostParser struct {
	rootDomain     string
	reserved       map[string]struct{}
	devPathTenancy bool
}

func NewHostParser(conf *core.Config) HostParser {
	reserved := make(map[string]struct{}, len(conf.ReservedSubdomains))
	for _, label := range conf.ReservedSubdomains {
		reserved[strings.ToLower(label)] = struct{}{}
	}
	return HostParser{
		rootDomain:     strings.ToLower(conf.PlatformDomain),
		reserved:       reserved,
		devPathTenancy: conf.DevPathTenancy,
	}
}

// Parse resolves the raw host header (and, in dev path-tenancy mode
// only, the request path) into a ResolvedHost.
func (p HostParser) Parse(host, path string) ResolvedHost {
	raw := host
	platform := ResolvedHost{Raw: raw, IsPlatform: true}

	host = normalizeHost(host)
	if host == "" {
		return platform
	}

	if slug, ok := p.subdomainSlug(host, p.rootDomain); ok {
		return p.slugHost(raw, slug)
	}

	if p.devPathTenancy {
		// local development: *.localhost subdomains parse the same way,
		// and /s/{slug} is an equivalent encoding of tenant identity
		// because browsers do not share cookies across localhost
		// subdomains.
		if slug, ok := p.subdomainSlug(host, "localhost"); ok {
			return p.slugHost(raw, slug)
		}
		if slug, ok := pathSlug(path); ok {
			return p.slugHost(raw, slug)
		}
	}

	return platform
}

// NormalizePath strips the dev-only /s/{slug} prefix so route matching
// sees the same path the subdomain form would produce. Outside dev
// path-tenancy mode the path passes through untouched.
func (p HostParser) NormalizePath(path string) string {
	if !p.devPathTenancy {
		return path
	}
	slug, ok := pathSlug(path)
	if !ok {
		return path
	}
	rest := strings.TrimPrefix(path, "/s/"+slug)
	if rest == "" {
		return "/"
	}
	return rest
}

func (p HostParser) slugHost(raw, slug string) ResolvedHost {
	if _, ok := p.reserved[slug]; ok {
		return ResolvedHost{Raw: raw, IsPlatform: true}
	}
	if !core.SlugRegex.MatchString(slug) {
		return ResolvedHost{Raw: raw, IsPlatform: true}
	}
	return ResolvedHost{Raw: raw, TenantSlug: slug}
}

// subdomainSlug returns the leftmost label when host is exactly one
// label in front of root. Deeper nesting does not name a tenant.
func (p HostParser) subdomainSlug(host, root string) (string, bool) {
	if root == "" || host == root {
		return "", false
	}
	if !strings.HasSuffix(host, "."+root) {
		return "", false
	}
	label := strings.TrimSuffix(host, "."+root)
	if label == "" || strings.Contains(label, ".") {
		return "", false
	}
	return label, true
}

// pathSlug extracts the slug from the /s/{slug}[/...] form.
func pathSlug(path string) (string, bool) {
	if !strings.HasPrefix(path, "/s/") {
		return "", false
	}
	rest := strings.TrimPrefix(path, "/s/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "", false
	}
	return strings.ToLower(rest), true
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" || strings.ContainsAny(host, " \t/\\@") {
		return ""
	}
	return host
}
