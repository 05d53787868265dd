package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/tenant"
	emailsvc "github.com/trezcool/darasa/services/email"
	tokensvc "github.com/trezcool/darasa/services/token"
)

func testConfig() *core.Config {
	conf := &core.Config{
		Debug:              false,
		TestMode:           true,
		Env:                "TEST",
		AppName:            "Darasa",
		SecretKey:          []byte("test-secret"),
		DefaultFromEmail:   "noreply@darasa.app",
		PlatformDomain:     "darasa.app",
		ReservedSubdomains: []string{"www", "api", "app"},
		DevPathTenancy:     true,
		ImpersonationTTL:   time.Hour,
	}
	conf.Server.JWTExpirationDelta = time.Hour
	return conf
}

// In-memory collaborators; the real ones live in storage/.

type memTenantRepository struct {
	tenants map[string]tenant.Tenant // keyed by id
}

var _ tenant.Repository = (*memTenantRepository)(nil)

func newMemTenantRepository() *memTenantRepository {
	return &memTenantRepository{tenants: make(map[string]tenant.Tenant)}
}

func (r *memTenantRepository) CheckSlugUniqueness(_ context.Context, slug string, excluded ...tenant.Tenant) error {
	for _, tnt := range r.tenants {
		if tnt.Slug != slug {
			continue
		}
		skip := false
		for _, excl := range excluded {
			if excl.ID == tnt.ID {
				skip = true
			}
		}
		if !skip {
			return tenant.ErrSlugExists
		}
	}
	return nil
}

func (r *memTenantRepository) CreateTenant(_ context.Context, tnt tenant.Tenant) (tenant.Tenant, error) {
	r.tenants[tnt.ID] = tnt
	return tnt, nil
}

func (r *memTenantRepository) QueryAllTenants(_ context.Context) ([]tenant.Tenant, error) {
	all := make([]tenant.Tenant, 0, len(r.tenants))
	for _, tnt := range r.tenants {
		all = append(all, tnt)
	}
	return all, nil
}

func (r *memTenantRepository) GetTenantByID(_ context.Context, id string) (tenant.Tenant, error) {
	if tnt, ok := r.tenants[id]; ok {
		return tnt, nil
	}
	return tenant.Tenant{}, tenant.ErrNotFound
}

func (r *memTenantRepository) GetTenantBySlug(_ context.Context, slug string) (tenant.Tenant, error) {
	for _, tnt := range r.tenants {
		if tnt.Slug == slug {
			return tnt, nil
		}
	}
	return tenant.Tenant{}, tenant.ErrNotFound
}

func (r *memTenantRepository) FilterTenants(_ context.Context, filter tenant.QueryFilter) ([]tenant.Tenant, error) {
	var res []tenant.Tenant
	for _, tnt := range r.tenants {
		if filter.IsActive != nil && tnt.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(tnt.Name), strings.ToLower(filter.Search)) &&
			!strings.Contains(tnt.Slug, strings.ToLower(filter.Search)) {
			continue
		}
		res = append(res, tnt)
	}
	return res, nil
}

func (r *memTenantRepository) UpdateTenant(_ context.Context, tnt tenant.Tenant, isActive *bool) (tenant.Tenant, error) {
	orig, ok := r.tenants[tnt.ID]
	if !ok {
		return tenant.Tenant{}, tenant.ErrNotFound
	}
	orig.Slug = tnt.Slug
	orig.Name = tnt.Name
	orig.ContactEmail = tnt.ContactEmail
	orig.UpdatedAt = tnt.UpdatedAt
	if isActive != nil {
		orig.IsActive = *isActive
	}
	r.tenants[tnt.ID] = orig
	return orig, nil
}

func (r *memTenantRepository) DeleteTenantsByID(_ context.Context, ids ...string) error {
	for _, id := range ids {
		delete(r.tenants, id)
	}
	return nil
}

type memMemberRepository struct {
	members []tenant.Member
}

var _ tenant.MemberRepository = (*memMemberRepository)(nil)

func (r *memMemberRepository) scope(tenantID string) string {
	if tenantID == "" {
		panic(core.MissingScopeError{Op: "memMemberRepository"})
	}
	return tenantID
}

func (r *memMemberRepository) CreateMember(_ context.Context, tenantID string, m tenant.Member) (tenant.Member, error) {
	m.TenantID = r.scope(tenantID)
	if m.ID == "" {
		m.ID = "m" + time.Now().Format("150405.000000")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	r.members = append(r.members, m)
	return m, nil
}

func (r *memMemberRepository) QueryMembers(_ context.Context, tenantID string) ([]tenant.Member, error) {
	tenantID = r.scope(tenantID)
	res := make([]tenant.Member, 0)
	for _, m := range r.members {
		if m.TenantID == tenantID {
			res = append(res, m)
		}
	}
	return res, nil
}

func (r *memMemberRepository) GetMemberByUserID(_ context.Context, tenantID, userID string) (tenant.Member, error) {
	tenantID = r.scope(tenantID)
	for _, m := range r.members {
		if m.TenantID == tenantID && m.UserID == userID {
			return m, nil
		}
	}
	return tenant.Member{}, tenant.ErrMemberNotFound
}

func (r *memMemberRepository) DeleteMembersByID(_ context.Context, tenantID string, ids ...string) error {
	tenantID = r.scope(tenantID)
	kept := r.members[:0]
	for _, m := range r.members {
		drop := false
		for _, id := range ids {
			if m.TenantID == tenantID && m.ID == id {
				drop = true
			}
		}
		if !drop {
			kept = append(kept, m)
		}
	}
	r.members = kept
	return nil
}

type memImpersonationStore struct {
	entries map[string]string // userID -> tenantID
}

var _ ImpersonationStore = (*memImpersonationStore)(nil)

func newMemImpersonationStore() *memImpersonationStore {
	return &memImpersonationStore{entries: make(map[string]string)}
}

func (s *memImpersonationStore) Impersonation(_ context.Context, userID string) (string, error) {
	return s.entries[userID], nil
}

func (s *memImpersonationStore) Start(_ context.Context, userID, tenantID string) error {
	s.entries[userID] = tenantID
	return nil
}

func (s *memImpersonationStore) Stop(_ context.Context, userID string) error {
	delete(s.entries, userID)
	return nil
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type testApp struct {
	server     Server
	conf       *core.Config
	tenantRepo *memTenantRepository
	memberRepo *memMemberRepository
	imps       *memImpersonationStore
	tokens     *tokensvc.JWTService
	tenantSvc  *tenant.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	conf := testConfig()
	repo := newMemTenantRepository()
	members := &memMemberRepository{}
	imps := newMemImpersonationStore()
	svc := tenant.NewService(repo, nil, nopLogger{})

	srv := NewServer(&Options{
		Addr:           conf.ServerAddress(),
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         nopLogger{},
		TenantSvc:      svc,
		MemberRepo:     members,
		TokenVerifier:  tokensvc.NewJWTService(conf),
		Impersonations: imps,
		EmailSvc:       emailsvc.NewConsoleServiceMock(conf),
	})
	return &testApp{
		server:     srv,
		conf:       conf,
		tenantRepo: repo,
		memberRepo: members,
		imps:       imps,
		tokens:     tokensvc.NewJWTService(conf),
		tenantSvc:  svc,
	}
}

func (a *testApp) createTenant(t *testing.T, slug, name string, isActive bool) tenant.Tenant {
	t.Helper()
	tnt, err := a.tenantSvc.Create(context.Background(), tenant.NewTenant{Name: name, Slug: slug})
	require.NoError(t, err)
	if !isActive {
		inactive := false
		tnt, err = a.tenantSvc.Update(context.Background(), tnt.ID, tenant.UpdateTenant{IsActive: &inactive})
		require.NoError(t, err)
	}
	return tnt
}

func (a *testApp) token(t *testing.T, idn auth.Identity) string {
	t.Helper()
	token, err := a.tokens.Issue(idn)
	require.NoError(t, err)
	return token
}

// do runs one request through the full middleware pipeline. The host
// decides tenancy; the token decides identity.
func (a *testApp) do(method, host, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Host = host
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)
	return rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}
