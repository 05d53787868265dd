package echoapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/tenant"
	emailsvc "github.com/trezcool/darasa/services/email"
)

func TestTenantApi_CRUD(t *testing.T) {
	app := newTestApp(t)
	operator := app.token(t, auth.Identity{UserID: "op1", Role: auth.RoleOperator})

	// create
	body := marshalObj(t, tenant.NewTenant{Name: "Acme Academy", Slug: "acme", ContactEmail: "head@acme.example"})
	rec := app.do(http.MethodPost, "darasa.app", "/v1/tenants", operator, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var acme tenant.Tenant
	decodeBody(t, rec, &acme)
	assert.NotEmpty(t, acme.ID)
	assert.Equal(t, "acme", acme.Slug)
	assert.True(t, acme.IsActive)

	// duplicate slug is a field error
	rec = app.do(http.MethodPost, "darasa.app", "/v1/tenants", operator, body)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	var fldErrs map[string]string
	decodeBody(t, rec, &fldErrs)
	assert.Contains(t, fldErrs, "slug")

	// bad slug is a field error
	rec = app.do(http.MethodPost, "darasa.app", "/v1/tenants", operator,
		marshalObj(t, tenant.NewTenant{Name: "Bad", Slug: "Bad Slug!"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// retrieve
	rec = app.do(http.MethodGet, "darasa.app", "/v1/tenants/"+acme.ID, operator)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.do(http.MethodGet, "darasa.app", "/v1/tenants/nope", operator)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// update: rename slug
	rec = app.do(http.MethodPut, "darasa.app", "/v1/tenants/"+acme.ID, operator,
		marshalObj(t, tenant.UpdateTenant{Slug: "acme-academy"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated tenant.Tenant
	decodeBody(t, rec, &updated)
	assert.Equal(t, "acme-academy", updated.Slug)
	assert.Equal(t, "Acme Academy", updated.Name)

	// the old subdomain is gone, the new one serves
	teacher := app.token(t, auth.Identity{UserID: "u1", Role: auth.RoleTeacher, HomeTenantID: acme.ID})
	rec = app.do(http.MethodGet, "acme.darasa.app", "/v1/context", teacher)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.do(http.MethodGet, "acme-academy.darasa.app", "/v1/context", teacher)
	assert.Equal(t, http.StatusOK, rec.Code)

	// list
	rec = app.do(http.MethodGet, "darasa.app", "/v1/tenants", operator)
	require.Equal(t, http.StatusOK, rec.Code)
	var tenants []tenant.Tenant
	decodeBody(t, rec, &tenants)
	assert.Len(t, tenants, 1)

	// destroy
	rec = app.do(http.MethodDelete, "darasa.app", "/v1/tenants/"+acme.ID, operator)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(http.MethodGet, "darasa.app", "/v1/tenants/"+acme.ID, operator)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTenantApi_Impersonation(t *testing.T) {
	app := newTestApp(t)
	acme, err := app.tenantSvc.Create(context.Background(), tenant.NewTenant{
		Name: "Acme Academy", Slug: "acme", ContactEmail: "head@acme.example",
	})
	require.NoError(t, err)
	operator := app.token(t, auth.Identity{UserID: "op1", Role: auth.RoleOperator})
	sentBefore := len(emailsvc.SentMessages)

	// start: context now carries the impersonated school
	rec := app.do(http.MethodPost, "darasa.app", "/v1/impersonation", operator,
		marshalObj(t, ImpersonationRequest{TenantID: acme.ID}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tc access.TenantContext
	rec = app.do(http.MethodGet, "darasa.app", "/v1/context", operator)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &tc)
	assert.Equal(t, acme.ID, tc.TenantID)
	assert.Equal(t, access.SourceImpersonation, tc.Source)
	assert.Equal(t, auth.RoleOperator, tc.Role) // role never changes

	// the school got notified
	require.Greater(t, len(emailsvc.SentMessages), sentBefore)
	notice := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	assert.Equal(t, "head@acme.example", notice.To[0].Address)
	assert.Contains(t, notice.Subject, "support")

	// stop: back to no tenant scope
	rec = app.do(http.MethodDelete, "darasa.app", "/v1/impersonation", operator)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(http.MethodGet, "darasa.app", "/v1/context", operator)
	require.Equal(t, http.StatusOK, rec.Code)
	tc = access.TenantContext{}
	decodeBody(t, rec, &tc)
	assert.Equal(t, "", tc.TenantID)
}

func TestTenantApi_ImpersonationValidation(t *testing.T) {
	app := newTestApp(t)
	closed := app.createTenant(t, "closed", "Closed School", false)
	operator := app.token(t, auth.Identity{UserID: "op1", Role: auth.RoleOperator})

	// not a uuid
	rec := app.do(http.MethodPost, "darasa.app", "/v1/impersonation", operator,
		marshalObj(t, ImpersonationRequest{TenantID: "nope"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// deactivated school
	rec = app.do(http.MethodPost, "darasa.app", "/v1/impersonation", operator,
		marshalObj(t, ImpersonationRequest{TenantID: closed.ID}))
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestTenantApi_ImpersonationIsOperatorOnly(t *testing.T) {
	app := newTestApp(t)
	acme := app.createTenant(t, "acme", "Acme Academy", true)
	admin := app.token(t, auth.Identity{UserID: "u1", Role: auth.RoleAdmin, HomeTenantID: acme.ID})

	rec := app.do(http.MethodPost, "darasa.app", "/v1/impersonation", admin,
		marshalObj(t, ImpersonationRequest{TenantID: acme.ID}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, app.imps.entries)
}

func TestTenantApi_Onboarding(t *testing.T) {
	app := newTestApp(t)
	acme := app.createTenant(t, "acme", "Acme Academy", true)
	newcomer := app.token(t, auth.Identity{UserID: "u2", Role: auth.RoleStaff}) // no home tenant yet

	rec := app.do(http.MethodPost, "darasa.app", "/v1/onboarding", newcomer,
		marshalObj(t, OnboardingRequest{TenantSlug: "acme", Role: auth.RoleTeacher}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var member tenant.Member
	decodeBody(t, rec, &member)
	assert.Equal(t, acme.ID, member.TenantID)
	assert.Equal(t, "u2", member.UserID)
	assert.Equal(t, auth.RoleTeacher, member.Role)

	got, err := app.memberRepo.GetMemberByUserID(context.Background(), acme.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, member.ID, got.ID)
}

func TestTenantApi_OnboardingValidation(t *testing.T) {
	app := newTestApp(t)
	app.createTenant(t, "acme", "Acme Academy", true)
	newcomer := app.token(t, auth.Identity{UserID: "u2", Role: auth.RoleStaff})

	tests := []struct {
		name string
		body OnboardingRequest
		fld  string
	}{
		{"missing slug", OnboardingRequest{}, "tenant_slug"},
		{"ghost slug", OnboardingRequest{TenantSlug: "ghost"}, "tenant_slug"},
		{"operator role is not joinable", OnboardingRequest{TenantSlug: "acme", Role: auth.RoleOperator}, "role"},
		{"unknown role", OnboardingRequest{TenantSlug: "acme", Role: "headmaster"}, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, "darasa.app", "/v1/onboarding", newcomer, marshalObj(t, tt.body))
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			var fldErrs map[string]string
			decodeBody(t, rec, &fldErrs)
			assert.Contains(t, fldErrs, tt.fld)
		})
	}
}

func TestTenantApi_OnboardingDefaultsToStaff(t *testing.T) {
	app := newTestApp(t)
	app.createTenant(t, "acme", "Acme Academy", true)
	newcomer := app.token(t, auth.Identity{UserID: "u3", Role: auth.RoleStaff})

	rec := app.do(http.MethodPost, "darasa.app", "/v1/onboarding", newcomer,
		marshalObj(t, OnboardingRequest{TenantSlug: "acme"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var member tenant.Member
	decodeBody(t, rec, &member)
	assert.Equal(t, auth.RoleStaff, member.Role)
}

func TestTenantApi_OnboardingIsForUnassignedOnly(t *testing.T) {
	app := newTestApp(t)
	acme := app.createTenant(t, "acme", "Acme Academy", true)
	teacher := app.token(t, auth.Identity{UserID: "u1", Role: auth.RoleTeacher, HomeTenantID: acme.ID})

	rec := app.do(http.MethodPost, "darasa.app", "/v1/onboarding", teacher,
		marshalObj(t, OnboardingRequest{TenantSlug: "acme"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// An operator passes the gate without a tenant scope; the members
// endpoint must answer with a bad request, never with the
// missing-scope panic.
func TestTenantApi_MembersRequireScope(t *testing.T) {
	app := newTestApp(t)
	acme := app.createTenant(t, "acme", "Acme Academy", true)
	operator := app.token(t, auth.Identity{UserID: "op1", Role: auth.RoleOperator})

	var rec *httptest.ResponseRecorder
	assert.NotPanics(t, func() {
		rec = app.do(http.MethodGet, "darasa.app", "/v1/members", operator)
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	var fldErrs map[string]string
	decodeBody(t, rec, &fldErrs)
	assert.Contains(t, fldErrs, "tenant")

	// with an impersonation in scope the same request serves
	require.NoError(t, app.imps.Start(context.Background(), "op1", acme.ID))
	rec = app.do(http.MethodGet, "darasa.app", "/v1/members", operator)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestTenantApi_Members(t *testing.T) {
	app := newTestApp(t)
	acme := app.createTenant(t, "acme", "Acme Academy", true)
	globex := app.createTenant(t, "globex", "Globex High", true)

	_, err := app.memberRepo.CreateMember(context.Background(), acme.ID, tenant.Member{UserID: "u1", Role: auth.RoleAdmin})
	require.NoError(t, err)
	_, err = app.memberRepo.CreateMember(context.Background(), globex.ID, tenant.Member{UserID: "u9", Role: auth.RoleAdmin})
	require.NoError(t, err)

	admin := app.token(t, auth.Identity{UserID: "u1", Role: auth.RoleAdmin, HomeTenantID: acme.ID})
	rec := app.do(http.MethodGet, "acme.darasa.app", "/v1/members", admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var members []tenant.Member
	decodeBody(t, rec, &members)
	require.Len(t, members, 1) // only acme's members, never globex's
	assert.Equal(t, "u1", members[0].UserID)
}
