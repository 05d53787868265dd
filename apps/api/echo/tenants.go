package echoapi

import (
	"net/http"
	"net/mail"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/tenant"
)

var errUnknownRole = "unknown role"

type tenantApi struct {
	conf       *core.Config
	svc        *tenant.Service
	members    tenant.MemberRepository
	imps       ImpersonationStore
	mailSvc    core.EmailService
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
}

// registerTenantAPI wires the platform API. Role gating happens in the
// tenant-context middleware via the route capability table; handlers
// only implement behavior.
func registerTenantAPI(g *echo.Group, opts *Options, validate *validator.Validate, translator ut.Translator) {
	api := tenantApi{
		conf:       opts.Conf,
		svc:        opts.TenantSvc,
		members:    opts.MemberRepo,
		imps:       opts.Impersonations,
		mailSvc:    opts.EmailSvc,
		logger:     opts.Logger,
		validate:   validate,
		translator: translator,
	}

	g.GET("/context", api.context)
	g.GET("/roles", api.queryRoles)

	// operator-only (per the capability table)
	tg := g.Group("/tenants")
	tg.POST("", api.create)
	tg.GET("", api.query)
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update)
	tg.DELETE("/:id", api.destroy)

	ig := g.Group("/impersonation")
	ig.POST("", api.startImpersonation)
	ig.DELETE("", api.stopImpersonation)

	g.GET("/members", api.queryMembers)
	g.POST("/onboarding", api.completeOnboarding)
}

// Handlers

// context echoes the resolved request scope; useful for the frontends
// and for support debugging ("what does the platform think I am?").
func (api *tenantApi) context(ctx echo.Context) error {
	tc, err := getTenantContext(ctx)
	if err != nil {
		return errors.Wrap(err, "getting tenant context")
	}
	return ctx.JSON(http.StatusOK, tc)
}

func (api *tenantApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, auth.Roles)
}

func (api *tenantApi) create(ctx echo.Context) error {
	var data tenant.NewTenant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTenant")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	tnt, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating tenant")
	}
	return ctx.JSON(http.StatusCreated, tnt)
}

func (api *tenantApi) query(ctx echo.Context) error {
	var filter tenant.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	tenants, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying tenants")
	}
	return ctx.JSON(http.StatusOK, tenants)
}

func (api *tenantApi) retrieve(ctx echo.Context) error {
	tnt, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting tenant")
	}
	return ctx.JSON(http.StatusOK, tnt)
}

func (api *tenantApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	orig, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting tenant")
	}

	var data tenant.UpdateTenant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTenant")
	}
	if err := data.Validate(orig, api.validate, api.svc); err != nil {
		return err
	}

	tnt, err := api.svc.Update(reqCtx, orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating tenant")
	}
	return ctx.JSON(http.StatusOK, tnt)
}

func (api *tenantApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting tenant")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *tenantApi) startImpersonation(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	idn, err := getIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting identity")
	}

	var data ImpersonationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ImpersonationRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tnt, err := api.svc.GetByID(reqCtx, data.TenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return core.NewValidationError(nil, core.FieldError{Field: "tenant_id", Error: tenant.ErrNotFound.Error()})
		}
		return errors.Wrap(err, "getting tenant")
	}
	if !tnt.IsActive {
		return core.NewValidationError(nil, core.FieldError{Field: "tenant_id", Error: "tenant is deactivated"})
	}

	if err := api.imps.Start(reqCtx, idn.UserID, tnt.ID); err != nil {
		return errors.Wrap(err, "starting impersonation")
	}
	api.logger.Info("impersonation started for tenant "+tnt.Slug, idn)
	api.notifyImpersonation(tnt)

	return ctx.JSON(http.StatusOK, tnt)
}

func (api *tenantApi) stopImpersonation(ctx echo.Context) error {
	idn, err := getIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting identity")
	}
	if err := api.imps.Stop(ctx.Request().Context(), idn.UserID); err != nil {
		return errors.Wrap(err, "stopping impersonation")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// notifyImpersonation tells the school that platform staff is viewing
// their account.
func (api *tenantApi) notifyImpersonation(tnt tenant.Tenant) {
	if api.mailSvc == nil || tnt.ContactEmail == "" {
		return
	}
	api.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: tnt.Name, Address: tnt.ContactEmail}},
		Subject: "Platform support accessed your school account",
		BodyStr: "A " + api.conf.AppName + " support operator opened a support session on your school account. " +
			"If you did not request support, please contact us.",
	})
}

func (api *tenantApi) queryMembers(ctx echo.Context) error {
	tc, err := getTenantContext(ctx)
	if err != nil {
		return errors.Wrap(err, "getting tenant context")
	}
	// operators pass the gate without a tenant scope; that is a bad
	// request here, not a defect
	if tc.TenantID == "" {
		return core.NewValidationError(nil, core.FieldError{
			Field: "tenant",
			Error: "no school in scope; impersonate one or use its subdomain",
		})
	}

	members, err := api.members.QueryMembers(ctx.Request().Context(), tc.MustTenantID())
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	return ctx.JSON(http.StatusOK, members)
}

// completeOnboarding attaches an unassigned user to a school. The
// identity provider picks the new home tenant up on the next token
// refresh.
func (api *tenantApi) completeOnboarding(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	idn, err := getIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting identity")
	}

	var data OnboardingRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OnboardingRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	role := data.Role
	if role == "" {
		role = auth.RoleStaff
	}
	if !validTenantRole(role) {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: errUnknownRole})
	}

	tenantID, err := api.svc.IDBySlug(reqCtx, data.TenantSlug)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return core.NewValidationError(nil, core.FieldError{Field: "tenant_slug", Error: tenant.ErrNotFound.Error()})
		}
		return errors.Wrap(err, "resolving tenant slug")
	}

	member, err := api.members.CreateMember(reqCtx, tenantID, tenant.Member{
		UserID: idn.UserID,
		Role:   role,
	})
	if err != nil {
		return errors.Wrap(err, "creating member")
	}
	return ctx.JSON(http.StatusCreated, member)
}

func validTenantRole(role string) bool {
	for _, r := range auth.TenantRoles {
		if r == role {
			return true
		}
	}
	return false
}
