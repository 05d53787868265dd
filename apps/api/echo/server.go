package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/tenant"
)

type (
	Options struct {
		Addr           string
		DisableReqLogs bool

		Conf           *core.Config
		Logger         core.Logger
		TenantSvc      *tenant.Service
		MemberRepo     tenant.MemberRepository
		TokenVerifier  auth.TokenVerifier
		Impersonations ImpersonationStore
		EmailSvc       core.EmailService
	}

	// ImpersonationStore is the writable impersonation collaborator;
	// reads feed resolution, writes only happen through the operator
	// API below.
	ImpersonationStore interface {
		access.ImpersonationStore
		Start(ctx context.Context, userID, tenantID string) error
		Stop(ctx context.Context, userID string) error
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	parser := access.NewHostParser(conf)
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Pre(resolveHostMiddleware(parser))
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode: a missing tenant scope must
	// crash loudly where the developer can see it
	if !conf.IsDev() {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	core.InitValidators(validate, translator)
	appTranslator = translator

	// the full resolution pipeline runs for every request
	sessions := auth.NewSessionResolver(s.opts.TokenVerifier, s.opts.Logger)
	resolver := access.NewResolver(s.opts.TenantSvc, s.opts.Impersonations, s.opts.Logger)
	gate := access.NewGate(access.DefaultRouteTable())
	s.app.Use(tenantContextMiddleware(parser, sessions, resolver, gate))

	s.app.GET("/", home)
	s.app.GET("/health", health)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.app.Group("/v1")
	registerTenantAPI(v1, s.opts, validate, translator)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Addr))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) signalShutdown() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	}()
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa!")
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
