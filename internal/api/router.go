package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/insureline/portal/docs"
	"github.com/insureline/portal/internal/api/handler"
	"github.com/insureline/portal/internal/api/middleware"
	"github.com/insureline/portal/internal/api/web"
	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/ports"
	"github.com/insureline/portal/internal/core/service"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Sessions ports.SessionService
	Audit    ports.AuditSink // nil disables role redirect auditing
	Gateways service.Gateways
	Cookie   middleware.CookieOptions

	DashboardRefresh time.Duration

	// Readiness checks by dependency name. Optional ones are reported but
	// do not fail the probe.
	Checks         map[string]handler.Check
	OptionalChecks []string

	// Registerer and Gatherer back the HTTP metrics; nil uses the
	// prometheus defaults.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) (*echo.Echo, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	registerer, gatherer := deps.Registerer, deps.Gatherer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "portal",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/health/ready"
		},
	}))

	// --- Operational endpoints (no session) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks, deps.OptionalChecks...)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Sessions, deps.Cookie, deps.Log.With().Str("component", "auth").Logger())
	dashboardHandler := handler.NewDashboardHandler(deps.Gateways, deps.DashboardRefresh, deps.Log.With().Str("component", "dashboard").Logger())
	customerHandler := handler.NewCustomerHandler(deps.Gateways, deps.Log.With().Str("component", "customer").Logger())
	staffHandler := handler.NewStaffHandler(deps.Gateways, deps.Log.With().Str("component", "staff").Logger())

	// Every page below resolves the session cookie first.
	pages := e.Group("", middleware.Session(deps.Sessions))

	// --- Session routes ---
	pages.GET("/", authHandler.Root)
	pages.GET(domain.LoginPath, authHandler.LoginPage)
	pages.POST(domain.LoginPath, authHandler.Login)
	pages.POST("/logout", authHandler.Logout)
	pages.GET("/api/session", authHandler.SessionInfo, middleware.Guard(deps.Audit))

	// --- Customer ---
	customer := pages.Group("/customer", middleware.Guard(deps.Audit, domain.RoleCustomer))
	customer.GET("/dashboard", dashboardHandler.Show)
	customer.GET("/dashboard/stream", dashboardHandler.Stream)
	customer.GET("/profile", customerHandler.Profile)
	customer.POST("/profile", customerHandler.UpdateProfile)
	customer.GET("/policies/browse", customerHandler.BrowsePolicies)
	customer.POST("/policies/apply", customerHandler.ApplyPolicy)
	customer.GET("/policies", customerHandler.MyPolicies)
	customer.GET("/claims/new", customerHandler.NewClaim)
	customer.POST("/claims/new", customerHandler.FileClaim)
	customer.GET("/claims", customerHandler.MyClaims)

	// --- Agent ---
	agent := pages.Group("/agent", middleware.Guard(deps.Audit, domain.RoleAgent))
	agent.GET("/dashboard", dashboardHandler.Show)
	agent.GET("/dashboard/stream", dashboardHandler.Stream)
	agent.GET("/claims", staffHandler.ClaimsQueue)
	agent.POST("/claims/:id/decision", staffHandler.DecideClaim)
	agent.GET("/customers", staffHandler.Customers)
	agent.GET("/profile", customerHandler.Profile)
	agent.POST("/profile", customerHandler.UpdateProfile)

	// --- Admin ---
	admin := pages.Group("/admin", middleware.Guard(deps.Audit, domain.RoleAdmin))
	admin.GET("/dashboard", dashboardHandler.Show)
	admin.GET("/dashboard/stream", dashboardHandler.Stream)
	admin.GET("/customers", staffHandler.Customers)
	admin.GET("/agents", staffHandler.Agents)
	admin.GET("/policies", staffHandler.PolicyTemplates)
	admin.GET("/claims", staffHandler.ClaimsQueue)

	return e, nil
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
