package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/agenda"
	"github.com/enactus/membership/core/attendance"
	"github.com/enactus/membership/core/dashboard"
	"github.com/enactus/membership/core/member"
	"github.com/enactus/membership/core/notify"
	"github.com/enactus/membership/core/post"
	"github.com/enactus/membership/services/metrics"
	"github.com/enactus/membership/services/ratelimit"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		MemberSvc     *member.Service
		AttendanceSvc *attendance.Service
		Notifier      *notify.Controller
		AgendaSvc     *agenda.Service
		PostSvc       *post.Service
		DashboardSvc  *dashboard.Service

		Metrics *metricsvc.Metrics
		Limiter ratelimit.Limiter

		DisableReqLogs bool
	}

	Server struct {
		ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		ServerDeps: deps,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	if !(s.Conf.Debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.signalShutdown)
	s.app.Debug = s.Conf.Debug

	s.app.GET("/", s.home)
	if s.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(s.Conf))
	admin := adminMiddleware(s.MemberSvc)
	limit := rateLimitMiddleware(s.Limiter, s.Metrics, s.Logger)

	registerUserAPI(v1, jwt, admin, s.Conf, s.MemberSvc, s.Validate)
	registerAttendanceAPI(v1, jwt, admin, s.AttendanceSvc, s.MemberSvc, s.Notifier, s.Validate)
	registerEmailAPI(v1, jwt, admin, limit, s.Notifier)
	registerEventAPI(v1, jwt, admin, s.AgendaSvc, s.MemberSvc, s.Validate)
	registerPostAPI(v1, jwt, admin, s.PostSvc, s.MemberSvc, s.Validate)
	registerDashboardAPI(v1, jwt, admin, s.DashboardSvc)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Welcome to the " + s.Conf.AppName + " API!"})
}

// Start starts the HTTP server. Listen errors are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }

func (s *Server) Close() error { return s.app.Close() }

// ServeHTTP for tests
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}
