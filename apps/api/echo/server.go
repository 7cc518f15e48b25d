package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/attendance"
	"github.com/attendix/attendix/core/employee"
	"github.com/attendix/attendix/core/leave"
	"github.com/attendix/attendix/core/task"
	"github.com/attendix/attendix/core/user"
	"github.com/attendix/attendix/core/workspace"
	"github.com/attendix/attendix/services/realtime"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Hub        *realtime.Hub

		UserSvc       *user.Service
		EmployeeSvc   *employee.Service
		AttendanceSvc *attendance.Service
		LeaveSvc      *leave.Service
		TaskSvc       *task.Service
		WorkspaceSvc  *workspace.Service
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "Conf"),
		vala.IsNotNil(deps.Logger, "Logger"),
		vala.IsNotNil(deps.Validate, "Validate"),
		vala.IsNotNil(deps.Translator, "Translator"),
		vala.IsNotNil(deps.Hub, "Hub"),
		vala.IsNotNil(deps.UserSvc, "UserSvc"),
		vala.IsNotNil(deps.EmployeeSvc, "EmployeeSvc"),
		vala.IsNotNil(deps.AttendanceSvc, "AttendanceSvc"),
		vala.IsNotNil(deps.LeaveSvc, "LeaveSvc"),
		vala.IsNotNil(deps.TaskSvc, "TaskSvc"),
		vala.IsNotNil(deps.WorkspaceSvc, "WorkspaceSvc"),
	).CheckAndPanic()

	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: conf.Server.CORSOrigins}))
	if conf.Server.BodyLimit != "" {
		s.app.Use(middleware.BodyLimit(conf.Server.BodyLimit))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(jwtConfig(conf, "header:"+echo.HeaderAuthorization))
	authed := v1.Group("", jwt, actorMiddleware())

	registerAuthAPI(v1.Group("/auth"), jwt, rateLimitMiddleware(conf.RateLimit), s.deps)
	registerEmployeeAPI(authed.Group("/employees", adminMiddleware()), s.deps)
	registerAttendanceAPI(authed.Group("/attendance"), s.deps)
	registerLeaveAPI(authed.Group("/leave"), s.deps)
	registerTaskAPI(authed.Group("/tasks"), s.deps)
	registerWorkspaceAPI(authed.Group("/workspaces"), s.deps)

	// browsers cannot set headers on websocket handshakes
	wsJWT := middleware.JWTWithConfig(jwtConfig(conf, "query:token"))
	v1.GET("/ws", s.serveWS, wsJWT, actorMiddleware())
}

// Start listens on the configured address; listener errors are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
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

// Shutdown stops accepting connections, waits for in-flight requests and disconnects websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.deps.Hub.Close()
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	s.deps.Hub.Close()
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

func (s *Server) serveWS(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	// the hub writes its own response when the upgrade fails
	if err := s.deps.Hub.ServeWS(ctx.Response(), ctx.Request(), actor); err != nil {
		s.deps.Logger.Warn("websocket upgrade", err, actor)
	}
	return nil
}
