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

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/enrollment"
	"github.com/trezcool/ums/core/quiz"
	"github.com/trezcool/ums/core/report"
	"github.com/trezcool/ums/core/user"
)

type (
	// ServerDeps holds everything the API server needs.
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		UserSvc        user.Service
		CourseSvc      course.Service
		EnrollmentSvc  enrollment.Service
		QuizSvc        quiz.Service
		ReportSvc      report.Service
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	dg := registerUserAPI(v1, jwt, &userApi{
		svc:        s.deps.UserSvc,
		conf:       conf,
		validate:   s.deps.Validate,
		translator: s.deps.Translator,
	})
	registerCourseAPI(v1, jwt, &courseApi{
		svc:       s.deps.CourseSvc,
		usrSvc:    s.deps.UserSvc,
		enrollSvc: s.deps.EnrollmentSvc,
		quizSvc:   s.deps.QuizSvc,
		validate:  s.deps.Validate,
	})
	registerEnrollmentAPI(v1, dg, jwt, &enrollmentApi{
		svc:      s.deps.EnrollmentSvc,
		usrSvc:   s.deps.UserSvc,
		validate: s.deps.Validate,
	})
	registerQuizAPI(v1, dg, jwt, &quizApi{
		svc:       s.deps.QuizSvc,
		usrSvc:    s.deps.UserSvc,
		courseSvc: s.deps.CourseSvc,
		validate:  s.deps.Validate,
	})
	registerReportAPI(dg, &reportApi{
		svc:    s.deps.ReportSvc,
		usrSvc: s.deps.UserSvc,
	})
}

// Start starts listening; server errors are sent to Errors() and interrupt signals to ShutdownSignal().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
