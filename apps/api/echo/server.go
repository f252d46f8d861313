package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/darasa/platform/core"
	"github.com/darasa/platform/core/auth"
	"github.com/darasa/platform/core/realtime"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		AuthSvc        *auth.Service
		Hub            *realtime.Hub
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool

		// SignalShutdown is invoked when an unrecoverable integrity error
		// is caught; the owner should drain and stop the server.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start() error
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

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(correlationIDMiddleware)
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	signalShutdown := s.opts.SignalShutdown
	if signalShutdown == nil {
		signalShutdown = func() {}
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	guard := NewGuard(s.opts.AuthSvc.Tokens(), s.opts.Logger)

	registerAuthAPI(v1, guard, s.opts.AuthSvc, s.opts.Validate, s.opts.Translator)
	registerWSAPI(v1, s.opts.AuthSvc.Tokens(), s.opts.Hub, s.opts.Logger)
}

// Guard exposes the middleware chain so entity APIs (courses, students...)
// registered elsewhere can compose the same authentication, role and
// tenant checks.
func (s *server) Guard() *Guard {
	return NewGuard(s.opts.AuthSvc.Tokens(), s.opts.Logger)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Conf.Server.Addr)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
