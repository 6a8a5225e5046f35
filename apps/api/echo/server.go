package echoapi

import (
	"context"
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/category"
	"github.com/trezcool/bossmaker/core/course"
	"github.com/trezcool/bossmaker/core/upload"
	"github.com/trezcool/bossmaker/core/user"
	"github.com/trezcool/bossmaker/storage/files"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		UserSvc     user.ServiceInterface
		CategorySvc category.ServiceInterface
		CourseSvc   course.ServiceInterface
		UploadSvc   upload.ServiceInterface
		FileStore   *files.Local

		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		SignalShutdown func()
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
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	s.app.Use(middleware.CORS())
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.SignalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/health", health)
	s.app.Static("/uploads", core.Conf.UploadsDir)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerAuthAPI(api, s.opts)
	registerUserAPI(api, jwt, s.opts)
	registerProfileAPI(api, jwt, s.opts)
	registerCategoryAPI(api, jwt, s.opts)
	registerCourseAPI(api, jwt, s.opts)
	registerUploadAPI(api, s.opts)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}
