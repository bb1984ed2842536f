// Package api exposes the review scheduler over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/example/reviewsched/internal/logger"
	"github.com/example/reviewsched/internal/review"
)

// LearnerHeader carries the learner identity established by the upstream gateway.
const LearnerHeader = "X-Learner-ID"

type (
	Options struct {
		Address        string
		Debug          bool
		DisableReqLogs bool
		Ratings        *review.RatingService
		Selector       *review.Selector
		Sessions       *review.SessionManager
		Logger         *logger.Logger
		// Clock supplies "now" for every request. Defaults to time.Now.
		Clock func() time.Time
	}

	Server struct {
		opts *Options
		app  *echo.Echo
	}
)

// NewServer wires the routes and middleware.
func NewServer(opts *Options) *Server {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	s := &Server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	validate, translator := newValidator()

	s.app.HideBanner = true
	s.app.Debug = s.opts.Debug
	s.app.Logger.SetLevel(s.opts.Logger.Level())
	s.app.Validator = &requestValidator{validate: validate}
	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.opts.Logger, translator)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestID())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	if !s.opts.Debug {
		s.app.Use(middleware.Recover())
	}

	s.app.GET("/health", health)

	v1 := s.app.Group("/v1", learnerMiddleware())
	registerReviewAPI(v1, s.opts)
}

// Start serves until the server is shut down.
func (s *Server) Start() error {
	err := s.app.Start(s.opts.Address)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

const learnerContextKey = "learner_id"

// learnerMiddleware rejects requests without an established learner identity.
func learnerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			learnerID := ctx.Request().Header.Get(LearnerHeader)
			if learnerID == "" {
				return errUnauthenticated
			}
			ctx.Set(learnerContextKey, learnerID)
			return next(ctx)
		}
	}
}

func learnerID(ctx echo.Context) string {
	id, _ := ctx.Get(learnerContextKey).(string)
	return id
}
