package api

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/example/reviewsched/internal/logger"
	"github.com/example/reviewsched/internal/review"
)

var (
	errUnauthenticated = echo.NewHTTPError(http.StatusUnauthorized, "learner not authenticated")
	errHttpNotFound    = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newHTTPErrorHandler returns an echo.HTTPErrorHandler that knows how to map review errors.
func newHTTPErrorHandler(log *logger.Logger, translator ut.Translator) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		var httpErr *echo.HTTPError
		var fieldErrs validator.ValidationErrors
		switch {
		case errors.As(err, &httpErr):
			code = httpErr.Code
			message = httpErr.Message
		case errors.As(err, &fieldErrs):
			flds := make(map[string]string, len(fieldErrs))
			for _, fe := range fieldErrs {
				flds[fe.Field()] = fe.Translate(translator)
			}
			code = http.StatusBadRequest
			message = flds
		case errors.Is(err, review.ErrInvalidRating):
			code = http.StatusBadRequest
			message = review.ErrInvalidRating.Error()
		case errors.Is(err, review.ErrInvalidArgument):
			code = http.StatusBadRequest
			message = err.Error()
		case errors.Is(err, review.ErrSessionNotFound):
			code = http.StatusNotFound
			message = review.ErrSessionNotFound.Error()
		case errors.Is(err, review.ErrSessionClosed):
			code = http.StatusConflict
			message = review.ErrSessionClosed.Error()
		case errors.Is(err, review.ErrStorageUnavailable):
			code = http.StatusServiceUnavailable
			message = review.ErrStorageUnavailable.Error()
			log.Errorf("%s %s: %v", ctx.Request().Method, ctx.Path(), err)
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)
			log.Errorf("%s %s: %+v", ctx.Request().Method, ctx.Path(), err)
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				log.Error(err)
			}
		}
	}
}
