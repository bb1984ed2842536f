package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/example/reviewsched/internal/review"
	"github.com/example/reviewsched/pkg/models"
)

type (
	RatingRequest struct {
		ItemID string `json:"item_id" validate:"required,max=255"`
		Rating int    `json:"rating"`
	}

	RatingResponse struct {
		NextReviewAt time.Time `json:"next_review_at"`
		IntervalDays float64   `json:"interval_days"`
	}

	DueResponse struct {
		TotalDue       int        `json:"total_due"`
		NextReviewDate *time.Time `json:"next_review_date"`
	}

	NoDueItemsResponse struct {
		Status string `json:"status"`
	}
)

type reviewApi struct {
	ratings  *review.RatingService
	selector *review.Selector
	sessions *review.SessionManager
	now      func() time.Time
}

func registerReviewAPI(g *echo.Group, opts *Options) {
	api := reviewApi{
		ratings:  opts.Ratings,
		selector: opts.Selector,
		sessions: opts.Sessions,
		now:      opts.Clock,
	}

	g.POST("/ratings", api.rate)
	g.GET("/due", api.due)

	sg := g.Group("/sessions")
	sg.POST("", api.startSession)
	sg.GET("/:id", api.retrieveSession)
	sg.POST("/:id/complete", api.completeSession)
}

func (api *reviewApi) rate(ctx echo.Context) error {
	var data RatingRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := ctx.Validate(&data); err != nil {
		return err
	}

	res, err := api.ratings.SubmitRating(ctx.Request().Context(), learnerID(ctx), data.ItemID, models.Rating(data.Rating), api.now())
	if err != nil {
		return errors.Wrap(err, "submitting rating")
	}
	return ctx.JSON(http.StatusOK, RatingResponse{
		NextReviewAt: res.NextReviewAt.UTC(),
		IntervalDays: res.IntervalDays,
	})
}

func (api *reviewApi) due(ctx echo.Context) error {
	summary, err := api.selector.DueCount(ctx.Request().Context(), learnerID(ctx), api.now())
	if err != nil {
		return errors.Wrap(err, "counting due items")
	}

	resp := DueResponse{TotalDue: summary.TotalDue}
	if summary.NextReviewDate != nil {
		next := summary.NextReviewDate.UTC()
		resp.NextReviewDate = &next
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *reviewApi) startSession(ctx echo.Context) error {
	session, err := api.sessions.StartSession(ctx.Request().Context(), learnerID(ctx), api.now())
	if errors.Is(err, review.ErrNoDueItems) {
		return ctx.JSON(http.StatusOK, NoDueItemsResponse{Status: "no_due_items"})
	}
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	return ctx.JSON(http.StatusCreated, session)
}

func (api *reviewApi) retrieveSession(ctx echo.Context) error {
	session, err := api.sessions.GetSession(ctx.Request().Context(), learnerID(ctx), ctx.Param("id"))
	if errors.Is(err, review.ErrSessionNotFound) {
		return errHttpNotFound
	}
	if err != nil {
		return errors.Wrap(err, "getting session")
	}
	return ctx.JSON(http.StatusOK, session)
}

func (api *reviewApi) completeSession(ctx echo.Context) error {
	session, err := api.sessions.CompleteSession(ctx.Request().Context(), learnerID(ctx), ctx.Param("id"), api.now())
	if errors.Is(err, review.ErrSessionNotFound) {
		return errHttpNotFound
	}
	if err != nil {
		return errors.Wrap(err, "completing session")
	}
	return ctx.JSON(http.StatusOK, session)
}
