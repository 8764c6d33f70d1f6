package rest

import (
	"context"
	"net/http"
	"time"

	"outfitJourney/business/feed"
	"outfitJourney/domain"
	"outfitJourney/internal/middleware"
	"outfitJourney/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	FeedHandler struct {
		validate    *validator.Validate
		feedService FeedService
		timeout     time.Duration
		pageSize    int
		samples     int
	}

	FeedService interface {
		GetJourneyFeed(ctx context.Context, id domain.Identity, bucket *string, modeHint string, pageSize, offset int) (feed.JourneyPage, error)
		GetCollectionFeed(ctx context.Context, id domain.Identity, pageSize, offset int) (feed.CollectionPage, error)
		GetOutfitDetail(ctx context.Context, id domain.Identity, outfitID uint64, nSamples int) (feed.DetailPage, error)
		ToggleLike(ctx context.Context, id domain.Identity, outfitID uint64, likeType string, bucket *string) (domain.ToggleResult, error)
		RecordClick(ctx context.Context, id domain.Identity, outfitID uint64, clickType string) error
		RecordShare(ctx context.Context, id domain.Identity, outfitID uint64, shareType string) error
		DebugSelect(ctx context.Context, id domain.Identity, pageSize int) ([]domain.DebugRecommendation, error)
	}

	FeedHandlerConfig struct {
		Timeout         time.Duration
		DefaultPageSize int
		DefaultSamples  int
	}

	PageQuery struct {
		PageSize int    `query:"page_size" validate:"gte=0,lte=100"`
		Offset   int    `query:"offset" validate:"gte=0"`
		RecType  string `query:"rec_type"`
	}

	DetailRequest struct {
		OutfitID uint64 `param:"outfit_id" validate:"required"`
		NSamples int    `query:"n_samples" validate:"gte=0,lte=50"`
	}

	LikeRequest struct {
		OutfitID uint64 `param:"outfit_id" validate:"required"`
		LikeType string `param:"like_type"`
	}

	ClickRequest struct {
		OutfitID  uint64 `param:"outfit_id" validate:"required"`
		ClickType string `param:"click_type"`
	}

	ToggleLikeResponse struct {
		OutfitID uint64              `json:"outfit_id"`
		Liked    bool                `json:"liked"`
		Result   domain.ToggleResult `json:"result"`
	}
)

func NewFeedHandler(svc FeedService, cfg FeedHandlerConfig) *FeedHandler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	if cfg.DefaultSamples <= 0 {
		cfg.DefaultSamples = 3
	}

	return &FeedHandler{
		validate:    validator.New(),
		feedService: svc,
		timeout:     cfg.Timeout,
		pageSize:    cfg.DefaultPageSize,
		samples:     cfg.DefaultSamples,
	}
}

// Instrument records latency and outcome of one feed operation.
func (h *FeedHandler) Instrument(operation string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		outcome := "ok"
		switch {
		case err != nil:
			outcome = "error"
		case c.Response().Status >= http.StatusBadRequest:
			outcome = "rejected"
		}

		metrics.FeedRequestLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		metrics.FeedRequests.WithLabelValues(operation, outcome).Inc()
		return err
	}
}

// GET /api/items/journey?page_size=10&offset=0&rec_type=mab
func (h *FeedHandler) GetJourney(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrInvalidIdentity.Error()})
	}

	q, err := h.bindPage(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	page, err := h.feedService.GetJourneyFeed(ctx, id, middleware.BucketFrom(c), q.RecType, q.PageSize, q.Offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(page))
}

// GET /api/items/collection?page_size=10&offset=0
func (h *FeedHandler) GetCollection(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrInvalidIdentity.Error()})
	}

	q, err := h.bindPage(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	page, err := h.feedService.GetCollectionFeed(ctx, id, q.PageSize, q.Offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(page))
}

// GET /api/items/journey/:outfit_id?n_samples=3
func (h *FeedHandler) GetDetail(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrInvalidIdentity.Error()})
	}

	var req DetailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if req.NSamples == 0 {
		req.NSamples = h.samples
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	page, err := h.feedService.GetOutfitDetail(ctx, id, req.OutfitID, req.NSamples)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(page))
}

// POST /api/items/journey/:outfit_id/like/:like_type
func (h *FeedHandler) ToggleLike(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrInvalidIdentity.Error()})
	}

	var req LikeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.feedService.ToggleLike(ctx, id, req.OutfitID, req.LikeType, middleware.BucketFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(ToggleLikeResponse{
		OutfitID: req.OutfitID,
		Liked:    result.Liked(),
		Result:   result,
	}))
}

// POST /api/items/journey/:outfit_id/click/:click_type
func (h *FeedHandler) RecordClick(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrInvalidIdentity.Error()})
	}

	var req ClickRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.feedService.RecordClick(ctx, id, req.OutfitID, req.ClickType); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("click recorded"))
}

// POST /api/items/journey/:outfit_id/musinsa-share/:click_type
func (h *FeedHandler) RecordShare(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrInvalidIdentity.Error()})
	}

	var req ClickRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.feedService.RecordShare(ctx, id, req.OutfitID, req.ClickType); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("share recorded"))
}

// GET /api/items/journey/debug?page_size=10
func (h *FeedHandler) DebugSelect(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrInvalidIdentity.Error()})
	}

	q, err := h.bindPage(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	recs, err := h.feedService.DebugSelect(ctx, id, q.PageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}

func (h *FeedHandler) bindPage(c echo.Context) (PageQuery, error) {
	var q PageQuery
	if err := c.Bind(&q); err != nil {
		return PageQuery{}, err
	}
	if err := h.validate.Struct(&q); err != nil {
		return PageQuery{}, err
	}
	if q.PageSize == 0 {
		q.PageSize = h.pageSize
	}
	return q, nil
}
