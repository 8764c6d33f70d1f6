package router

import (
	"outfitJourney/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupFeedRoutes(api *echo.Group, handler *rest.FeedHandler, identityRequired echo.MiddlewareFunc) {
	items := api.Group("/items", identityRequired)

	items.GET("/journey", handler.Instrument("journey", handler.GetJourney))
	items.GET("/journey/debug", handler.Instrument("debug_select", handler.DebugSelect))
	items.GET("/journey/:outfit_id", handler.Instrument("detail", handler.GetDetail))
	items.GET("/collection", handler.Instrument("collection", handler.GetCollection))

	items.POST("/journey/:outfit_id/like/:like_type", handler.Instrument("toggle_like", handler.ToggleLike))
	items.POST("/journey/:outfit_id/click/:click_type", handler.Instrument("click", handler.RecordClick))
	items.POST("/journey/:outfit_id/musinsa-share/:click_type", handler.Instrument("share", handler.RecordShare))
}

func SetupMetricsRoutes(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
