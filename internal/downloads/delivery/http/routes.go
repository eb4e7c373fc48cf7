package http

import (
	"github.com/labstack/echo/v4"
	"github.com/mediagrab/cloud-media-fetcher/internal/downloads"
)

func MapDownloadRoutes(v1 *echo.Group, h downloads.Handler) {
	v1.POST("/jobs", h.CreateJob())
	v1.GET("/jobs/:job_id", h.GetJob())
	v1.POST("/jobs/:job_id/cancel", h.CancelJob())
	v1.GET("/history", h.ListHistory())
	v1.GET("/media/info", h.GetMediaInfo())
}
