package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mediagrab/cloud-media-fetcher/internal/downloads"
	"github.com/mediagrab/cloud-media-fetcher/internal/models"
)

type downloadHandler struct {
	downloadUC downloads.UseCase
}

func NewDownloadHandler(downloadUC downloads.UseCase) downloads.Handler {
	return &downloadHandler{
		downloadUC: downloadUC,
	}
}

func (h *downloadHandler) CreateJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.DownloadInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		job, err := h.downloadUC.CreateJob(c.Request().Context(), input)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusAccepted, map[string]string{"job_id": job.JobID})
	}
}

func (h *downloadHandler) GetJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		job, err := h.downloadUC.GetJob(c.Request().Context(), c.Param("job_id"))
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, job)
	}
}

func (h *downloadHandler) CancelJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := h.downloadUC.CancelJob(c.Request().Context(), c.Param("job_id")); err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "cancellation requested"})
	}
}

func (h *downloadHandler) ListHistory() echo.HandlerFunc {
	return func(c echo.Context) error {
		entries, err := h.downloadUC.ListHistory(c.Request().Context())
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, entries)
	}
}

func (h *downloadHandler) GetMediaInfo() echo.HandlerFunc {
	return func(c echo.Context) error {
		sourceURL := c.QueryParam("url")
		if sourceURL == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "url query param is required"})
		}
		info, err := h.downloadUC.GetMediaInfo(c.Request().Context(), sourceURL)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, info)
	}
}

// errorResponse maps domain errors onto status codes. Anything not
// recognized is treated as a bad request.
func errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, downloads.ErrJobNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, downloads.ErrJobNotActive):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, downloads.ErrQueueFull), errors.Is(err, downloads.ErrBucketNotConfigured):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
}
