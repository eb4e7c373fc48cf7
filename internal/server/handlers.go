package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	downloadsHttp "github.com/mediagrab/cloud-media-fetcher/internal/downloads/delivery/http"
	"github.com/mediagrab/cloud-media-fetcher/internal/downloads/fetcher"
	downloadsRepository "github.com/mediagrab/cloud-media-fetcher/internal/downloads/repository"
	downloadsUsecase "github.com/mediagrab/cloud-media-fetcher/internal/downloads/usecase"
	"github.com/mediagrab/cloud-media-fetcher/internal/telemetry"
	"github.com/mediagrab/cloud-media-fetcher/internal/worker"
	"github.com/mediagrab/cloud-media-fetcher/pkg/utils"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	registry := downloadsRepository.NewJobRegistry()
	history := downloadsRepository.NewHistoryLog(s.cfg.History.Limit)
	awsRepo := downloadsRepository.NewAwsRepository(
		s.s3Client,
		s.preSignClient,
		s.uploader,
		time.Duration(s.cfg.S3.URLExpiryMins)*time.Minute,
	)
	mediaFetcher := fetcher.NewYtdlpFetcher(s.cfg)

	s.pool = worker.NewPool(s.cfg, s.logger, registry, history, awsRepo, mediaFetcher)

	downloadUC := downloadsUsecase.NewDownloadsUseCase(s.cfg, registry, history, mediaFetcher, s.pool, s.logger)
	downloadHandlers := downloadsHttp.NewDownloadHandler(downloadUC)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")

	downloadsHttp.MapDownloadRoutes(v1, downloadHandlers)
	health.GET("", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	e.GET("/metrics", echo.WrapHandler(telemetry.Handler()))

	if s.cfg.Server.StaticDir != "" {
		e.Static("/", s.cfg.Server.StaticDir)
	}
	return nil
}
