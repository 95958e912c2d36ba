package handlers

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"video-processor/pipeline"
	"video-processor/videos"
	"video-processor/workspace"
)

var log *logrus.Entry = logrus.NewEntry(logrus.StandardLogger())

func Init(logger *logrus.Logger) error {
	log = logger.WithFields(logrus.Fields{
		"component": "handlers",
	})
	return nil
}

type Runner interface {
	Run(ctx context.Context, job videos.Job) (pipeline.Outcome, error)
}

type Records interface {
	Get(ctx context.Context, id string) (videos.Video, error)
}

type Versioner interface {
	Version(ctx context.Context) (string, error)
}

// Server holds what the HTTP surface needs to reach the pipeline.
type Server struct {
	Runner    Runner
	Records   Records
	Ffmpeg    Versioner
	Workspace *workspace.Workspace
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/api/process-video", s.ProcessVideoPost)
	e.GET("/api/videos/:id", s.VideoGet)
	e.GET("/status", s.StatusGet)
	e.GET("/healthz", Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
