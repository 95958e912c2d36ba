package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) StatusGet(c echo.Context) error {

	version, err := s.Ffmpeg.Version(c.Request().Context())
	if err != nil {
		log.Errorln(err)
	}

	usage, err := s.Workspace.Usage()
	if err != nil {
		log.Errorln(err)
	}

	freeMiB := float64(usage.FreeBytes) / 1024 / 1024
	usedMiB := float64(usage.UsedBytes) / 1024 / 1024

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ffmpeg": version,
		"free":   fmt.Sprintf("%.2f", freeMiB),
		"used":   fmt.Sprintf("%.2f", usedMiB),
		"files":  usage.Files,
		"build":  MakeFooter(),
	})
}
