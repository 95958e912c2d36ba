package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"video-processor/videos"
)

func (s *Server) VideoGet(c echo.Context) error {
	id := c.Param("id")

	video, err := s.Records.Get(c.Request().Context(), id)
	if errors.Is(err, videos.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "video not found"})
	} else if err != nil {
		log.Errorln(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "couldn't load video"})
	}

	return c.JSON(http.StatusOK, video)
}

func Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
