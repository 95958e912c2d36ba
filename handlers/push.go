package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"video-processor/pipeline"
	"video-processor/videos"
)

// PushMessage is the inner message of a Pub/Sub push delivery.
type PushMessage struct {
	Data       string            `json:"data"`
	MessageID  string            `json:"messageId"`
	Attributes map[string]string `json:"attributes"`
}

type PushEnvelope struct {
	Message      *PushMessage `json:"message"`
	Subscription string       `json:"subscription"`
}

func badRequest(c echo.Context, msg string) error {
	return c.String(http.StatusBadRequest, "Bad Request: "+msg)
}

// ProcessVideoPost runs the pipeline for one push delivery. Push senders
// retry on non-2xx, so only a successful run answers 2xx.
func (s *Server) ProcessVideoPost(c echo.Context) error {
	var env PushEnvelope
	if err := c.Bind(&env); err != nil {
		return badRequest(c, "invalid Pub/Sub message format")
	}
	if env.Message == nil {
		return badRequest(c, "invalid Pub/Sub message format")
	}

	data, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		log.Warnf("message %s: data is not base64: %v", env.Message.MessageID, err)
		return badRequest(c, "message data is not base64")
	}
	job, err := videos.DecodeUpload(data)
	if err != nil {
		log.Warnf("message %s: %v", env.Message.MessageID, err)
		if errors.Is(err, videos.ErrInvalidName) {
			return badRequest(c, "invalid file name")
		}
		return badRequest(c, "message data is not a JSON upload notification")
	}

	// the job outlives a push client that gives up waiting
	out, err := s.Runner.Run(context.WithoutCancel(c.Request().Context()), job)
	if err != nil {
		log.Errorln(err)
		return c.String(http.StatusInternalServerError, "Internal Server Error: status store unavailable")
	}

	switch out.Result {
	case pipeline.Accepted:
		return c.NoContent(http.StatusNoContent)
	case pipeline.Rejected:
		return badRequest(c, "Video already processed or processing")
	default:
		return c.String(http.StatusInternalServerError, "Internal Server Error: video processing failed")
	}
}
