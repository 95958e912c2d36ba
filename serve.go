package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"video-processor/handlers"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Accept Pub/Sub push deliveries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			e := newEcho(a)
			return serve(cmd.Context(), e, cfg.HTTP.Listen)
		},
	}
}

func newEcho(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &handlers.Server{
		Runner:    a.pipeline,
		Records:   a.store,
		Ffmpeg:    a.transcoder,
		Workspace: a.workspace,
	}
	s.Register(e)
	return e
}

// serve runs e until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, e *echo.Echo, listen string) error {
	errc := make(chan error, 1)
	go func() {
		log.Infoln("listening on", listen)
		errc <- e.Start(listen)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
