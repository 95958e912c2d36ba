package main

import (
	"github.com/spf13/cobra"

	"video-processor/consumer"
)

func newConsumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Process upload notifications from a RabbitMQ queue",
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

			c := consumer.New(consumer.Options{
				URL:      cfg.AMQP.URL,
				Queue:    cfg.AMQP.Queue,
				Prefetch: cfg.AMQP.Prefetch,
			}, a.pipeline)
			return c.Run(cmd.Context())
		},
	}
}
