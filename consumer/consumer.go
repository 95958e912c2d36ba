// Package consumer feeds upload notifications from a RabbitMQ queue into the
// pipeline.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"video-processor/metrics"
	"video-processor/pipeline"
	"video-processor/videos"
)

var log *logrus.Entry = logrus.NewEntry(logrus.StandardLogger())

func Init(logger *logrus.Logger) error {
	log = logger.WithFields(logrus.Fields{
		"component": "consumer",
	})
	return nil
}

var errDeliveriesClosed = errors.New("delivery channel closed")

type Runner interface {
	Run(ctx context.Context, job videos.Job) (pipeline.Outcome, error)
}

type Options struct {
	URL      string
	Queue    string
	Prefetch int
}

type Consumer struct {
	opts   Options
	runner Runner
}

func New(opts Options, runner Runner) *Consumer {
	if opts.Prefetch < 1 {
		opts.Prefetch = 1
	}
	return &Consumer{opts: opts, runner: runner}
}

// Run consumes until ctx is cancelled or the broker closes the channel.
// Cancelling stops new deliveries; in-flight jobs run to completion and are
// settled before returning.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.opts.URL)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		c.opts.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", c.opts.Queue, err)
	}

	if err := ch.Qos(c.opts.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		q.Name,            // queue
		"video-processor", // consumer
		false,             // auto-ack
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", q.Name, err)
	}

	log.Infof("consuming %s with prefetch %d", q.Name, c.opts.Prefetch)
	return c.serve(ctx, deliveries)
}

func (c *Consumer) serve(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Infoln("consumer stopping")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errDeliveriesClosed
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.handle(ctx, d)
			}()
		}
	}
}

// handle settles exactly once per delivery. Outcomes are final and acked;
// only a store outage is worth redelivering.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	job, err := videos.DecodeUpload(d.Body)
	if err != nil {
		log.Warnf("dropping delivery %d: %v", d.DeliveryTag, err)
		settle("drop", d.Nack(false, false))
		return
	}

	out, err := c.runner.Run(context.WithoutCancel(ctx), job)
	if err != nil {
		log.Errorf("requeueing %s: %v", job.InputName, err)
		settle("requeue", d.Nack(false, true))
		return
	}

	log.Infof("%s: %s", job.InputName, out)
	settle("ack", d.Ack(false))
}

func settle(settlement string, err error) {
	if err != nil {
		log.Errorf("couldn't %s delivery: %v", settlement, err)
		return
	}
	metrics.DeliveriesTotal.WithLabelValues(settlement).Inc()
}
