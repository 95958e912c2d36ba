// Package pipeline drives a single video through claim, fetch, transcode,
// publish and finalize, keeping the status record and the local workspace
// consistent on every path.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"video-processor/ffmpeg"
	"video-processor/metrics"
	"video-processor/videos"
	"video-processor/workspace"
)

var log *logrus.Entry = logrus.NewEntry(logrus.StandardLogger())

func Init(logger *logrus.Logger) error {
	log = logger.WithFields(logrus.Fields{
		"component": "pipeline",
	})
	return nil
}

// StatusStore is the part of videos.Store the orchestrator writes through.
type StatusStore interface {
	Claim(ctx context.Context, id, ownerID string) error
	Merge(ctx context.Context, id string, p videos.Patch) error
}

type ObjectStore interface {
	Fetch(ctx context.Context, bucket, name, localPath string) error
	Publish(ctx context.Context, bucket, name, localPath string) error
	MakePublic(ctx context.Context, bucket, name string) error
}

type Transcoder interface {
	Convert(ctx context.Context, src, dst string, res ffmpeg.Resolution) error
}

type Config struct {
	RawBucket       string
	ProcessedBucket string
	Resolution      ffmpeg.Resolution
}

type Orchestrator struct {
	cfg        Config
	store      StatusStore
	objects    ObjectStore
	transcoder Transcoder
	workspace  *workspace.Workspace
}

func New(cfg Config, store StatusStore, objects ObjectStore, transcoder Transcoder, ws *workspace.Workspace) *Orchestrator {
	if cfg.Resolution == "" {
		cfg.Resolution = ffmpeg.DefaultResolution
	}
	return &Orchestrator{
		cfg:        cfg,
		store:      store,
		objects:    objects,
		transcoder: transcoder,
		workspace:  ws,
	}
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// Run processes one job. A non-nil error means the claim itself could not
// be attempted and nothing was changed; every other result is an Outcome.
func (o *Orchestrator) Run(ctx context.Context, job videos.Job) (Outcome, error) {
	entry := log.WithFields(logrus.Fields{
		"video": job.VideoID,
		"run":   uuid.Must(uuid.NewV7()).String(),
	})

	if err := o.store.Claim(ctx, job.VideoID, job.OwnerID); err != nil {
		if errors.Is(err, videos.ErrAlreadyClaimed) {
			entry.Infoln("rejected: video already processed or processing")
			metrics.JobsTotal.WithLabelValues(Rejected.String()).Inc()
			return Outcome{Result: Rejected, Reason: "already processed or processing"}, nil
		}
		metrics.JobsTotal.WithLabelValues("error").Inc()
		return Outcome{}, fmt.Errorf("claim %s: %w", job.VideoID, err)
	}
	entry.Infoln("claimed", job.InputName)

	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()

	rawPath := o.workspace.RawPath(job.InputName)
	processedPath := o.workspace.ProcessedPath(job.OutputName)
	defer o.cleanup(entry, rawPath, processedPath)

	steps := []step{
		{"fetch", func(ctx context.Context) error {
			return o.objects.Fetch(ctx, o.cfg.RawBucket, job.InputName, rawPath)
		}},
		{"transcode", func(ctx context.Context) error {
			return o.transcoder.Convert(ctx, rawPath, processedPath, o.cfg.Resolution)
		}},
		{"publish", func(ctx context.Context) error {
			return o.objects.Publish(ctx, o.cfg.ProcessedBucket, job.OutputName, processedPath)
		}},
		{"make_public", func(ctx context.Context) error {
			return o.objects.MakePublic(ctx, o.cfg.ProcessedBucket, job.OutputName)
		}},
		{"finalize", func(ctx context.Context) error {
			return o.store.Merge(ctx, job.VideoID,
				videos.Patch{}.WithStatus(videos.StatusProcessed).WithOutputName(job.OutputName))
		}},
	}

	for _, s := range steps {
		start := time.Now()
		err := s.run(ctx)
		metrics.StepDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.StepFailuresTotal.WithLabelValues(s.name).Inc()
			return o.fail(ctx, entry, job, s.name, err), nil
		}
		entry.Debugf("%s done in %s", s.name, time.Since(start).Round(time.Millisecond))
	}

	entry.Infoln("processed", job.OutputName)
	metrics.JobsTotal.WithLabelValues(Accepted.String()).Inc()
	return Outcome{Result: Accepted}, nil
}

// fail records the failed status. The write must land even when ctx was
// cancelled, since cancellation is one of the ways a step fails.
func (o *Orchestrator) fail(ctx context.Context, entry *logrus.Entry, job videos.Job, stepName string, cause error) Outcome {
	reason := fmt.Sprintf("%s failed: %v", stepName, cause)
	entry.Errorln(reason)

	patch := videos.Patch{}.WithStatus(videos.StatusFailed).WithError(reason)
	if err := o.store.Merge(context.WithoutCancel(ctx), job.VideoID, patch); err != nil {
		entry.Errorf("couldn't mark video failed: %v", err)
	}

	metrics.JobsTotal.WithLabelValues(Failed.String()).Inc()
	return Outcome{Result: Failed, Reason: reason}
}

func (o *Orchestrator) cleanup(entry *logrus.Entry, paths ...string) {
	if err := o.workspace.Cleanup(paths...); err != nil {
		entry.Warnf("cleanup: %v", err)
	}

	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	if left := o.workspace.Leftovers(names...); len(left) > 0 {
		metrics.CleanupFailuresTotal.Inc()
		entry.Errorf("files left in workspace after cleanup: %v", left)
	}
}
