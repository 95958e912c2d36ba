package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"video-processor/config"
	"video-processor/consumer"
	"video-processor/database"
	"video-processor/ffmpeg"
	"video-processor/handlers"
	"video-processor/pipeline"
	"video-processor/storage"
	"video-processor/videos"
	"video-processor/workspace"
)

// app is everything one command needs, built from the configuration.
type app struct {
	cfg        *config.Config
	store      videos.Store
	objects    pipeline.ObjectStore
	transcoder *ffmpeg.Transcoder
	workspace  *workspace.Workspace
	pipeline   *pipeline.Orchestrator
	closers    []func()
}

func initComponents() {
	log.Infof("GitSHA: %s", config.GetGitSHA())
	log.Infof("BuildDate: %s", config.GetBuildDate())

	database.Init(log)
	videos.Init(log)
	workspace.Init(log)
	storage.Init(log)
	ffmpeg.Init(log)
	pipeline.Init(log)
	handlers.Init(log)
	consumer.Init(log)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	initComponents()

	a := &app{cfg: cfg}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.store = store

	switch cfg.Storage.Backend {
	case "local":
		a.objects = storage.NewLocal(cfg.Storage.LocalRoot)
	default:
		m, err := storage.NewMinio(storage.MinioOptions{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Region:    cfg.Storage.Region,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		a.objects = m
	}

	a.workspace = workspace.New(cfg.Workspace.RawDir, cfg.Workspace.ProcessedDir)
	if err := a.workspace.Ensure(); err != nil {
		a.close()
		return nil, err
	}

	res, err := ffmpeg.ParseResolution(cfg.Ffmpeg.Resolution)
	if err != nil {
		a.close()
		return nil, err
	}
	a.transcoder = ffmpeg.New(cfg.Ffmpeg.Binary, cfg.Ffmpeg.ProbeBinary)

	a.pipeline = pipeline.New(pipeline.Config{
		RawBucket:       cfg.Buckets.Raw,
		ProcessedBucket: cfg.Buckets.Processed,
		Resolution:      res,
	}, a.store, a.objects, a.transcoder, a.workspace)

	return a, nil
}

func (a *app) openStore(ctx context.Context) (videos.Store, error) {
	switch a.cfg.Status.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Status.RedisAddr,
			Password: a.cfg.Status.RedisPassword,
			DB:       a.cfg.Status.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect to redis %s: %w", a.cfg.Status.RedisAddr, err)
		}
		a.closers = append(a.closers, func() { client.Close() })
		return videos.NewRedisStore(client, a.cfg.Status.RedisPrefix), nil
	default:
		db, err := database.Open(a.cfg.Status.SqlitePath)
		if err != nil {
			return nil, err
		}
		if err := videos.Migrate(db); err != nil {
			database.Close(db)
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.closers = append(a.closers, func() { database.Close(db) })
		return videos.NewGormStore(db), nil
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
