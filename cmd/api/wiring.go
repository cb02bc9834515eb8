package main

import (
	"context"
	"fmt"

	"github.com/krsnavtr-code/gallery/internal/blob"
	"github.com/krsnavtr-code/gallery/internal/config"
	"github.com/krsnavtr-code/gallery/internal/media"
	"github.com/krsnavtr-code/gallery/internal/server"
	"github.com/krsnavtr-code/gallery/internal/storage"
	"github.com/krsnavtr-code/gallery/internal/tag"
	"go.uber.org/zap"
)

// metadata bundles the repositories of whichever driver is configured.
type metadata struct {
	media media.Store
	tags  tag.Store
	ping  server.PingFunc
	close func()
}

func openMetadata(ctx context.Context, cfg config.MetadataConfig, migrate bool, log *zap.Logger) (*metadata, error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if migrate {
			if err := storage.MigratePostgres(ctx, pool, log); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &metadata{
			media: media.NewRepository(pool),
			tags:  tag.NewRepository(pool),
			ping:  pool.Ping,
			close: pool.Close,
		}, nil

	case "sqlite":
		db, err := storage.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := media.MigrateSQLite(db); err != nil {
				_ = storage.CloseSQLite(db)
				return nil, err
			}
			if err := tag.MigrateSQLite(db); err != nil {
				_ = storage.CloseSQLite(db)
				return nil, err
			}
			log.Info("sqlite schema migrated", zap.String("path", cfg.SQLite.Path))
		}
		return &metadata{
			media: media.NewSQLiteRepository(db),
			tags:  tag.NewSQLiteRepository(db),
			ping:  storage.PingSQLite(db),
			close: func() {
				if err := storage.CloseSQLite(db); err != nil {
					log.Warn("close sqlite", zap.Error(err))
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported metadata driver %q", cfg.Driver)
	}
}

func openBlobs(ctx context.Context, cfg config.BlobConfig, log *zap.Logger) (blob.Store, error) {
	switch cfg.Driver {
	case "fs":
		return blob.NewFSStore(cfg.RootDir, log)

	case "minio":
		client, err := storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("connect minio: %w", err)
		}
		if err := storage.EnsureBucket(ctx, client, cfg.MinIO, log); err != nil {
			return nil, err
		}
		return blob.NewMinIOStore(client, cfg.MinIO.Bucket, cfg.MinIO.PresignTTL, log), nil

	default:
		return nil, fmt.Errorf("unsupported blob driver %q", cfg.Driver)
	}
}

func newServices(cfg config.Config, meta *metadata, blobs blob.Store, log *zap.Logger) (*media.Service, *tag.Service) {
	mediaService := media.NewService(meta.media, blobs, media.Options{
		PublicPrefix:     cfg.Blob.PublicPrefix,
		MaxUploadBytes:   cfg.Blob.MaxUploadBytes,
		BatchDeleteWidth: cfg.Media.BatchDeleteWidth,
		Logger:           log.Named("media"),
	})
	tagService := tag.NewService(meta.tags, meta.media, log.Named("tag"))
	return mediaService, tagService
}
