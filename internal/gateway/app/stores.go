package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"storyboarder/internal/gateway/config"
	"storyboarder/internal/imagestore"
	"storyboarder/internal/sessionstore"
)

type gatewayStores struct {
	images   imagestore.Store
	sessions sessionstore.Store
	closers  []func() error
}

func initStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*gatewayStores, error) {
	out := &gatewayStores{}

	if cfg.Artifact.Enabled {
		s3Store, err := imagestore.NewS3Store(imagestore.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize image s3 store: %w", err)
		}
		logger.Info("image store: s3", "bucket", cfg.Artifact.Bucket, "endpoint", cfg.Artifact.Endpoint)
		out.images = s3Store
	} else {
		logger.Info("image store: memory")
		out.images = imagestore.NewMemoryStore()
	}

	if dsn := strings.TrimSpace(cfg.SessionStoreDSN); dsn != "" {
		pg, err := sessionstore.NewPostgres(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize session store: %w", err)
		}
		logger.Info("session store: postgres")
		out.sessions = pg
		out.closers = append(out.closers, pg.Close)
	} else {
		logger.Info("session store: memory only")
	}
	return out, nil
}
