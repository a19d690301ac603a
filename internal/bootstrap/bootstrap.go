// Package bootstrap provides dependency initialization for the studio API.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lumenframe/studio-api/internal/auth"
	"github.com/lumenframe/studio-api/internal/compress"
	"github.com/lumenframe/studio-api/internal/config"
	"github.com/lumenframe/studio-api/internal/content"
	"github.com/lumenframe/studio-api/internal/instagram"
	"github.com/lumenframe/studio-api/internal/media"
	"github.com/lumenframe/studio-api/internal/pipeline"
	"github.com/lumenframe/studio-api/internal/server"
	"github.com/lumenframe/studio-api/internal/session"
	"github.com/lumenframe/studio-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Handlers *server.Handlers
	Auth     *auth.Service
	Sessions *session.Manager
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	db, err := content.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repo := content.NewPostgresStore(db)

	store, err := storage.NewS3Store(storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		PublicBaseURL:   cfg.S3PublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 store: %w", err)
	}
	logger.Info("S3 storage configured",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("region", cfg.S3Region),
	)

	// Media processing
	processor := media.NewFFmpegProcessor("")
	transcoder := compress.NewFFmpegTranscoder("")
	engine := compress.NewEngine(transcoder, processor, cfg.TempDir, logger)

	sessions := session.NewManager(logger)

	compressOpts := compress.Options{
		TargetSizeMB: cfg.CompressionTargetMB,
		Quality:      compress.Quality(cfg.CompressionQuality),
		RemoveAudio:  cfg.CompressionRemoveAudio,
		MaxWidth:     cfg.CompressionMaxWidth,
		MaxHeight:    cfg.CompressionMaxHeight,
		FPS:          cfg.CompressionFPS,
	}

	pipe := pipeline.NewService(store, engine, processor, sessions, logger, pipeline.Config{
		ThresholdMB:             cfg.CompressionThresholdMB,
		CompressOptions:         compressOpts,
		MaxConcurrentTranscodes: cfg.MaxConcurrentTranscodes,
		TempDir:                 cfg.TempDir,
		ImageMaxWidth:           cfg.CompressionMaxWidth,
		ImageMaxHeight:          cfg.CompressionMaxHeight,
	})

	authSvc := auth.NewService(repo, cfg.JWTSecret)

	igClient, err := initInstagram(cfg, logger)
	if err != nil {
		return nil, err
	}

	handlers := server.NewHandlers(server.HandlersConfig{
		Pipeline:         pipe,
		Sessions:         sessions,
		Auth:             authSvc,
		Instagram:        igClient,
		Homepage:         repo,
		Portfolio:        repo,
		Team:             repo,
		Intake:           repo,
		CompressDefaults: compressOpts,
	}, logger)

	return &Dependencies{
		Handlers: handlers,
		Auth:     authSvc,
		Sessions: sessions,
	}, nil
}

// initInstagram builds the feed client, or a disabled stand-in when no
// access token is configured.
func initInstagram(cfg *config.Config, logger *slog.Logger) (instagram.Client, error) {
	if !cfg.InstagramEnabled() {
		logger.Info("instagram proxy disabled: no access token configured")
		return disabledInstagram{}, nil
	}

	var opts []instagram.ClientOption
	if cfg.InstagramBaseURL != "" {
		opts = append(opts, instagram.WithBaseURL(cfg.InstagramBaseURL))
	}
	client, err := instagram.NewClient(cfg.InstagramAccessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create instagram client: %w", err)
	}
	return client, nil
}

// disabledInstagram serves an empty feed when the proxy is not configured.
type disabledInstagram struct{}

func (disabledInstagram) RecentMedia(_ context.Context, _ int, _ string) (*instagram.Feed, error) {
	return &instagram.Feed{Posts: []instagram.Post{}}, nil
}
