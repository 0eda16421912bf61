package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/clipforge/backend/internal/config"
	"github.com/clipforge/backend/internal/db"
	"github.com/clipforge/backend/internal/delivery"
	"github.com/clipforge/backend/internal/handlers"
	"github.com/clipforge/backend/internal/mediahost"
	"github.com/clipforge/backend/internal/middleware"
	"github.com/clipforge/backend/internal/notify"
	"github.com/clipforge/backend/internal/projects"
	"github.com/clipforge/backend/internal/repositories"
	"github.com/clipforge/backend/internal/storage"
	"github.com/clipforge/backend/internal/uploads"
)

// backgroundTasks groups the server-resident workers started by serve.
type backgroundTasks struct {
	reconciler *delivery.Reconciler
	archiver   *delivery.Archiver
	interval   time.Duration
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers and the background reconciliation machinery.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, backgroundTasks, error) {
	host := mediahost.NewHTTPClient(cfg.MediaHost)
	repo := repositories.NewPostgresProjectRepository(pool)
	lifecycle := projects.NewService(repo)

	broker := uploads.NewBroker(host, cfg.Upload.MaxFileBytes)
	poller := mediahost.NewPoller(host, cfg.Upload.VerifyInterval, cfg.Upload.VerifyAttempts, logger)

	sender := notify.NewSender(cfg.Notify)
	board := notify.NewBoardMirror(cfg.Notify)

	var (
		archiver    *delivery.Archiver
		archiveSink delivery.ArchiveSink
	)
	if cfg.Archive.Bucket != "" {
		store, err := storage.NewS3Archive(ctx, cfg.Archive)
		if err != nil {
			return handlers.Dependencies{}, backgroundTasks{}, err
		}
		archiver = delivery.NewArchiver(host, store, delivery.ArchiverConfig{}, logger)
		archiveSink = archiver
	}

	reconciler := delivery.NewReconciler(repo, host, lifecycle, sender, board, archiveSink,
		delivery.ReconcilerConfig{
			Interval:      cfg.Reconcile.Interval,
			PublicBaseURL: cfg.PublicBaseURL,
		}, logger)

	deps := handlers.Dependencies{
		Broker:       broker,
		Verifier:     poller,
		Projects:     lifecycle,
		Files:        delivery.NewBrowser(repo, repo, host),
		UploadLimits: middleware.NewIPRateLimiter(30, time.Minute, 10, 10*time.Minute),
	}

	return deps, backgroundTasks{reconciler: reconciler, archiver: archiver, interval: cfg.Reconcile.Interval}, nil
}
