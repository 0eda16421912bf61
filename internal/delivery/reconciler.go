package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/clipforge/backend/internal/logging"
	"github.com/clipforge/backend/internal/models"
	"github.com/clipforge/backend/internal/repositories"
)

// ProjectSource supplies the projects awaiting a deliverable and the cutoff
// bookkeeping for revision cycles.
type ProjectSource interface {
	ListAwaitingDelivery(ctx context.Context) ([]models.Project, error)
	LatestRevisionCutoff(ctx context.Context, projectID string) (time.Time, error)
}

// AssetLister lists the remote folder contents for a project.
type AssetLister interface {
	ListFolderAssets(ctx context.Context, folderRef string) ([]models.RemoteAsset, error)
}

// Transitioner moves a project to video_is_ready.
type Transitioner interface {
	MarkDelivered(ctx context.Context, projectID string) (models.Project, error)
}

// DeliverySink receives best-effort follow-ups after a transition: the user
// notification, the board mirror, and the archive copy.
type DeliverySink interface {
	SendDeliveryNotification(ctx context.Context, projectID, recipient, viewURL string) error
}

// BoardSink mirrors the transition onto the external task board.
type BoardSink interface {
	MoveCardToWaitingApproval(ctx context.Context, projectID string, isRevision bool) error
}

// ArchiveSink schedules a private archive copy of the deliverable.
type ArchiveSink interface {
	EnqueueArchive(ctx context.Context, projectID string, asset models.RemoteAsset) error
}

// Reconciler periodically compares each waiting project's remote folder
// against its cutoff timestamp and promotes projects whose deliverable has
// landed. It is the only component allowed to move projects into
// video_is_ready.
type Reconciler struct {
	source   ProjectSource
	assets   AssetLister
	projects Transitioner
	notify   DeliverySink
	board    BoardSink
	archive  ArchiveSink

	interval time.Duration
	viewBase string
	logger   *slog.Logger

	sweeping atomic.Bool
}

// ReconcilerConfig bundles the optional knobs for NewReconciler.
type ReconcilerConfig struct {
	Interval      time.Duration
	PublicBaseURL string
}

// NewReconciler wires the reconciliation sweep. notify, board, and archive
// may be nil; the corresponding follow-ups are skipped.
func NewReconciler(source ProjectSource, assets AssetLister, projects Transitioner,
	notify DeliverySink, board BoardSink, archive ArchiveSink,
	cfg ReconcilerConfig, logger *slog.Logger) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		source:   source,
		assets:   assets,
		projects: projects,
		notify:   notify,
		board:    board,
		archive:  archive,
		interval: cfg.Interval,
		viewBase: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		logger:   logger,
	}
}

// Run sweeps on a fixed schedule until the context is cancelled. A tick that
// fires while the previous sweep is still running is skipped, never run
// concurrently over the same project set.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil && !errors.Is(err, errSweepInFlight) {
				r.logger.Error("reconciliation sweep failed", "error", err)
			}
		}
	}
}

var errSweepInFlight = errors.New("reconciliation sweep already running")

// Sweep runs one reconciliation pass. A failure for one project is logged and
// never aborts the pass for the others.
func (r *Reconciler) Sweep(ctx context.Context) error {
	if !r.sweeping.CompareAndSwap(false, true) {
		return errSweepInFlight
	}
	defer r.sweeping.Store(false)

	ctx = logging.WithLogger(ctx, r.logger)
	ctx, span := logging.StartSpan(ctx, "reconciliation-sweep")
	defer span.End()

	waiting, err := r.source.ListAwaitingDelivery(ctx)
	if err != nil {
		return fmt.Errorf("list awaiting projects: %w", err)
	}

	for _, project := range waiting {
		if err := r.reconcileProject(ctx, project); err != nil {
			r.logger.Error("reconcile project", "projectId", project.ID, "status", project.Status, "error", err)
		}
	}

	return nil
}

func (r *Reconciler) reconcileProject(ctx context.Context, project models.Project) error {
	logger := r.logger.With("projectId", project.ID, "status", string(project.Status))

	if strings.TrimSpace(project.MediaFolderRef) == "" {
		logger.Debug("skipping project without media folder")
		return nil
	}

	cutoff, ok, err := r.cutoffFor(ctx, project)
	if err != nil {
		return fmt.Errorf("determine cutoff: %w", err)
	}
	if !ok {
		// Without a cutoff any asset in the folder might be a stale
		// pre-existing file, so fail closed and leave the status alone.
		logger.Debug("no cutoff determinable, leaving project untouched")
		return nil
	}

	assets, err := r.assets.ListFolderAssets(ctx, project.MediaFolderRef)
	if err != nil {
		return fmt.Errorf("list folder assets: %w", err)
	}

	deliverable, ok := SelectDeliverable(assets, cutoff)
	if !ok {
		logger.Debug("no qualifying deliverable this cycle", "assets", len(assets))
		return nil
	}

	isRevision := project.Status == models.StatusRevisionInProgress

	updated, err := r.projects.MarkDelivered(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}

	logger.Info("deliverable detected",
		"assetId", deliverable.RemoteID,
		"assetName", deliverable.Name,
		"activity", deliverable.LatestActivity(),
		"newStatus", string(updated.Status),
	)

	r.followUp(ctx, updated, deliverable, isRevision, logger)
	return nil
}

// cutoffFor resolves the reference time separating a fresh deliverable from
// pre-existing folder contents. ok is false when no cutoff can be determined.
func (r *Reconciler) cutoffFor(ctx context.Context, project models.Project) (time.Time, bool, error) {
	switch project.Status {
	case models.StatusRevisionInProgress:
		cutoff, err := r.source.LatestRevisionCutoff(ctx, project.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return time.Time{}, false, nil
			}
			return time.Time{}, false, err
		}
		return cutoff, true, nil
	case models.StatusEditInProgress:
		if project.SubmittedToEditorAt == nil {
			return time.Time{}, false, nil
		}
		return *project.SubmittedToEditorAt, true, nil
	default:
		return time.Time{}, false, nil
	}
}

// followUp informs the external collaborators. Each one is best-effort;
// failures are logged and never roll back the transition.
func (r *Reconciler) followUp(ctx context.Context, project models.Project, deliverable models.RemoteAsset, isRevision bool, logger *slog.Logger) {
	if r.notify != nil {
		if err := r.notify.SendDeliveryNotification(ctx, project.ID, project.OwnerID, r.viewURL(project.ID)); err != nil {
			logger.Warn("delivery notification failed", "error", err)
		}
	}

	if r.board != nil {
		if err := r.board.MoveCardToWaitingApproval(ctx, project.ID, isRevision); err != nil {
			logger.Warn("board mirror update failed", "error", err)
		}
	}

	if r.archive != nil {
		if err := r.archive.EnqueueArchive(ctx, project.ID, deliverable); err != nil {
			logger.Warn("archive enqueue failed", "assetId", deliverable.RemoteID, "error", err)
		}
	}
}

func (r *Reconciler) viewURL(projectID string) string {
	if r.viewBase == "" {
		return "/projects/" + projectID
	}
	return r.viewBase + "/projects/" + projectID
}
