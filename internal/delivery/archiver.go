package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/clipforge/backend/internal/models"
)

// DownloadLinker resolves a direct download URL for a remote asset.
type DownloadLinker interface {
	DownloadLink(ctx context.Context, assetRef string) (string, error)
}

// ArchiveStorage persists a private copy of a deliverable.
type ArchiveStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// ArchiverConfig controls the concurrency characteristics of the archiver.
type ArchiverConfig struct {
	QueueSize int
	Workers   int
}

// Archiver asynchronously copies detected deliverables into the archive
// bucket. Archiving is strictly best-effort; a failed copy is logged and the
// project's status is untouched.
type Archiver struct {
	host    DownloadLinker
	storage ArchiveStorage
	client  *http.Client
	logger  *slog.Logger

	jobs   chan archiveJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type archiveJob struct {
	projectID string
	asset     models.RemoteAsset
}

var errArchiverClosed = errors.New("deliverable archiver closed")

// NewArchiver constructs a background worker that archives deliverables.
func NewArchiver(host DownloadLinker, storage ArchiveStorage, cfg ArchiverConfig, logger *slog.Logger) *Archiver {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &Archiver{
		host:    host,
		storage: storage,
		client:  &http.Client{Timeout: 30 * time.Minute},
		logger:  logger,
		jobs:    make(chan archiveJob, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	a.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go a.worker()
	}

	return a
}

// EnqueueArchive schedules an archive copy for the supplied deliverable.
func (a *Archiver) EnqueueArchive(ctx context.Context, projectID string, asset models.RemoteAsset) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.ctx.Done():
		return errArchiverClosed
	default:
	}

	job := archiveJob{projectID: projectID, asset: asset}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.ctx.Done():
		return errArchiverClosed
	case a.jobs <- job:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (a *Archiver) Shutdown(ctx context.Context) error {
	a.once.Do(func() {
		a.cancel()
		close(a.jobs)
	})

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (a *Archiver) worker() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case job, ok := <-a.jobs:
			if !ok {
				return
			}
			a.handleJob(job)
		}
	}
}

func (a *Archiver) handleJob(job archiveJob) {
	if a.host == nil || a.storage == nil {
		a.logger.Error("archiver missing dependencies", "hasHost", a.host != nil, "hasStorage", a.storage != nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	link, err := a.host.DownloadLink(ctx, job.asset.RemoteID)
	if err != nil {
		a.logger.Error("resolve download link", "projectId", job.projectID, "assetId", job.asset.RemoteID, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		a.logger.Error("build download request", "projectId", job.projectID, "error", err)
		return
	}

	res, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("download deliverable", "projectId", job.projectID, "assetId", job.asset.RemoteID, "error", err)
		return
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		a.logger.Error("download deliverable", "projectId", job.projectID, "assetId", job.asset.RemoteID, "status", res.StatusCode)
		return
	}

	key := path.Join(job.projectID, fmt.Sprintf("%s-%s", job.asset.RemoteID, job.asset.Name))
	location, err := a.storage.Save(ctx, key, res.Body)
	if err != nil {
		a.logger.Error("archive deliverable", "projectId", job.projectID, "assetId", job.asset.RemoteID, "error", err)
		return
	}

	a.logger.Info("deliverable archived", "projectId", job.projectID, "assetId", job.asset.RemoteID, "location", location)
}
