package delivery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clipforge/backend/internal/models"
)

// ProjectGetter fetches a single project.
type ProjectGetter interface {
	Get(ctx context.Context, id string) (models.Project, error)
}

// ProjectFile is one remote video asset annotated for display: whether it
// postdates the current cycle's cutoff and whether it is the asset the sweep
// would surface as the deliverable.
type ProjectFile struct {
	Asset       models.RemoteAsset
	Qualifies   bool
	Deliverable bool
}

// Browser lists a project's remote folder contents the way the
// reconciliation sweep sees them.
type Browser struct {
	projects ProjectGetter
	source   ProjectSource
	assets   AssetLister
}

// NewBrowser constructs a project file browser.
func NewBrowser(projects ProjectGetter, source ProjectSource, assets AssetLister) *Browser {
	return &Browser{projects: projects, source: source, assets: assets}
}

// ListProjectFiles returns the project's remote video assets, newest activity
// first. When the project is waiting on a deliverable and a cutoff exists,
// assets are annotated with their qualification status.
func (b *Browser) ListProjectFiles(ctx context.Context, projectID string) ([]ProjectFile, error) {
	project, err := b.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(project.MediaFolderRef) == "" {
		return nil, nil
	}

	assets, err := b.assets.ListFolderAssets(ctx, project.MediaFolderRef)
	if err != nil {
		return nil, fmt.Errorf("list folder assets: %w", err)
	}

	cutoff, haveCutoff := b.cutoff(ctx, project)

	var deliverableID string
	if haveCutoff {
		if chosen, ok := SelectDeliverable(assets, cutoff); ok {
			deliverableID = chosen.RemoteID
		}
	}

	var files []ProjectFile
	for _, asset := range assets {
		if !videoAsset(asset) {
			continue
		}
		files = append(files, ProjectFile{
			Asset:       asset,
			Qualifies:   haveCutoff && Qualifies(asset, cutoff),
			Deliverable: asset.RemoteID == deliverableID,
		})
	}

	sortByActivity(files)
	return files, nil
}

func (b *Browser) cutoff(ctx context.Context, project models.Project) (time.Time, bool) {
	switch project.Status {
	case models.StatusRevisionInProgress:
		cutoff, err := b.source.LatestRevisionCutoff(ctx, project.ID)
		if err != nil {
			return time.Time{}, false
		}
		return cutoff, true
	case models.StatusEditInProgress:
		if project.SubmittedToEditorAt == nil {
			return time.Time{}, false
		}
		return *project.SubmittedToEditorAt, true
	default:
		return time.Time{}, false
	}
}

func sortByActivity(files []ProjectFile) {
	sort.SliceStable(files, func(i, j int) bool {
		return newer(files[i].Asset, files[j].Asset)
	})
}
