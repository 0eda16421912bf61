package repositories

import (
	"context"
	"time"

	"github.com/clipforge/backend/internal/models"
	"github.com/clipforge/backend/internal/projects"
)

// ProjectRepository exposes data access for editing projects and their
// append-only status-change log.
type ProjectRepository interface {
	Create(ctx context.Context, project models.Project) error
	Get(ctx context.Context, id string) (models.Project, error)
	ListAwaitingDelivery(ctx context.Context) ([]models.Project, error)
	Transition(ctx context.Context, id string, to models.ProjectStatus, stamp projects.TransitionStamp) (models.Project, error)
	LatestRevisionCutoff(ctx context.Context, projectID string) (time.Time, error)
	StatusHistory(ctx context.Context, projectID string) ([]models.StatusChange, error)
}
