package projects

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/backend/internal/models"
)

// TransitionStamp carries the timestamp fields a transition updates alongside
// the status itself.
type TransitionStamp struct {
	SubmittedToEditorAt *time.Time
	RevisionRequestedAt *time.Time
	IncrementRevision   bool
}

// Store is the persistence surface the lifecycle service requires. Transition
// must write the project row and its status-change log entry atomically, and
// must reject moves the lifecycle table forbids.
type Store interface {
	Create(ctx context.Context, project models.Project) error
	Get(ctx context.Context, id string) (models.Project, error)
	Transition(ctx context.Context, id string, to models.ProjectStatus, stamp TransitionStamp) (models.Project, error)
}

// Service owns project lifecycle operations. Every status mutation funnels
// through the store's atomic transition, which serializes concurrent writers
// (the reconciliation sweep versus user actions) per project.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs the lifecycle service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create registers a new project in status "new".
func (s *Service) Create(ctx context.Context, ownerID, title, mediaFolderRef string) (models.Project, error) {
	now := s.now().UTC()
	project := models.Project{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Title:          title,
		Status:         models.StatusNew,
		MediaFolderRef: mediaFolderRef,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Create(ctx, project); err != nil {
		return models.Project{}, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (models.Project, error) {
	return s.store.Get(ctx, id)
}

// SubmitForEdit hands the project to the editor and stamps the cutoff used to
// tell a fresh deliverable apart from pre-existing folder contents.
func (s *Service) SubmitForEdit(ctx context.Context, id string) (models.Project, error) {
	now := s.now().UTC()
	return s.store.Transition(ctx, id, models.StatusEditInProgress, TransitionStamp{
		SubmittedToEditorAt: &now,
	})
}

// MarkDelivered moves a project to video_is_ready. Only the reconciliation
// sweep calls this.
func (s *Service) MarkDelivered(ctx context.Context, id string) (models.Project, error) {
	return s.store.Transition(ctx, id, models.StatusVideoIsReady, TransitionStamp{})
}

// Accept finishes the project.
func (s *Service) Accept(ctx context.Context, id string) (models.Project, error) {
	return s.store.Transition(ctx, id, models.StatusAccepted, TransitionStamp{})
}

// RequestRevision sends the project back to the editor for another cycle,
// incrementing the revision counter and stamping a fresh cutoff.
func (s *Service) RequestRevision(ctx context.Context, id string) (models.Project, error) {
	now := s.now().UTC()
	return s.store.Transition(ctx, id, models.StatusRevisionInProgress, TransitionStamp{
		RevisionRequestedAt: &now,
		IncrementRevision:   true,
	})
}

// Cancel abandons a project that was never submitted.
func (s *Service) Cancel(ctx context.Context, id string) (models.Project, error) {
	return s.store.Transition(ctx, id, models.StatusCancelled, TransitionStamp{})
}
