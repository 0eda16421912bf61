package projects

import (
	"context"
	"testing"
	"time"

	"github.com/clipforge/backend/internal/models"
)

type recordingStore struct {
	created  []models.Project
	lastTo   models.ProjectStatus
	lastStmp TransitionStamp
	result   models.Project
	err      error
}

func (r *recordingStore) Create(_ context.Context, project models.Project) error {
	r.created = append(r.created, project)
	return r.err
}

func (r *recordingStore) Get(_ context.Context, _ string) (models.Project, error) {
	return r.result, r.err
}

func (r *recordingStore) Transition(_ context.Context, _ string, to models.ProjectStatus, stamp TransitionStamp) (models.Project, error) {
	r.lastTo = to
	r.lastStmp = stamp
	return r.result, r.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCreateStartsInNew(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(store)
	svc.now = fixedClock(time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC))

	project, err := svc.Create(context.Background(), "owner-1", "Launch video", "folders/abc")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if project.Status != models.StatusNew {
		t.Fatalf("status = %q, want new", project.Status)
	}
	if project.ID == "" {
		t.Fatal("expected generated ID")
	}
	if len(store.created) != 1 {
		t.Fatalf("store received %d creates", len(store.created))
	}
	if !project.CreatedAt.Equal(project.UpdatedAt) {
		t.Fatal("created and updated timestamps should match at creation")
	}
}

func TestSubmitForEditStampsCutoff(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(store)
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	svc.now = fixedClock(now)

	if _, err := svc.SubmitForEdit(context.Background(), "p1"); err != nil {
		t.Fatalf("SubmitForEdit returned error: %v", err)
	}
	if store.lastTo != models.StatusEditInProgress {
		t.Fatalf("transitioned to %q", store.lastTo)
	}
	if store.lastStmp.SubmittedToEditorAt == nil || !store.lastStmp.SubmittedToEditorAt.Equal(now) {
		t.Fatalf("SubmittedToEditorAt = %v, want %v", store.lastStmp.SubmittedToEditorAt, now)
	}
	if store.lastStmp.IncrementRevision {
		t.Fatal("submit must not increment the revision counter")
	}
}

func TestRequestRevisionIncrementsAndStamps(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(store)
	now := time.Date(2026, 8, 21, 9, 30, 0, 0, time.UTC)
	svc.now = fixedClock(now)

	if _, err := svc.RequestRevision(context.Background(), "p1"); err != nil {
		t.Fatalf("RequestRevision returned error: %v", err)
	}
	if store.lastTo != models.StatusRevisionInProgress {
		t.Fatalf("transitioned to %q", store.lastTo)
	}
	if !store.lastStmp.IncrementRevision {
		t.Fatal("revision counter should increment")
	}
	if store.lastStmp.RevisionRequestedAt == nil || !store.lastStmp.RevisionRequestedAt.Equal(now) {
		t.Fatalf("RevisionRequestedAt = %v, want %v", store.lastStmp.RevisionRequestedAt, now)
	}
}

func TestMarkDeliveredCarriesNoStamps(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(store)

	if _, err := svc.MarkDelivered(context.Background(), "p1"); err != nil {
		t.Fatalf("MarkDelivered returned error: %v", err)
	}
	if store.lastTo != models.StatusVideoIsReady {
		t.Fatalf("transitioned to %q", store.lastTo)
	}
	if store.lastStmp.SubmittedToEditorAt != nil || store.lastStmp.RevisionRequestedAt != nil || store.lastStmp.IncrementRevision {
		t.Fatalf("unexpected stamp %+v", store.lastStmp)
	}
}

func TestAcceptAndCancelTargets(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(store)

	if _, err := svc.Accept(context.Background(), "p1"); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if store.lastTo != models.StatusAccepted {
		t.Fatalf("transitioned to %q", store.lastTo)
	}

	if _, err := svc.Cancel(context.Background(), "p1"); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if store.lastTo != models.StatusCancelled {
		t.Fatalf("transitioned to %q", store.lastTo)
	}
}
