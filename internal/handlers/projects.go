package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clipforge/backend/internal/logging"
	"github.com/clipforge/backend/internal/models"
	"github.com/clipforge/backend/internal/projects"
	"github.com/clipforge/backend/internal/repositories"
)

// ProjectHandler exposes project lifecycle actions and the remote file view.
type ProjectHandler struct {
	Projects ProjectLifecycle
	Browser  ProjectFileBrowser
}

type createProjectRequest struct {
	OwnerID        string `json:"ownerId"`
	Title          string `json:"title"`
	MediaFolderRef string `json:"mediaFolderRef"`
}

type projectPayload struct {
	ID                      string     `json:"id"`
	OwnerID                 string     `json:"ownerId"`
	Title                   string     `json:"title"`
	Status                  string     `json:"status"`
	MediaFolderRef          string     `json:"mediaFolderRef,omitempty"`
	SubmittedToEditorAt     *time.Time `json:"submittedToEditorAt,omitempty"`
	LastRevisionRequestedAt *time.Time `json:"lastRevisionRequestedAt,omitempty"`
	RevisionCount           int        `json:"revisionCount"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}

func toProjectPayload(p models.Project) projectPayload {
	return projectPayload{
		ID:                      p.ID,
		OwnerID:                 p.OwnerID,
		Title:                   p.Title,
		Status:                  string(p.Status),
		MediaFolderRef:          p.MediaFolderRef,
		SubmittedToEditorAt:     p.SubmittedToEditorAt,
		LastRevisionRequestedAt: p.LastRevisionRequestedAt,
		RevisionCount:           p.RevisionCount,
		CreatedAt:               p.CreatedAt,
		UpdatedAt:               p.UpdatedAt,
	}
}

// Create handles POST /api/v1/projects.
func (h ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create-project payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.OwnerID = strings.TrimSpace(req.OwnerID)
	req.Title = strings.TrimSpace(req.Title)
	if req.OwnerID == "" || req.Title == "" {
		respondError(ctx, w, http.StatusBadRequest, "ownerId and title are required")
		return
	}

	project, err := h.Projects.Create(ctx, req.OwnerID, req.Title, strings.TrimSpace(req.MediaFolderRef))
	if err != nil {
		logger.Error("create project failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create project")
		return
	}

	respondData(ctx, w, http.StatusCreated, toProjectPayload(project))
}

// Get handles GET /api/v1/projects/{id}.
func (h ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, err := h.Projects.Get(ctx, r.PathValue("id"))
	if err != nil {
		h.respondLifecycleError(w, r, err, "fetch project")
		return
	}

	respondData(ctx, w, http.StatusOK, toProjectPayload(project))
}

// Submit handles POST /api/v1/projects/{id}/submit.
func (h ProjectHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "submit project", h.Projects.SubmitForEdit)
}

// Accept handles POST /api/v1/projects/{id}/accept.
func (h ProjectHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "accept project", h.Projects.Accept)
}

// RequestRevision handles POST /api/v1/projects/{id}/request-revision.
func (h ProjectHandler) RequestRevision(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "request revision", h.Projects.RequestRevision)
}

// Cancel handles POST /api/v1/projects/{id}/cancel. Only projects that were
// never submitted can be cancelled.
func (h ProjectHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel project", h.Projects.Cancel)
}

type fileEntry struct {
	RemoteID    string    `json:"remoteId"`
	Name        string    `json:"name"`
	MediaType   string    `json:"mediaType"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	SizeBytes   int64     `json:"sizeBytes"`
	Qualifies   bool      `json:"qualifies"`
	Deliverable bool      `json:"deliverable"`
}

// Files handles GET /api/v1/projects/{id}/files.
func (h ProjectHandler) Files(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Browser == nil {
		logger.Error("file browser unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "file listing unavailable")
		return
	}

	files, err := h.Browser.ListProjectFiles(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "project not found")
			return
		}
		logger.Error("list project files failed", "projectId", r.PathValue("id"), "error", err)
		respondError(ctx, w, http.StatusBadGateway, "remote media host is unavailable, try again shortly")
		return
	}

	entries := make([]fileEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, fileEntry{
			RemoteID:    f.Asset.RemoteID,
			Name:        f.Asset.Name,
			MediaType:   f.Asset.MediaType,
			CreatedAt:   f.Asset.CreatedAt,
			UpdatedAt:   f.Asset.UpdatedAt,
			SizeBytes:   f.Asset.SizeBytes,
			Qualifies:   f.Qualifies,
			Deliverable: f.Deliverable,
		})
	}

	respondData(ctx, w, http.StatusOK, entries)
}

func (h ProjectHandler) transition(w http.ResponseWriter, r *http.Request, action string, op func(context.Context, string) (models.Project, error)) {
	ctx := r.Context()

	project, err := op(ctx, r.PathValue("id"))
	if err != nil {
		h.respondLifecycleError(w, r, err, action)
		return
	}

	respondData(ctx, w, http.StatusOK, toProjectPayload(project))
}

func (h ProjectHandler) respondLifecycleError(w http.ResponseWriter, r *http.Request, err error, action string) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "project not found")
	case errors.Is(err, projects.ErrInvalidTransition):
		respondError(ctx, w, http.StatusConflict, "project is not in a state that allows this action")
	default:
		logger.Error(action+" failed", "projectId", r.PathValue("id"), "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "operation failed, try again")
	}
}
