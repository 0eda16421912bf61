package handlers

import (
	"context"

	"github.com/clipforge/backend/internal/delivery"
	"github.com/clipforge/backend/internal/mediahost"
	"github.com/clipforge/backend/internal/models"
)

// SessionBroker mints and finalizes remote upload sessions.
type SessionBroker interface {
	CreateSession(ctx context.Context, fileName string, fileSize int64) (models.UploadSession, error)
	Finalize(ctx context.Context, session models.UploadSession, fileName string, fileSize int64) (string, error)
}

// UploadVerifier confirms the remote host received a finalized upload.
type UploadVerifier interface {
	Verify(ctx context.Context, assetRef string) (mediahost.VerificationOutcome, error)
}

// ProjectLifecycle captures the lifecycle operations exposed over HTTP.
type ProjectLifecycle interface {
	Create(ctx context.Context, ownerID, title, mediaFolderRef string) (models.Project, error)
	Get(ctx context.Context, id string) (models.Project, error)
	SubmitForEdit(ctx context.Context, id string) (models.Project, error)
	Accept(ctx context.Context, id string) (models.Project, error)
	RequestRevision(ctx context.Context, id string) (models.Project, error)
	Cancel(ctx context.Context, id string) (models.Project, error)
}

// ProjectFileBrowser lists a project's remote folder contents.
type ProjectFileBrowser interface {
	ListProjectFiles(ctx context.Context, projectID string) ([]delivery.ProjectFile, error)
}
