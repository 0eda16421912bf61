package models

import "time"

// ProjectStatus enumerates the delivery lifecycle of an editing project.
type ProjectStatus string

const (
	StatusNew                ProjectStatus = "new"
	StatusEditInProgress     ProjectStatus = "edit_in_progress"
	StatusRevisionInProgress ProjectStatus = "revision_in_progress"
	StatusVideoIsReady       ProjectStatus = "video_is_ready"
	StatusAccepted           ProjectStatus = "accepted"
	StatusCancelled          ProjectStatus = "cancelled"
)

// Project represents one editing engagement owned by a client.
// Projects are created once and never hard-deleted; accepted and cancelled
// are terminal.
type Project struct {
	ID                      string
	OwnerID                 string
	Title                   string
	Status                  ProjectStatus
	MediaFolderRef          string
	SubmittedToEditorAt     *time.Time
	LastRevisionRequestedAt *time.Time
	RevisionCount           int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// StatusChange is one row of a project's append-only transition log.
type StatusChange struct {
	ID         string
	ProjectID  string
	FromStatus ProjectStatus
	ToStatus   ProjectStatus
	ChangedAt  time.Time
}

// RemoteAsset is a read-only mirror of the remote host's record for one
// stored file.
type RemoteAsset struct {
	RemoteID  string
	Name      string
	MediaType string
	CreatedAt time.Time
	UpdatedAt time.Time
	SizeBytes int64
}

// LatestActivity returns the later of the asset's created and updated
// timestamps, covering both brand-new files and re-versioned ones.
func (a RemoteAsset) LatestActivity() time.Time {
	if a.UpdatedAt.After(a.CreatedAt) {
		return a.UpdatedAt
	}
	return a.CreatedAt
}

// UploadSession holds the remote upload target minted for a single transfer.
// It lives only for the duration of that transfer and is never persisted.
type UploadSession struct {
	SessionID   string
	UploadURL   string
	AssetURI    string
	FinalizeURI string
	CreatedAt   time.Time
}

// TransferStatus tracks where one file sits in the upload pipeline.
type TransferStatus string

const (
	TransferPending      TransferStatus = "pending"
	TransferNegotiating  TransferStatus = "negotiating"
	TransferTransferring TransferStatus = "transferring"
	TransferFinalizing   TransferStatus = "finalizing"
	TransferVerifying    TransferStatus = "verifying"
	TransferVerified     TransferStatus = "verified"
	TransferFailed       TransferStatus = "failed"
)

// TransferState is the externally visible progress of one in-flight upload.
// ByteOffset only moves forward, except for an explicit restart from zero
// when offset discovery fails.
type TransferState struct {
	FileID     string
	ByteOffset int64
	TotalBytes int64
	Progress   int
	Status     TransferStatus
	Message    string
}
