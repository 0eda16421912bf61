package uploads

import (
	"context"
	"fmt"
	"io"

	"github.com/clipforge/backend/internal/mediahost"
	"github.com/clipforge/backend/internal/models"
)

// ChunkTransport moves bytes to a remote upload URL with resume support.
type ChunkTransport interface {
	Transfer(ctx context.Context, fileID string, content io.ReaderAt, size int64, uploadURL string, onProgress mediahost.ProgressFunc) error
}

// ReceiptVerifier confirms the remote host received a finalized asset.
type ReceiptVerifier interface {
	Verify(ctx context.Context, assetRef string) (mediahost.VerificationOutcome, error)
}

// File is one local file queued for upload.
type File struct {
	ID      string
	Name    string
	Size    int64
	Content io.ReaderAt
}

// Pipeline runs one file through the full upload sequence: negotiate a
// session, transfer chunks, finalize the asset record, then poll until the
// host confirms receipt. State updates flow through emit rather than shared
// memory so callers can subscribe to progress.
type Pipeline struct {
	broker    *Broker
	transport ChunkTransport
	verifier  ReceiptVerifier
}

// NewPipeline wires the upload stages together.
func NewPipeline(broker *Broker, transport ChunkTransport, verifier ReceiptVerifier) *Pipeline {
	return &Pipeline{broker: broker, transport: transport, verifier: verifier}
}

// Run uploads a single file and returns the verified asset reference.
func (p *Pipeline) Run(ctx context.Context, file File, emit mediahost.ProgressFunc) (string, error) {
	report := func(state models.TransferState) {
		if emit != nil {
			emit(state)
		}
	}

	report(models.TransferState{FileID: file.ID, TotalBytes: file.Size, Status: models.TransferNegotiating})

	session, err := p.broker.CreateSession(ctx, file.Name, file.Size)
	if err != nil {
		report(models.TransferState{FileID: file.ID, TotalBytes: file.Size, Status: models.TransferFailed, Message: err.Error()})
		return "", err
	}

	if err := p.transport.Transfer(ctx, file.ID, file.Content, file.Size, session.UploadURL, report); err != nil {
		report(models.TransferState{FileID: file.ID, TotalBytes: file.Size, Status: models.TransferFailed, Message: err.Error()})
		return "", fmt.Errorf("transfer %s: %w", file.Name, err)
	}

	report(models.TransferState{FileID: file.ID, ByteOffset: file.Size, TotalBytes: file.Size, Progress: 90, Status: models.TransferFinalizing})

	assetRef, err := p.broker.Finalize(ctx, session, file.Name, file.Size)
	if err != nil {
		report(models.TransferState{FileID: file.ID, ByteOffset: file.Size, TotalBytes: file.Size, Progress: 90, Status: models.TransferFailed, Message: err.Error()})
		return "", err
	}

	report(models.TransferState{FileID: file.ID, ByteOffset: file.Size, TotalBytes: file.Size, Progress: 95, Status: models.TransferVerifying})

	outcome, err := p.verifier.Verify(ctx, assetRef)
	if err != nil || outcome != mediahost.VerificationReady {
		msg := "upload not confirmed, please upload the file again"
		if err != nil {
			msg = err.Error()
		}
		report(models.TransferState{FileID: file.ID, ByteOffset: file.Size, TotalBytes: file.Size, Progress: 95, Status: models.TransferFailed, Message: msg})
		if err == nil {
			err = mediahost.ErrVerificationDeadline
		}
		return "", err
	}

	report(models.TransferState{FileID: file.ID, ByteOffset: file.Size, TotalBytes: file.Size, Progress: 100, Status: models.TransferVerified})

	return assetRef, nil
}
