package uploads

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/clipforge/backend/internal/models"
)

// SessionHost is the slice of the media host client the broker needs.
type SessionHost interface {
	CreateUploadSession(ctx context.Context, fileName string, fileSize int64) (models.UploadSession, error)
	Finalize(ctx context.Context, session models.UploadSession) (string, error)
}

// extraVideoTypes covers container formats missing from the platform mime table.
var extraVideoTypes = map[string]string{
	".mkv":  "video/x-matroska",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
}

// Broker mints remote upload sessions and finalizes asset records. All
// validation happens before any remote call so a rejected file never creates
// a remote session, and a failed negotiation leaves no state behind.
type Broker struct {
	host     SessionHost
	maxBytes int64
}

// NewBroker constructs a session broker enforcing the given size ceiling.
func NewBroker(host SessionHost, maxBytes int64) *Broker {
	if maxBytes <= 0 {
		maxBytes = 10 << 30
	}
	return &Broker{host: host, maxBytes: maxBytes}
}

// CreateSession validates the file and asks the remote host for an upload
// target.
func (b *Broker) CreateSession(ctx context.Context, fileName string, fileSize int64) (models.UploadSession, error) {
	if err := b.validate(fileName, fileSize); err != nil {
		return models.UploadSession{}, err
	}

	session, err := b.host.CreateUploadSession(ctx, fileName, fileSize)
	if err != nil {
		return models.UploadSession{}, fmt.Errorf("negotiate upload session: %w", err)
	}
	return session, nil
}

// Finalize completes the remote asset record for a fully transferred session
// and returns the asset reference. Calling it twice for the same session does
// not create a second asset; the host treats repeats as no-ops.
func (b *Broker) Finalize(ctx context.Context, session models.UploadSession, fileName string, fileSize int64) (string, error) {
	if err := b.validate(fileName, fileSize); err != nil {
		return "", err
	}

	assetRef, err := b.host.Finalize(ctx, session)
	if err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	if strings.TrimSpace(assetRef) == "" {
		assetRef = session.AssetURI
	}
	return assetRef, nil
}

func (b *Broker) validate(fileName string, fileSize int64) error {
	if MediaTypeFor(fileName) == "" {
		return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, filepath.Ext(fileName))
	}
	if fileSize > b.maxBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, fileSize, b.maxBytes)
	}
	return nil
}

// MediaTypeFor resolves a file name to its video mime type, or "" when the
// file is not an accepted video format.
func MediaTypeFor(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return ""
	}

	if t, ok := extraVideoTypes[ext]; ok {
		return t
	}

	t := mime.TypeByExtension(ext)
	if mediaType, _, err := mime.ParseMediaType(t); err == nil && strings.HasPrefix(mediaType, "video/") {
		return mediaType
	}
	return ""
}
