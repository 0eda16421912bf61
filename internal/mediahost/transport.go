package mediahost

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/clipforge/backend/internal/models"
)

const (
	// DefaultChunkSize is the fixed size of each resumable chunk write.
	DefaultChunkSize = 8 << 20
	// DefaultMaxFileBytes is the per-file upload ceiling.
	DefaultMaxFileBytes = 10 << 30

	// transferProgressCeiling caps byte-transfer progress so the bar cannot
	// reach 100 before finalize and verification complete.
	transferProgressCeiling = 90

	offsetHeader     = "Upload-Offset"
	chunkContentType = "application/offset+octet-stream"
)

// ProgressFunc receives transfer state updates as bytes land remotely.
type ProgressFunc func(state models.TransferState)

// Transport performs the low-level resumable byte transfer against a remote
// upload URL: offset discovery, then sequential chunk writes. Each chunk must
// be acknowledged with the new offset before the next one is sent, so there is
// a single monotonic cursor and an interrupted transfer can resume cleanly.
type Transport struct {
	client    *http.Client
	chunkSize int64
	maxBytes  int64
}

// TransportOption adjusts a Transport.
type TransportOption func(*Transport)

// WithChunkSize overrides the chunk size.
func WithChunkSize(size int64) TransportOption {
	return func(t *Transport) {
		if size > 0 {
			t.chunkSize = size
		}
	}
}

// WithMaxFileBytes overrides the per-file ceiling.
func WithMaxFileBytes(max int64) TransportOption {
	return func(t *Transport) {
		if max > 0 {
			t.maxBytes = max
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *Transport) {
		if client != nil {
			t.client = client
		}
	}
}

// NewTransport constructs a chunk transport with the default limits.
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{
		client:    &http.Client{Timeout: 5 * time.Minute},
		chunkSize: DefaultChunkSize,
		maxBytes:  DefaultMaxFileBytes,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transfer uploads size bytes of content to uploadURL, resuming from whatever
// offset the remote host reports. It does not retry on its own; callers decide
// whether to re-invoke, which repeats offset discovery.
func (t *Transport) Transfer(ctx context.Context, fileID string, content io.ReaderAt, size int64, uploadURL string, onProgress ProgressFunc) error {
	if size > t.maxBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrSizeExceeded, size, t.maxBytes)
	}

	offset := t.discoverOffset(ctx, uploadURL, size)
	emit(onProgress, fileID, offset, size)

	for offset < size {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := t.chunkSize
		if remaining := size - offset; remaining < n {
			n = remaining
		}

		next, err := t.writeChunk(ctx, uploadURL, content, offset, n)
		if err != nil {
			return err
		}
		if next <= offset {
			return fmt.Errorf("remote offset did not advance: %d -> %d", offset, next)
		}

		offset = next
		emit(onProgress, fileID, offset, size)
	}

	return nil
}

// discoverOffset probes the upload URL for the number of bytes the host has
// already stored. A failed probe restarts from zero; the result is clamped to
// [0, size] so a confused host can never push the cursor out of range.
func (t *Transport) discoverOffset(ctx context.Context, uploadURL string, size int64) int64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, uploadURL, nil)
	if err != nil {
		return 0
	}

	res, err := t.client.Do(req)
	if err != nil {
		return 0
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return 0
	}

	offset, err := strconv.ParseInt(res.Header.Get(offsetHeader), 10, 64)
	if err != nil || offset < 0 {
		return 0
	}
	if offset > size {
		return 0
	}
	return offset
}

func (t *Transport) writeChunk(ctx context.Context, uploadURL string, content io.ReaderAt, offset, length int64) (int64, error) {
	chunk := io.NewSectionReader(content, offset, length)

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, uploadURL, chunk)
	if err != nil {
		return 0, fmt.Errorf("build chunk request: %w", err)
	}
	req.Header.Set("Content-Type", chunkContentType)
	req.Header.Set(offsetHeader, strconv.FormatInt(offset, 10))
	req.ContentLength = length

	res, err := t.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("write chunk at %d: %w", offset, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return 0, &ChunkRejectedError{StatusCode: res.StatusCode, Reason: readMessage(res.Body)}
	}

	next, err := strconv.ParseInt(res.Header.Get(offsetHeader), 10, 64)
	if err != nil {
		// Hosts that omit the header still accepted the bytes.
		return offset + length, nil
	}
	return next, nil
}

func emit(onProgress ProgressFunc, fileID string, offset, size int64) {
	if onProgress == nil {
		return
	}

	progress := transferProgressCeiling
	if size > 0 {
		progress = int(offset * transferProgressCeiling / size)
	}

	onProgress(models.TransferState{
		FileID:     fileID,
		ByteOffset: offset,
		TotalBytes: size,
		Progress:   progress,
		Status:     models.TransferTransferring,
	})
}
