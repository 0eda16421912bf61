package mediahost

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/clipforge/backend/internal/models"
)

// resumableServer mimics the remote upload endpoint: HEAD reports the stored
// offset, PATCH appends bytes at the declared offset.
type resumableServer struct {
	mu     sync.Mutex
	buf    []byte
	reject func(offset int64) (int, string)
}

func (s *resumableServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodHead:
		w.Header().Set(offsetHeader, strconv.Itoa(len(s.buf)))
		w.WriteHeader(http.StatusOK)
	case http.MethodPatch:
		offset, err := strconv.ParseInt(r.Header.Get(offsetHeader), 10, 64)
		if err != nil || offset != int64(len(s.buf)) {
			http.Error(w, "offset mismatch", http.StatusConflict)
			return
		}
		if s.reject != nil {
			if code, reason := s.reject(offset); code != 0 {
				http.Error(w, reason, code)
				return
			}
		}
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read failed", http.StatusInternalServerError)
			return
		}
		s.buf = append(s.buf, data...)
		w.Header().Set(offsetHeader, strconv.Itoa(len(s.buf)))
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *resumableServer) stored() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf...)
}

func TestTransferUploadsInChunks(t *testing.T) {
	content := bytes.Repeat([]byte("clipforge"), 1200)
	remote := &resumableServer{}
	srv := httptest.NewServer(remote)
	defer srv.Close()

	transport := NewTransport(WithChunkSize(4096))

	var states []models.TransferState
	err := transport.Transfer(context.Background(), "file-1", bytes.NewReader(content), int64(len(content)), srv.URL, func(state models.TransferState) {
		states = append(states, state)
	})
	if err != nil {
		t.Fatalf("Transfer returned error: %v", err)
	}

	if !bytes.Equal(remote.stored(), content) {
		t.Fatalf("remote stored %d bytes, want %d", len(remote.stored()), len(content))
	}

	if len(states) == 0 {
		t.Fatal("expected progress updates")
	}
	last := states[len(states)-1]
	if last.ByteOffset != int64(len(content)) {
		t.Fatalf("final offset = %d, want %d", last.ByteOffset, len(content))
	}
	if last.Progress != transferProgressCeiling {
		t.Fatalf("final progress = %d, want %d", last.Progress, transferProgressCeiling)
	}
	for _, state := range states {
		if state.Progress > transferProgressCeiling {
			t.Fatalf("progress %d exceeded ceiling", state.Progress)
		}
		if state.Status != models.TransferTransferring {
			t.Fatalf("unexpected status %q", state.Status)
		}
	}
}

func TestTransferResumesFromReportedOffset(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 10000)
	remote := &resumableServer{buf: append([]byte(nil), content[:6000]...)}
	srv := httptest.NewServer(remote)
	defer srv.Close()

	var patched int64
	counting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			patched += r.ContentLength
		}
		remote.ServeHTTP(w, r)
	}))
	defer counting.Close()

	transport := NewTransport(WithChunkSize(2048))
	err := transport.Transfer(context.Background(), "file-1", bytes.NewReader(content), int64(len(content)), counting.URL, nil)
	if err != nil {
		t.Fatalf("Transfer returned error: %v", err)
	}

	if patched != 4000 {
		t.Fatalf("transferred %d bytes, want only the missing 4000", patched)
	}
	if !bytes.Equal(remote.stored(), content) {
		t.Fatal("remote content does not match source")
	}
}

func TestTransferRestartsWhenProbeFails(t *testing.T) {
	content := []byte("small payload")
	remote := &resumableServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			http.Error(w, "probe unsupported", http.StatusNotFound)
			return
		}
		remote.ServeHTTP(w, r)
	}))
	defer srv.Close()

	transport := NewTransport()
	err := transport.Transfer(context.Background(), "file-1", bytes.NewReader(content), int64(len(content)), srv.URL, nil)
	if err != nil {
		t.Fatalf("Transfer returned error: %v", err)
	}
	if !bytes.Equal(remote.stored(), content) {
		t.Fatal("expected full upload from offset zero")
	}
}

func TestTransferRejectsOversizedFile(t *testing.T) {
	transport := NewTransport(WithMaxFileBytes(100))

	err := transport.Transfer(context.Background(), "file-1", bytes.NewReader(nil), 101, "http://unused.invalid", nil)
	if !errors.Is(err, ErrSizeExceeded) {
		t.Fatalf("expected ErrSizeExceeded, got %v", err)
	}
}

func TestTransferSurfacesChunkRejection(t *testing.T) {
	content := bytes.Repeat([]byte("y"), 5000)
	remote := &resumableServer{reject: func(offset int64) (int, string) {
		if offset >= 2048 {
			return http.StatusInsufficientStorage, "quota exceeded"
		}
		return 0, ""
	}}
	srv := httptest.NewServer(remote)
	defer srv.Close()

	transport := NewTransport(WithChunkSize(2048))
	err := transport.Transfer(context.Background(), "file-1", bytes.NewReader(content), int64(len(content)), srv.URL, nil)

	var rejected *ChunkRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected ChunkRejectedError, got %v", err)
	}
	if rejected.StatusCode != http.StatusInsufficientStorage {
		t.Fatalf("status = %d, want %d", rejected.StatusCode, http.StatusInsufficientStorage)
	}
	if !strings.Contains(rejected.Reason, "quota exceeded") {
		t.Fatalf("reason = %q", rejected.Reason)
	}
}

func TestTransferStopsOnCancelledContext(t *testing.T) {
	content := bytes.Repeat([]byte("z"), 8192)
	remote := &resumableServer{}
	srv := httptest.NewServer(remote)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	transport := NewTransport(WithChunkSize(1024))

	err := transport.Transfer(ctx, "file-1", bytes.NewReader(content), int64(len(content)), srv.URL, func(state models.TransferState) {
		if state.ByteOffset >= 2048 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(remote.stored()) == len(content) {
		t.Fatal("upload should not have completed after cancellation")
	}
}
