package uploads

import (
	"context"
	"errors"
	"testing"

	"github.com/clipforge/backend/internal/models"
)

type stubSessionHost struct {
	createCalls   int
	finalizeCalls int
	session       models.UploadSession
	assetRef      string
	createErr     error
	finalizeErr   error
}

func (s *stubSessionHost) CreateUploadSession(_ context.Context, _ string, _ int64) (models.UploadSession, error) {
	s.createCalls++
	return s.session, s.createErr
}

func (s *stubSessionHost) Finalize(_ context.Context, _ models.UploadSession) (string, error) {
	s.finalizeCalls++
	return s.assetRef, s.finalizeErr
}

func TestCreateSessionRejectsNonVideoBeforeRemoteCall(t *testing.T) {
	host := &stubSessionHost{}
	broker := NewBroker(host, 1<<20)

	_, err := broker.CreateSession(context.Background(), "notes.txt", 100)
	if !errors.Is(err, ErrUnsupportedMediaType) {
		t.Fatalf("expected ErrUnsupportedMediaType, got %v", err)
	}
	if host.createCalls != 0 {
		t.Fatal("rejected file must not create a remote session")
	}
}

func TestCreateSessionRejectsOversizedFileBeforeRemoteCall(t *testing.T) {
	host := &stubSessionHost{}
	broker := NewBroker(host, 1<<20)

	_, err := broker.CreateSession(context.Background(), "clip.mp4", 2<<20)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if host.createCalls != 0 {
		t.Fatal("rejected file must not create a remote session")
	}
}

func TestCreateSessionPassesValidFile(t *testing.T) {
	host := &stubSessionHost{session: models.UploadSession{SessionID: "sess-1", UploadURL: "https://upload.example/sess-1"}}
	broker := NewBroker(host, 1<<20)

	session, err := broker.CreateSession(context.Background(), "clip.mp4", 512)
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if session.SessionID != "sess-1" {
		t.Fatalf("session = %+v", session)
	}
}

func TestFinalizeFallsBackToSessionAssetURI(t *testing.T) {
	host := &stubSessionHost{assetRef: ""}
	broker := NewBroker(host, 1<<20)

	ref, err := broker.Finalize(context.Background(), models.UploadSession{AssetURI: "assets/abc"}, "clip.mp4", 512)
	if err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	if ref != "assets/abc" {
		t.Fatalf("ref = %q, want session asset URI", ref)
	}
}

func TestMediaTypeFor(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"clip.mp4", "video/mp4"},
		{"clip.mkv", "video/x-matroska"},
		{"clip.MOV", "video/quicktime"},
		{"clip.webm", "video/webm"},
		{"clip.m4v", "video/x-m4v"},
		{"notes.txt", ""},
		{"archive.zip", ""},
		{"noextension", ""},
	}

	for _, tc := range cases {
		if got := MediaTypeFor(tc.name); got != tc.want {
			t.Errorf("MediaTypeFor(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
