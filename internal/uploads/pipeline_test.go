package uploads

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/clipforge/backend/internal/mediahost"
	"github.com/clipforge/backend/internal/models"
)

func TestPipelineEmitsStatesInOrder(t *testing.T) {
	pipeline := newTestPipeline(&stubTransport{}, &stubVerifier{outcome: mediahost.VerificationReady})

	var statuses []models.TransferStatus
	file := File{ID: "f1", Name: "clip.mp4", Size: 16, Content: bytes.NewReader(make([]byte, 16))}
	assetRef, err := pipeline.Run(context.Background(), file, func(state models.TransferState) {
		statuses = append(statuses, state.Status)
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if assetRef != "assets/abc" {
		t.Fatalf("assetRef = %q", assetRef)
	}

	want := []models.TransferStatus{
		models.TransferNegotiating,
		models.TransferTransferring,
		models.TransferFinalizing,
		models.TransferVerifying,
		models.TransferVerified,
	}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("statuses[%d] = %q, want %q", i, statuses[i], want[i])
		}
	}
}

func TestPipelineFailsWhenVerificationNotReady(t *testing.T) {
	pipeline := newTestPipeline(&stubTransport{}, &stubVerifier{outcome: mediahost.VerificationFailed})

	var last models.TransferState
	file := File{ID: "f1", Name: "clip.mp4", Size: 16, Content: bytes.NewReader(make([]byte, 16))}
	_, err := pipeline.Run(context.Background(), file, func(state models.TransferState) {
		last = state
	})
	if !errors.Is(err, mediahost.ErrVerificationDeadline) {
		t.Fatalf("expected ErrVerificationDeadline, got %v", err)
	}
	if last.Status != models.TransferFailed {
		t.Fatalf("last status = %q, want failed", last.Status)
	}
}

func TestPipelineReportsRejectedFileWithoutTransfer(t *testing.T) {
	transport := &stubTransport{}
	pipeline := newTestPipeline(transport, &stubVerifier{outcome: mediahost.VerificationReady})

	file := File{ID: "f1", Name: "notes.txt", Size: 16, Content: bytes.NewReader(make([]byte, 16))}
	_, err := pipeline.Run(context.Background(), file, nil)
	if !errors.Is(err, ErrUnsupportedMediaType) {
		t.Fatalf("expected ErrUnsupportedMediaType, got %v", err)
	}
	if transport.maxSeen != 0 {
		t.Fatal("rejected file must not start a transfer")
	}
}
