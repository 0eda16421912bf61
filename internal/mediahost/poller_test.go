package mediahost

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type scriptedStatusFetcher struct {
	calls   int
	results []func() (AssetStatus, error)
}

func (s *scriptedStatusFetcher) AssetStatus(_ context.Context, _ string) (AssetStatus, error) {
	idx := s.calls
	s.calls++
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	return s.results[idx]()
}

func pending() (AssetStatus, error)  { return AssetStatus{}, nil }
func received() (AssetStatus, error) { return AssetStatus{Received: true, Processing: true}, nil }
func flaky() (AssetStatus, error)    { return AssetStatus{}, errors.New("gateway timeout") }

func TestVerifyReadyAfterSeveralPolls(t *testing.T) {
	fetcher := &scriptedStatusFetcher{results: []func() (AssetStatus, error){pending, pending, received}}
	poller := NewPoller(fetcher, time.Millisecond, 30, slog.Default())

	outcome, err := poller.Verify(context.Background(), "asset-1")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if outcome != VerificationReady {
		t.Fatalf("outcome = %q, want %q", outcome, VerificationReady)
	}
	if fetcher.calls != 3 {
		t.Fatalf("polled %d times, want 3", fetcher.calls)
	}
}

func TestVerifyReadyWhileTranscodingInProgress(t *testing.T) {
	fetcher := &scriptedStatusFetcher{results: []func() (AssetStatus, error){received}}
	poller := NewPoller(fetcher, time.Millisecond, 30, slog.Default())

	outcome, err := poller.Verify(context.Background(), "asset-1")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if outcome != VerificationReady {
		t.Fatalf("outcome = %q, want %q", outcome, VerificationReady)
	}
}

func TestVerifyExhaustsAttemptBudget(t *testing.T) {
	fetcher := &scriptedStatusFetcher{results: []func() (AssetStatus, error){pending}}
	poller := NewPoller(fetcher, time.Millisecond, 5, slog.Default())

	outcome, err := poller.Verify(context.Background(), "asset-1")
	if !errors.Is(err, ErrVerificationDeadline) {
		t.Fatalf("expected ErrVerificationDeadline, got %v", err)
	}
	if outcome != VerificationFailed {
		t.Fatalf("outcome = %q, want %q", outcome, VerificationFailed)
	}
	if fetcher.calls != 5 {
		t.Fatalf("polled %d times, want exactly 5", fetcher.calls)
	}
}

func TestVerifyTransientErrorsConsumeBudget(t *testing.T) {
	fetcher := &scriptedStatusFetcher{results: []func() (AssetStatus, error){flaky, flaky, received}}
	poller := NewPoller(fetcher, time.Millisecond, 30, slog.Default())

	outcome, err := poller.Verify(context.Background(), "asset-1")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if outcome != VerificationReady {
		t.Fatalf("outcome = %q, want %q", outcome, VerificationReady)
	}
	if fetcher.calls != 3 {
		t.Fatalf("polled %d times, want 3", fetcher.calls)
	}
}

func TestVerifyAllErrorsStillExhaustBudget(t *testing.T) {
	fetcher := &scriptedStatusFetcher{results: []func() (AssetStatus, error){flaky}}
	poller := NewPoller(fetcher, time.Millisecond, 4, slog.Default())

	_, err := poller.Verify(context.Background(), "asset-1")
	if !errors.Is(err, ErrVerificationDeadline) {
		t.Fatalf("expected ErrVerificationDeadline, got %v", err)
	}
	if fetcher.calls != 4 {
		t.Fatalf("polled %d times, want 4", fetcher.calls)
	}
}

func TestVerifyStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &scriptedStatusFetcher{results: []func() (AssetStatus, error){
		func() (AssetStatus, error) {
			cancel()
			return AssetStatus{}, ctx.Err()
		},
	}}
	poller := NewPoller(fetcher, time.Hour, 30, slog.Default())

	outcome, err := poller.Verify(ctx, "asset-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if outcome != VerificationFailed {
		t.Fatalf("outcome = %q, want %q", outcome, VerificationFailed)
	}
}
