package app

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipforge/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		MediaHost: config.MediaHostConfig{BaseURL: "https://media.example", AccessToken: "token"},
		Upload: config.UploadConfig{
			MaxFileBytes:   10 << 30,
			ChunkSizeBytes: 8 << 20,
			VerifyInterval: time.Second,
			VerifyAttempts: 3,
		},
		Reconcile: config.ReconcileConfig{Interval: time.Minute},
	}

	deps, background, err := buildDependencies(context.Background(), fakePool{}, cfg, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Broker == nil {
		t.Fatal("expected upload broker to be configured")
	}
	if deps.Verifier == nil {
		t.Fatal("expected upload verifier to be configured")
	}
	if deps.Projects == nil {
		t.Fatal("expected project lifecycle to be configured")
	}
	if deps.Files == nil {
		t.Fatal("expected file browser to be configured")
	}
	if deps.UploadLimits == nil {
		t.Fatal("expected upload rate limiter to be configured")
	}
	if background.reconciler == nil {
		t.Fatal("expected reconciler to be configured")
	}
	if background.archiver != nil {
		t.Fatal("archiver should stay disabled without a bucket")
	}
}

func TestBuildDependenciesWithArchiveBucket(t *testing.T) {
	cfg := config.Config{
		MediaHost: config.MediaHostConfig{BaseURL: "https://media.example"},
		Archive: config.ObjectStoreConfig{
			Bucket:   "test-bucket",
			Region:   "us-east-1",
			Endpoint: "http://localhost:9000",
		},
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	_, background, err := buildDependencies(context.Background(), fakePool{}, cfg, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if background.archiver == nil {
		t.Fatal("expected archiver when a bucket is configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := background.archiver.Shutdown(ctx); err != nil {
		t.Fatalf("archiver shutdown: %v", err)
	}
}
