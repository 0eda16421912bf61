// clip-upload pushes local video files to the remote asset host through the
// resumable upload pipeline: negotiate a session, transfer 8 MiB chunks with
// resume support, finalize, then wait for the host to confirm receipt.
// Files upload strictly one at a time.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/backend/internal/config"
	"github.com/clipforge/backend/internal/mediahost"
	"github.com/clipforge/backend/internal/models"
	"github.com/clipforge/backend/internal/uploads"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("clip-upload", flag.ContinueOnError)
	quiet := fs.Bool("quiet", false, "only print terminal states")
	if err := fs.Parse(args); err != nil {
		return err
	}

	paths := fs.Args()
	if len(paths) == 0 {
		return fmt.Errorf("usage: clip-upload [-quiet] FILE...")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	host := mediahost.NewHTTPClient(cfg.MediaHost)
	transport := mediahost.NewTransport(
		mediahost.WithChunkSize(cfg.Upload.ChunkSizeBytes),
		mediahost.WithMaxFileBytes(cfg.Upload.MaxFileBytes),
	)
	broker := uploads.NewBroker(host, cfg.Upload.MaxFileBytes)
	poller := mediahost.NewPoller(host, cfg.Upload.VerifyInterval, cfg.Upload.VerifyAttempts, logger)
	pipeline := uploads.NewPipeline(broker, transport, poller)

	queue := uploads.NewQueue(pipeline, uploads.QueueConfig{QueueSize: len(paths)}, logger)

	names := make(map[string]string, len(paths))
	var open []*os.File

	defer func() {
		for _, f := range open {
			_ = f.Close()
		}
	}()

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		open = append(open, f)

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		fileID := uuid.NewString()
		names[fileID] = filepath.Base(path)

		if err := queue.Enqueue(ctx, uploads.File{
			ID:      fileID,
			Name:    filepath.Base(path),
			Size:    info.Size(),
			Content: f,
		}); err != nil {
			return fmt.Errorf("enqueue %s: %w", path, err)
		}
	}

	remaining := len(paths)
	failed := 0
	for state := range queue.Updates() {
		name := names[state.FileID]
		switch state.Status {
		case models.TransferVerified:
			fmt.Printf("%s: verified (%d bytes)\n", name, state.TotalBytes)
			remaining--
		case models.TransferFailed:
			fmt.Printf("%s: failed: %s\n", name, state.Message)
			failed++
			remaining--
		default:
			if !*quiet {
				fmt.Printf("%s: %s %d%%\n", name, state.Status, state.Progress)
			}
		}
		if remaining == 0 {
			break
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := queue.Shutdown(shutdownCtx); err != nil {
		logger.Warn("queue shutdown incomplete", "error", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(paths))
	}
	return nil
}
