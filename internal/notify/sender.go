// Package notify holds the fire-and-forget collaborators informed after a
// deliverable lands: the notification sender and the task-board mirror. Both
// degrade to no-ops when unconfigured, and neither is ever allowed to block or
// fail a status transition.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clipforge/backend/internal/config"
)

const userAgent = "ClipForge/0.1.0"

// Sender delivers "your video is ready" notifications.
type Sender interface {
	SendDeliveryNotification(ctx context.Context, projectID, recipient, viewURL string) error
}

// NewSender builds a notification sender posting to the configured endpoint,
// or a noop when no endpoint is configured.
func NewSender(cfg config.NotifyConfig) Sender {
	endpoint := strings.TrimSpace(cfg.DeliveryEndpoint)
	if endpoint == "" {
		return noopSender{}
	}
	return &httpSender{
		endpoint: endpoint,
		client:   &http.Client{Timeout: requestTimeout(cfg)},
	}
}

type httpSender struct {
	endpoint string
	client   *http.Client
}

type deliveryNotification struct {
	ProjectID string `json:"project_id"`
	Recipient string `json:"recipient"`
	ViewURL   string `json:"view_url"`
}

func (s *httpSender) SendDeliveryNotification(ctx context.Context, projectID, recipient, viewURL string) error {
	payload, err := json.Marshal(deliveryNotification{ProjectID: projectID, Recipient: recipient, ViewURL: viewURL})
	if err != nil {
		return fmt.Errorf("encode delivery notification: %w", err)
	}

	return post(ctx, s.client, s.endpoint, payload)
}

type noopSender struct{}

func (noopSender) SendDeliveryNotification(context.Context, string, string, string) error {
	return nil
}

func post(ctx context.Context, client *http.Client, endpoint string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status %d", res.StatusCode)
	}
	return nil
}

func requestTimeout(cfg config.NotifyConfig) time.Duration {
	if cfg.RequestTimeout > 0 {
		return cfg.RequestTimeout
	}
	return 10 * time.Second
}
