package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/clipforge/backend/internal/config"
)

// BoardMirror reflects project progress onto the external task board.
type BoardMirror interface {
	MoveCardToWaitingApproval(ctx context.Context, projectID string, isRevision bool) error
}

// NewBoardMirror builds a board mirror posting to the configured endpoint, or
// a noop when no endpoint is configured.
func NewBoardMirror(cfg config.NotifyConfig) BoardMirror {
	endpoint := strings.TrimSpace(cfg.BoardEndpoint)
	if endpoint == "" {
		return noopBoard{}
	}
	return &httpBoard{
		endpoint: endpoint,
		client:   &http.Client{Timeout: requestTimeout(cfg)},
	}
}

type httpBoard struct {
	endpoint string
	client   *http.Client
}

type boardMove struct {
	ProjectID  string `json:"project_id"`
	Column     string `json:"column"`
	IsRevision bool   `json:"is_revision"`
}

func (b *httpBoard) MoveCardToWaitingApproval(ctx context.Context, projectID string, isRevision bool) error {
	payload, err := json.Marshal(boardMove{ProjectID: projectID, Column: "waiting_approval", IsRevision: isRevision})
	if err != nil {
		return fmt.Errorf("encode board move: %w", err)
	}

	return post(ctx, b.client, b.endpoint, payload)
}

type noopBoard struct{}

func (noopBoard) MoveCardToWaitingApproval(context.Context, string, bool) error {
	return nil
}
