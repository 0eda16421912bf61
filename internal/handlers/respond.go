package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/clipforge/backend/internal/logging"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type failureEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// respondData writes the success envelope used by every API endpoint.
func respondData(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, successEnvelope{Success: true, Data: data})
}

// respondError writes the failure envelope with a caller-facing message.
func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, failureEnvelope{Success: false, Message: message})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}
