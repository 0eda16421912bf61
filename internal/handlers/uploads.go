package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clipforge/backend/internal/logging"
	"github.com/clipforge/backend/internal/mediahost"
	"github.com/clipforge/backend/internal/models"
	"github.com/clipforge/backend/internal/uploads"
)

// UploadHandler brokers remote upload sessions for clients and verifies
// finished uploads. The client performs the chunked byte transfer itself,
// directly against the remote host's upload URL.
type UploadHandler struct {
	Broker   SessionBroker
	Verifier UploadVerifier
	Limiter  RateLimiter
}

type createSessionRequest struct {
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

type sessionPayload struct {
	SessionID   string    `json:"sessionId"`
	UploadURL   string    `json:"uploadUrl"`
	AssetURI    string    `json:"assetUri"`
	FinalizeURI string    `json:"finalizeUri,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateSession handles POST /api/v1/upload-session.
func (h UploadHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Broker == nil {
		logger.Error("upload broker unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "upload services unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "upload-session") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many upload requests, slow down")
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid upload-session payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FileName = strings.TrimSpace(req.FileName)
	if req.FileName == "" || req.FileSize <= 0 {
		respondError(ctx, w, http.StatusBadRequest, "fileName and a positive fileSize are required")
		return
	}

	session, err := h.Broker.CreateSession(ctx, req.FileName, req.FileSize)
	if err != nil {
		h.respondBrokerError(ctx, w, err, req.FileName)
		return
	}

	respondData(ctx, w, http.StatusCreated, sessionPayload{
		SessionID:   session.SessionID,
		UploadURL:   session.UploadURL,
		AssetURI:    session.AssetURI,
		FinalizeURI: session.FinalizeURI,
		CreatedAt:   session.CreatedAt,
	})
}

type completeUploadRequest struct {
	Session  sessionPayload `json:"session"`
	FileName string         `json:"fileName"`
	FileSize int64          `json:"fileSize"`
}

// CompleteUpload handles POST /api/v1/complete-upload.
func (h UploadHandler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Broker == nil {
		logger.Error("upload broker unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "upload services unavailable")
		return
	}

	var req completeUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid complete-upload payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Session.AssetURI == "" && req.Session.FinalizeURI == "" {
		respondError(ctx, w, http.StatusBadRequest, "session is required")
		return
	}

	session := models.UploadSession{
		SessionID:   req.Session.SessionID,
		UploadURL:   req.Session.UploadURL,
		AssetURI:    req.Session.AssetURI,
		FinalizeURI: req.Session.FinalizeURI,
		CreatedAt:   req.Session.CreatedAt,
	}

	assetRef, err := h.Broker.Finalize(ctx, session, req.FileName, req.FileSize)
	if err != nil {
		h.respondBrokerError(ctx, w, err, req.FileName)
		return
	}

	respondData(ctx, w, http.StatusOK, map[string]string{"assetRef": assetRef})
}

type verifyUploadRequest struct {
	AssetRef string `json:"assetRef"`
}

// VerifyUpload handles POST /api/v1/verify-upload. The request blocks until
// the remote host confirms receipt or the polling budget runs out.
func (h UploadHandler) VerifyUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Verifier == nil {
		logger.Error("upload verifier unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "upload services unavailable")
		return
	}

	var req verifyUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify-upload payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.AssetRef = strings.TrimSpace(req.AssetRef)
	if req.AssetRef == "" {
		respondError(ctx, w, http.StatusBadRequest, "assetRef is required")
		return
	}

	outcome, err := h.Verifier.Verify(ctx, req.AssetRef)
	if err != nil || outcome != mediahost.VerificationReady {
		logger.Warn("upload verification failed", "assetRef", req.AssetRef, "outcome", string(outcome), "error", err)
		respondError(ctx, w, http.StatusBadGateway, "upload could not be confirmed, please upload the file again")
		return
	}

	respondData(ctx, w, http.StatusOK, map[string]string{"status": "verified"})
}

func (h UploadHandler) respondBrokerError(ctx context.Context, w http.ResponseWriter, err error, fileName string) {
	logger := logging.FromContext(ctx)

	switch {
	case errors.Is(err, uploads.ErrUnsupportedMediaType):
		respondError(ctx, w, http.StatusUnsupportedMediaType, "only video files can be uploaded")
	case errors.Is(err, uploads.ErrFileTooLarge):
		respondError(ctx, w, http.StatusRequestEntityTooLarge, "file exceeds the maximum upload size")
	default:
		logger.Error("upload broker call failed", "fileName", fileName, "error", err)
		respondError(ctx, w, http.StatusBadGateway, "remote media host is unavailable, try again shortly")
	}
}
