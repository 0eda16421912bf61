package handlers

import "net/http"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Broker       SessionBroker
	Verifier     UploadVerifier
	Projects     ProjectLifecycle
	Files        ProjectFileBrowser
	UploadLimits RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	uploads := UploadHandler{Broker: deps.Broker, Verifier: deps.Verifier, Limiter: deps.UploadLimits}
	projects := ProjectHandler{Projects: deps.Projects, Browser: deps.Files}

	mux.HandleFunc("GET /healthz", health.Handle)
	mux.HandleFunc("POST /api/v1/upload-session", uploads.CreateSession)
	mux.HandleFunc("POST /api/v1/complete-upload", uploads.CompleteUpload)
	mux.HandleFunc("POST /api/v1/verify-upload", uploads.VerifyUpload)
	mux.HandleFunc("POST /api/v1/projects", projects.Create)
	mux.HandleFunc("GET /api/v1/projects/{id}", projects.Get)
	mux.HandleFunc("GET /api/v1/projects/{id}/files", projects.Files)
	mux.HandleFunc("POST /api/v1/projects/{id}/submit", projects.Submit)
	mux.HandleFunc("POST /api/v1/projects/{id}/accept", projects.Accept)
	mux.HandleFunc("POST /api/v1/projects/{id}/request-revision", projects.RequestRevision)
	mux.HandleFunc("POST /api/v1/projects/{id}/cancel", projects.Cancel)
}
