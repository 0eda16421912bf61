package mediahost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clipforge/backend/internal/config"
	"github.com/clipforge/backend/internal/models"
)

// Client is the API surface of the remote asset host consumed by the upload
// pipeline and the reconciliation sweep.
type Client interface {
	CreateUploadSession(ctx context.Context, fileName string, fileSize int64) (models.UploadSession, error)
	Finalize(ctx context.Context, session models.UploadSession) (string, error)
	AssetStatus(ctx context.Context, assetRef string) (AssetStatus, error)
	ListFolderAssets(ctx context.Context, folderRef string) ([]models.RemoteAsset, error)
	DownloadLink(ctx context.Context, assetRef string) (string, error)
}

// AssetStatus reports what the remote host knows about an uploaded asset.
// Receipt and transcoding are independent: an asset can be received while
// transcoding is still running.
type AssetStatus struct {
	Received   bool
	Processing bool
}

// HTTPClient talks to the remote asset host over its JSON API.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient constructs an asset host client from configuration.
func NewHTTPClient(cfg config.MediaHostConfig) *HTTPClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.AccessToken,
		client:  &http.Client{Timeout: timeout},
	}
}

type uploadSessionRequest struct {
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

type uploadSessionResponse struct {
	SessionID   string `json:"session_id"`
	UploadURL   string `json:"upload_url"`
	AssetURI    string `json:"asset_uri"`
	FinalizeURI string `json:"finalize_uri"`
}

// CreateUploadSession asks the host to mint a resumable upload target for the
// given file name and size.
func (c *HTTPClient) CreateUploadSession(ctx context.Context, fileName string, fileSize int64) (models.UploadSession, error) {
	var resp uploadSessionResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/uploads", uploadSessionRequest{
		FileName: fileName,
		FileSize: fileSize,
	}, &resp)
	if err != nil {
		return models.UploadSession{}, fmt.Errorf("create upload session: %w", err)
	}

	return models.UploadSession{
		SessionID:   resp.SessionID,
		UploadURL:   resp.UploadURL,
		AssetURI:    resp.AssetURI,
		FinalizeURI: resp.FinalizeURI,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Finalize completes the remote asset record once all bytes are transferred
// and returns the asset reference. Protocol revisions without a finalize step
// derive the reference straight from the session's asset URI. Repeat calls
// are no-ops on the host side, so a 409 counts as success.
func (c *HTTPClient) Finalize(ctx context.Context, session models.UploadSession) (string, error) {
	if strings.TrimSpace(session.FinalizeURI) == "" {
		return session.AssetURI, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.absolute(session.FinalizeURI), nil)
	if err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	c.authorize(req)

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
	case res.StatusCode == http.StatusConflict:
		// Already finalized.
	default:
		return "", &RemoteError{Operation: "finalize", StatusCode: res.StatusCode, Message: readMessage(res.Body)}
	}

	return session.AssetURI, nil
}

type assetStatusResponse struct {
	Upload struct {
		Status string `json:"status"`
	} `json:"upload"`
	Transcode struct {
		Status string `json:"status"`
	} `json:"transcode"`
}

// AssetStatus fetches receipt and transcoding state for an uploaded asset.
func (c *HTTPClient) AssetStatus(ctx context.Context, assetRef string) (AssetStatus, error) {
	var resp assetStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, c.assetPath(assetRef)+"/status", nil, &resp); err != nil {
		return AssetStatus{}, fmt.Errorf("asset status: %w", err)
	}

	return AssetStatus{
		Received:   resp.Upload.Status == "complete",
		Processing: resp.Transcode.Status == "in_progress",
	}, nil
}

type folderAssetsResponse struct {
	Assets []struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		MediaType string    `json:"media_type"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
		SizeBytes int64     `json:"size_bytes"`
	} `json:"assets"`
}

// ListFolderAssets returns the host's records for every asset in a folder.
func (c *HTTPClient) ListFolderAssets(ctx context.Context, folderRef string) ([]models.RemoteAsset, error) {
	var resp folderAssetsResponse
	path := "/v1/folders/" + url.PathEscape(strings.TrimPrefix(folderRef, "/")) + "/assets"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list folder assets: %w", err)
	}

	assets := make([]models.RemoteAsset, 0, len(resp.Assets))
	for _, a := range resp.Assets {
		assets = append(assets, models.RemoteAsset{
			RemoteID:  a.ID,
			Name:      a.Name,
			MediaType: a.MediaType,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
			SizeBytes: a.SizeBytes,
		})
	}

	return assets, nil
}

type downloadLinkResponse struct {
	URL string `json:"url"`
}

// DownloadLink resolves a short-lived direct download URL for an asset.
func (c *HTTPClient) DownloadLink(ctx context.Context, assetRef string) (string, error) {
	var resp downloadLinkResponse
	if err := c.doJSON(ctx, http.MethodGet, c.assetPath(assetRef)+"/download", nil, &resp); err != nil {
		return "", fmt.Errorf("download link: %w", err)
	}
	return resp.URL, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.absolute(path), body)
	if err != nil {
		return err
	}
	c.authorize(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &RemoteError{Operation: method + " " + path, StatusCode: res.StatusCode, Message: readMessage(res.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
}

// absolute resolves API paths and session-relative URIs against the base URL
// while passing through fully qualified URLs untouched.
func (c *HTTPClient) absolute(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *HTTPClient) assetPath(assetRef string) string {
	if strings.HasPrefix(assetRef, "http://") || strings.HasPrefix(assetRef, "https://") {
		return assetRef
	}
	if strings.HasPrefix(assetRef, "/") {
		return assetRef
	}
	return "/v1/assets/" + url.PathEscape(assetRef)
}

func readMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

var _ Client = (*HTTPClient)(nil)
