// Package imagehost uploads chart images to an external host and returns the
// hosted link. Two hosts are supported: an imgbb-compatible HTTP API and
// Google Drive.
package imagehost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ehr/centile/internal/platform/artifact"
)

// maxDiagnostic bounds how much of an error body is kept.
const maxDiagnostic = 512

// HTTPUploader posts images to an imgbb-compatible endpoint: a form with the
// API key and the base64 image, answered by JSON holding data.url.
type HTTPUploader struct {
	endpoint string
	key      string
	client   *http.Client
}

// NewHTTPUploader returns an uploader for endpoint. A nil client gets a
// client with a 30 second timeout.
func NewHTTPUploader(endpoint, key string, client *http.Client) *HTTPUploader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPUploader{endpoint: endpoint, key: key, client: client}
}

type uploadResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload implements artifact.Uploader.
func (u *HTTPUploader) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	img, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	form := url.Values{}
	form.Set("key", u.key)
	form.Set("name", strings.TrimSuffix(name, ".png"))
	form.Set("image", base64.StdEncoding.EncodeToString(img))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", &artifact.DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &artifact.DeliveryError{Status: resp.StatusCode, Err: err}
	}

	var out uploadResponse
	jsonErr := json.Unmarshal(body, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		diag := out.Error.Message
		if jsonErr != nil || diag == "" {
			diag = truncate(strings.TrimSpace(string(body)))
		}
		return "", &artifact.DeliveryError{Status: resp.StatusCode, Diagnostic: diag}
	}
	if jsonErr != nil {
		return "", &artifact.DeliveryError{Status: resp.StatusCode, Diagnostic: "malformed response", Err: jsonErr}
	}
	if out.Data.URL == "" {
		return "", &artifact.DeliveryError{Status: resp.StatusCode, Diagnostic: "response has no image url"}
	}
	return out.Data.URL, nil
}

func truncate(s string) string {
	if len(s) <= maxDiagnostic {
		return s
	}
	return s[:maxDiagnostic] + "..."
}
