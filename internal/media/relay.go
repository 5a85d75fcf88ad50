package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/ignite/contact-intake/internal/pkg/httpretry"
)

// RelayHost forwards uploads verbatim to an external media service and
// relays whatever it answers. It never inspects the file: the upstream
// host owns validation and naming.
type RelayHost struct {
	client   httpretry.Doer
	endpoint string
	token    string
}

// NewRelayHost creates a relay for the given endpoint. The token, when
// set, rides along as a bearer credential.
func NewRelayHost(endpoint, token string, attempts int) *RelayHost {
	return &RelayHost{
		client:   httpretry.New(nil, attempts),
		endpoint: endpoint,
		token:    token,
	}
}

// Upload re-posts the file as multipart form data and returns the
// upstream response untouched.
func (h *RelayHost) Upload(ctx context.Context, filename string, data []byte) (*Result, error) {
	var payload bytes.Buffer
	writer := multipart.NewWriter(&payload)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("building relay payload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("building relay payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("building relay payload: %w", err)
	}

	req, err := httpretry.NewRequest(ctx, http.MethodPost, h.endpoint, payload.Bytes())
	if err != nil {
		return nil, fmt.Errorf("building relay request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relaying upload: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading relay response: %w", err)
	}

	return &Result{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// Name identifies the host in logs and startup output.
func (h *RelayHost) Name() string { return "relay" }
