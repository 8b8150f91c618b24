// Package docservice is the HTTP client for the external document-processing
// service. It implements core.DocumentService over two endpoints:
//
//	POST {base}/upload  multipart, one "files" part per document -> JSON dataset
//	POST {base}/export  JSON dataset -> generated .docx
//
// Non-2xx answers carry a JSON body {"detail": "..."}, surfaced as
// *core.ServiceError.
package docservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/JonMunkholm/dutysummary/internal/core"
	"github.com/JonMunkholm/dutysummary/internal/logging"
)

// FilesField is the multipart field every document is sent under.
const FilesField = "files"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 64 << 20

// Client talks to the document service.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for baseURL. Timeout bounds each round trip; zero
// means no client-side timeout beyond the request context.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Parse uploads the files and returns the raw JSON body of a 2xx answer.
func (c *Client) Parse(ctx context.Context, files core.SelectedFileSet) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreatePart(filePartHeader(f.Name))
		if err != nil {
			return nil, fmt.Errorf("create part %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("write part %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	body, _, err := c.post(ctx, "/upload", mw.FormDataContentType(), &buf)
	return body, err
}

// Render posts the dataset and returns the generated document.
func (c *Client) Render(ctx context.Context, d *core.ReportDataset) ([]byte, string, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, "", fmt.Errorf("encode dataset: %w", err)
	}
	return c.post(ctx, "/export", "application/json", bytes.NewReader(payload))
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Request-ID", requestID(ctx))

	logger := logging.WithFields(ctx, "path", path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("document service unreachable", "error", err)
		return nil, "", fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read %s response: %w", path, err)
	}

	logger.Debug("document service answered",
		"status", resp.StatusCode,
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &core.ServiceError{Status: resp.StatusCode, Detail: parseDetail(data)}
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// parseDetail extracts the "detail" field of an error body. FastAPI-style
// validation errors send a list of objects; their "msg" fields are joined.
func parseDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func filePartHeader(name string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FilesField, name))
	h.Set("Content-Type", core.DocxContentType)
	return h
}

// requestID forwards the inbound chi request ID, or mints one.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
