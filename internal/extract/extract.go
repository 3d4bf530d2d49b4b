// Package extract implements the document-to-text collaborator contract:
// a file goes in, its ordered non-empty trimmed lines come out. Plain-text
// files are read locally; anything else (PDF and friends) is delegated to
// an external extraction service when one is configured.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"learnbot/internal/domain"
)

var textExtensions = map[string]struct{}{
	".txt":      {},
	".md":       {},
	".markdown": {},
}

// Text reads plain-text documents from the local filesystem.
type Text struct{}

// Extract returns the file's non-empty trimmed lines in document order.
func (Text) Extract(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return splitLines(string(data)), nil
}

// Remote extracts text by POSTing the raw file to an extraction service
// that answers {"text": "...", "error": "..."}.
type Remote struct {
	serviceURL string
	client     *http.Client
}

// NewRemote creates a client for the extraction service at url.
func NewRemote(url string) *Remote {
	return &Remote{serviceURL: url, client: &http.Client{Timeout: 60 * time.Second}}
}

// Extract uploads the file and returns the extracted non-empty lines.
func (r *Remote) Extract(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("extraction service: %s", resp.Status)
	}
	var result struct {
		Text  string `json:"text"`
		Error string `json:"error,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("extraction service: %s", result.Error)
	}
	return splitLines(result.Text), nil
}

// Dispatcher routes by file extension: plain text locally, everything else
// to the remote service if one is configured.
type Dispatcher struct {
	text   Text
	remote *Remote
}

// NewDispatcher creates a dispatcher. serviceURL may be empty, in which
// case only plain-text files are supported.
func NewDispatcher(serviceURL string) *Dispatcher {
	d := &Dispatcher{}
	if serviceURL != "" {
		d.remote = NewRemote(serviceURL)
	}
	return d
}

// Extract returns the document's lines, wrapping failures as
// IngestionError so callers can report them without tearing anything down.
func (d *Dispatcher) Extract(ctx context.Context, path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var lines []string
	var err error
	if _, ok := textExtensions[ext]; ok {
		lines, err = d.text.Extract(ctx, path)
	} else if d.remote != nil {
		lines, err = d.remote.Extract(ctx, path)
	} else {
		err = fmt.Errorf("unsupported document type %q and no extraction service configured", ext)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.IngestionError{Path: path, Err: err}
	}
	return lines, nil
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}

var (
	_ domain.Extractor = Text{}
	_ domain.Extractor = (*Remote)(nil)
	_ domain.Extractor = (*Dispatcher)(nil)
)
