package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnbot/internal/domain"
)

func TestTextExtractLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("  first line  \n\n\t\nsecond line\n"), 0o644))

	lines, err := Text{}.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first line", "second line"}, lines)
}

func TestTextExtractMissingFile(t *testing.T) {
	_, err := Text{}.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestDispatcherWrapsFailures(t *testing.T) {
	d := NewDispatcher("")
	_, err := d.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	var ierr *domain.IngestionError
	assert.ErrorAs(t, err, &ierr)
}

func TestDispatcherRejectsUnknownTypeWithoutService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))

	d := NewDispatcher("")
	_, err := d.Extract(context.Background(), path)
	var ierr *domain.IngestionError
	assert.ErrorAs(t, err, &ierr)
}

func TestRemoteExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse", r.URL.Path)
		_, _ = w.Write([]byte(`{"text": "one\ntwo\n\nthree"}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))

	lines, err := NewRemote(srv.URL).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, lines)
}

func TestRemoteExtractServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text": "", "error": "corrupt document"}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))

	_, err := NewRemote(srv.URL).Extract(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt document")
}
