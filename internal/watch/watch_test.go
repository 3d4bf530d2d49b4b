package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKnowledgeFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "knowledge.csv")
	require.NoError(t, os.WriteFile(path, []byte("soal,jawaban\n"), 0o644))

	changed := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop, err := Knowledge(ctx, path, nil, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte("soal,jawaban\nq,a\n"), 0o644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected change notification")
	}
}

func TestKnowledgeIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "knowledge.csv")
	require.NoError(t, os.WriteFile(path, []byte("soal,jawaban\n"), 0o644))

	changed := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop, err := Knowledge(ctx, path, nil, func() {
		changed <- struct{}{}
	})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	select {
	case <-changed:
		t.Fatal("unexpected notification for sibling file")
	case <-time.After(1 * time.Second):
	}
}
