package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/diskwatch/agent/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitDiscard()
	os.Exit(m.Run())
}

func TestWatcherEmitsReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "diskwatch.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DISKWATCH_THRESHOLD=90\n"), 0644))

	w, err := NewWatcher(envFile, context.Background())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(envFile, []byte("DISKWATCH_THRESHOLD=80\n"), 0644))

	select {
	case event := <-w.Events():
		require.Equal(t, envFile, event.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload event after config file write")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "diskwatch.env")
	require.NoError(t, os.WriteFile(envFile, []byte(""), 0644))

	w, err := NewWatcher(envFile, context.Background())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0644))

	select {
	case event := <-w.Events():
		t.Fatalf("unexpected reload event for %s", event.Path)
	case <-time.After(1 * time.Second):
	}
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "diskwatch.env")
	require.NoError(t, os.WriteFile(envFile, []byte(""), 0644))

	w, err := NewWatcher(envFile, context.Background())
	require.NoError(t, err)
	w.debounceDelay = 200 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(envFile, []byte("DISKWATCH_THRESHOLD=85\n"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-w.Events():
	case <-time.After(5 * time.Second):
		t.Fatal("no reload event after rapid writes")
	}

	select {
	case <-w.Events():
		t.Fatal("rapid writes produced more than one reload event")
	case <-time.After(500 * time.Millisecond):
	}
}
