package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tsOnly(path string) bool { return strings.HasSuffix(path, ".ts") }

func startWatcher(t *testing.T, root string) <-chan []Change {
	t.Helper()
	batches := make(chan []Change, 10)
	opts := DefaultOptions()
	opts.Debounce = 50 * time.Millisecond
	opts.Match = tsOnly
	opts.Logger = slog.New(slog.DiscardHandler)

	w, err := New(root, func(_ context.Context, changes []Change) {
		batches <- changes
	}, opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		cancel()
		w.Stop()
	})
	return batches
}

func waitBatch(t *testing.T, batches <-chan []Change) []Change {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change batch")
		return nil
	}
}

func TestWatcher_DebouncesSourceChanges(t *testing.T) {
	root := t.TempDir()
	batches := startWatcher(t, root)

	path := filepath.Join(root, "ground.ts")
	require.NoError(t, os.WriteFile(path, []byte("export class Ground {}"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("export class Ground { x() {} }"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("docs"), 0644))

	batch := waitBatch(t, batches)
	require.Len(t, batch, 1)
	assert.Equal(t, path, batch[0].Path)
}

func TestWatcher_IgnoresDirsAndWatchesNewDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0755))
	batches := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "pkg", "index.ts"), []byte("x"), 0644))

	sub := filepath.Join(root, "services")
	require.NoError(t, os.Mkdir(sub, 0755))
	// 等待新目录被加入监听
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "plant.ts"), []byte("export class Plant {}"), 0644))

	batch := waitBatch(t, batches)
	require.NotEmpty(t, batch)
	for _, c := range batch {
		assert.NotContains(t, c.Path, "node_modules")
	}
	assert.Equal(t, filepath.Join(sub, "plant.ts"), batch[len(batch)-1].Path)
}

func TestDeduplicate(t *testing.T) {
	changes := []Change{
		{Path: "a.ts", Op: OpCreate},
		{Path: "b.ts", Op: OpWrite},
		{Path: "a.ts", Op: OpWrite},
	}
	assert.Equal(t, []Change{{Path: "a.ts", Op: OpWrite}, {Path: "b.ts", Op: OpWrite}}, deduplicate(changes))
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "create", OpCreate.String())
	assert.Equal(t, "rename", OpRename.String())
	assert.Equal(t, "unknown", Op(42).String())
}
