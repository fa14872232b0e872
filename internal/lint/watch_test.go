package lint

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type watchOutcome struct {
	result *Result
	err    error
}

func TestNewWatcher_RejectsBaselineCreation(t *testing.T) {
	o, _ := newTestOrchestrator(t, testConfig(t.TempDir()), OrchestratorConfig{CreateBaseline: true})
	_, err := NewWatcher(o)
	assert.ErrorIs(t, err, ErrWatchUnsupported)
}

func TestWatcher_Relevant(t *testing.T) {
	root := t.TempDir()
	o, _ := newTestOrchestrator(t, testConfig(root), OrchestratorConfig{})
	w, err := NewWatcher(o)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.fsw.Close() })

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "pages", "home.site.json"), true},
		{filepath.Join(root, "home.site.yml"), true},
		{filepath.Join(root, ".classlint-rules.json"), true},
		{filepath.Join(root, "README.md"), false},
		{filepath.Join(root, "home.json"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, w.relevant(tt.path), tt.path)
	}
}

func TestWatcher_PendingBatches(t *testing.T) {
	root := t.TempDir()
	o, _ := newTestOrchestrator(t, testConfig(root), OrchestratorConfig{})
	w, err := NewWatcher(o)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.fsw.Close() })

	home := filepath.Join(root, "home.site.json")
	w.handleFSEvent(fsnotify.Event{Name: home, Op: fsnotify.Write})
	w.handleFSEvent(fsnotify.Event{Name: home, Op: fsnotify.Write})
	w.handleFSEvent(fsnotify.Event{Name: home, Op: fsnotify.Chmod})
	w.handleFSEvent(fsnotify.Event{Name: filepath.Join(root, "notes.txt"), Op: fsnotify.Write})

	batch := w.takePending()
	assert.Len(t, batch, 1)
	assert.False(t, w.rulesChanged(batch))
	assert.Nil(t, w.takePending())

	w.handleFSEvent(fsnotify.Event{Name: o.Store().Path, Op: fsnotify.Create})
	assert.True(t, w.rulesChanged(w.takePending()))
}

func TestWatcher_RescansOnChange(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "home.site.json", homeExport)

	cfg := testConfig(root)
	cfg.Debounce = 20 * time.Millisecond
	o, _ := newTestOrchestrator(t, cfg, OrchestratorConfig{})
	w, err := NewWatcher(o)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	outcomes := make(chan watchOutcome, 8)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(r *Result, err error) {
			outcomes <- watchOutcome{r, err}
		})
	}()

	next := func() watchOutcome {
		t.Helper()
		select {
		case out := <-outcomes:
			return out
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a lint run")
			return watchOutcome{}
		}
	}

	first := next()
	require.NoError(t, first.err)
	assert.Equal(t, "home", first.result.Summary.Results[0].Page)

	// A write may surface as several batches; wait for the settled content
	writeExport(t, root, "home.site.json", brokenExport)
	var second watchOutcome
	for {
		second = next()
		require.NoError(t, second.err)
		if second.result.Summary.Results[0].Page == "broken" {
			break
		}
	}
	assert.True(t, second.result.HasFailures)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
