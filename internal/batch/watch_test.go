package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchable(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		dir       bool
		create    bool
		operation fsnotify.Op
		expected  bool
	}{
		{name: "create xml", file: "nota.xml", create: true, operation: fsnotify.Create, expected: true},
		{name: "write xml", file: "nota.xml", create: true, operation: fsnotify.Write, expected: true},
		{name: "upper case extension", file: "NOTA.XML", create: true, operation: fsnotify.Create, expected: true},
		{name: "chmod is ignored", file: "nota.xml", create: true, operation: fsnotify.Chmod},
		{name: "remove is ignored", file: "gone.xml", operation: fsnotify.Remove},
		{name: "other extension", file: "nota.json", create: true, operation: fsnotify.Create},
		{name: "hidden temp file", file: ".nota.xml.123.tmp", create: true, operation: fsnotify.Create},
		{name: "directory", file: "lote.xml", dir: true, operation: fsnotify.Create},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			switch {
			case tt.dir:
				require.NoError(t, os.Mkdir(path, 0o755))
			case tt.create:
				require.NoError(t, os.WriteFile(path, []byte("<a/>"), 0o644))
			}

			ev := fsnotify.Event{Name: path, Op: tt.operation}
			assert.Equal(t, tt.expected, watchable(ev, []string{"*.xml"}))
		})
	}
}

func TestWatchConvertsNewFiles(t *testing.T) {
	f := setup(t)
	watched := t.TempDir()
	f.in = watched
	r := newRunner(f, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan Result, 4)
	done := make(chan error, 1)
	go func() {
		done <- r.Watch(ctx, watched, WatchOptions{Debounce: 50 * time.Millisecond}, func(res Result) {
			results <- res
		})
	}()

	// Give the watcher time to register before the file appears.
	time.Sleep(200 * time.Millisecond)
	input := filepath.Join(watched, "novo.xml")
	require.NoError(t, os.WriteFile(input, []byte(`<pedido><id>7</id></pedido>`), 0o644))

	select {
	case res := <-results:
		assert.Equal(t, input, res.InputFile)
		assert.Equal(t, StatusConverted, res.Status)
		assert.FileExists(t, res.OutputFile)
	case <-time.After(5 * time.Second):
		t.Fatal("file was not converted")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestDebouncerDropsFiringSupersededByTouch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deb := newDebouncer(10 * time.Millisecond)
	defer deb.stop()

	receive := func() debounced {
		t.Helper()
		select {
		case fired := <-deb.ready:
			return fired
		case <-time.After(2 * time.Second):
			t.Fatal("debounce timer did not fire")
		}
		return debounced{}
	}

	deb.touch(ctx, "nota.xml")
	first := receive()

	// A write arrives after the timer fired but before the firing is handled.
	deb.touch(ctx, "nota.xml")
	assert.False(t, deb.take(first))

	second := receive()
	assert.True(t, deb.take(second))
	assert.False(t, deb.take(second))

	select {
	case extra := <-deb.ready:
		t.Fatalf("unexpected extra firing for %s", extra.path)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerCoalescesTouches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deb := newDebouncer(50 * time.Millisecond)
	defer deb.stop()

	for i := 0; i < 5; i++ {
		deb.touch(ctx, "nota.xml")
	}

	var taken int
	timeout := time.After(500 * time.Millisecond)
	for {
		select {
		case fired := <-deb.ready:
			if deb.take(fired) {
				taken++
			}
			continue
		case <-timeout:
		}
		break
	}
	assert.Equal(t, 1, taken)
}
