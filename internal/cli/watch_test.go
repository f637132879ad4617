package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestDatasetWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.json")
	other := filepath.Join(dir, "other.json")
	if err := os.WriteFile(path, []byte(`{"budget": 1, "costs": [1]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := newDatasetWatcher(path, log.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.run(ctx, func() error {
			changes <- struct{}{}
			return nil
		})
	}()

	if err := os.WriteFile(other, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changes:
		t.Fatal("a change to another file should be ignored")
	case <-time.After(200 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte(`{"budget": 2, "costs": [1]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported after writing the dataset")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
