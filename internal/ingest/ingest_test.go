package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListPDFs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.pdf"), "b")
	touch(t, filepath.Join(dir, "A.PDF"), "a")
	touch(t, filepath.Join(dir, "c.Pdf"), "c")
	touch(t, filepath.Join(dir, "notes.txt"), "n")
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(dir, "sub", "deep.pdf"), "d")

	got, err := ListPDFs(dir)
	if err != nil {
		t.Fatalf("ListPDFs() error = %v", err)
	}
	want := []string{"A.PDF", "b.pdf", "c.Pdf"}
	if len(got) != len(want) {
		t.Fatalf("got %d files, want %d: %+v", len(got), len(want), got)
	}
	for i, c := range got {
		if c.Name != want[i] || c.Path != filepath.Join(dir, want[i]) {
			t.Fatalf("file %d = %+v, want %s", i, c, want[i])
		}
	}
}

func TestListPDFsMissingDir(t *testing.T) {
	if _, err := ListPDFs(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected an error for a missing folder")
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.pdf")
	touch(t, path, "abc")
	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("HashFile() = %s, want %s", got, want)
	}
}

func TestWaitStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.pdf")
	touch(t, path, "%PDF-1.4")
	info, err := WaitStable(context.Background(), path, 5*time.Millisecond, 5)
	if err != nil {
		t.Fatalf("WaitStable() error = %v", err)
	}
	if info.Size() != int64(len("%PDF-1.4")) {
		t.Fatalf("size = %d", info.Size())
	}
}

func TestWaitStableGivesUpOnEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.pdf")
	touch(t, path, "")
	info, err := WaitStable(context.Background(), path, time.Millisecond, 3)
	if !errors.Is(err, ErrUnsettled) {
		t.Fatalf("error = %v, want ErrUnsettled", err)
	}
	if info == nil || info.Size() != 0 {
		t.Fatalf("last stat = %v, want the empty file", info)
	}
}

func TestWaitStableMissingFile(t *testing.T) {
	_, err := WaitStable(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"), time.Millisecond, 3)
	if !os.IsNotExist(err) {
		t.Fatalf("error = %v, want not-exist", err)
	}
}

func TestStartWatcherEmitsCreatedPDFs(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Dir: dir})
	if err != nil {
		t.Fatalf("StartWatcher() error = %v", err)
	}
	touch(t, filepath.Join(dir, "ignored.txt"), "x")
	touch(t, filepath.Join(dir, "scan.pdf"), "x")

	select {
	case got := <-events:
		if filepath.Base(got) != "scan.pdf" {
			t.Fatalf("event for %q, want scan.pdf", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event for created pdf")
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			// a late duplicate is possible; the channel must still close
			for range events {
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("event channel not closed after cancel")
	}
}
