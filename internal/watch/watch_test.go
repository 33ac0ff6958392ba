package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReportsWritesToWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "prog.yaml")
	other := filepath.Join(dir, "other.yaml")
	if err := os.WriteFile(input, []byte("program: p\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New([]string{input})
	if err != nil {
		t.Skip("fsnotify not supported: ", err)
	}
	defer w.Close()
	if w.Len() != 1 {
		t.Fatalf("watching %d files", w.Len())
	}

	go func() {
		_ = os.WriteFile(other, []byte("x"), 0o644)
		_ = os.WriteFile(input, []byte("program: q\n"), 0o644)
	}()
	select {
	case got := <-w.Changes():
		want, _ := filepath.Abs(input)
		if got != want {
			t.Fatalf("change reported for %s, want %s", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
	}
}
