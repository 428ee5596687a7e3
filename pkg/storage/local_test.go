package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func writeFile(t *testing.T, s FileStore, name, data string) {
	t.Helper()
	w, err := s.Write(context.Background(), name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, s FileStore, name string) string {
	t.Helper()
	r, err := s.Read(context.Background(), name)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(got)
}

func TestLocal_WriteAndRead(t *testing.T) {
	s := newTestLocal(t)
	writeFile(t, s, "sessions/2024/a.ogg", "OggS fake stream")
	if got := readFile(t, s, "sessions/2024/a.ogg"); got != "OggS fake stream" {
		t.Fatalf("got %q", got)
	}
}

func TestLocal_WriteIsAtomic(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	writeFile(t, s, "out.ogg", "old stream")

	w, err := s.Write(ctx, "out.ogg")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "new stream, still encoding")

	// Until Close, readers see the previous file.
	if got := readFile(t, s, "out.ogg"); got != "old stream" {
		t.Fatalf("before Close got %q, want the old stream", got)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if got := readFile(t, s, "out.ogg"); got != "new stream, still encoding" {
		t.Fatalf("after Close got %q", got)
	}

	entries, err := os.ReadDir(s.Root())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestLocal_ReadNotExist(t *testing.T) {
	s := newTestLocal(t)
	_, err := s.Read(context.Background(), "no-such-file.pcm")
	if !os.IsNotExist(err) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLocal_ExistsAndDelete(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	if ok, err := s.Exists(ctx, "a.ogg"); err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}
	writeFile(t, s, "a.ogg", "x")
	if ok, err := s.Exists(ctx, "a.ogg"); err != nil || !ok {
		t.Fatalf("Exists(present) = %v, %v", ok, err)
	}

	for range 2 {
		if err := s.Delete(ctx, "a.ogg"); err != nil {
			t.Fatal(err)
		}
	}
	if ok, _ := s.Exists(ctx, "a.ogg"); ok {
		t.Fatal("file should be gone after delete")
	}
}

func TestNewLocalCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	s, err := NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(s.Root())
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Fatal("expected directory")
	}
}

func TestLocal_Abort(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	writeFile(t, s, "out.ogg", "old stream")

	w, err := s.Write(ctx, "out.ogg")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "half a stream")
	if err := Abort(w); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close after Abort: %v", err)
	}
	if got := readFile(t, s, "out.ogg"); got != "old stream" {
		t.Errorf("after Abort got %q, want the old stream", got)
	}
	entries, err := os.ReadDir(s.Root())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("root holds %d entries, want only out.ogg", len(entries))
	}
}
