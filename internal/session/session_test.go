package session_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"multitrack/internal/services"
	"multitrack/internal/session"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestListWAVFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.wav", "A.WAV", "c.Wav", "notes.txt", ".hidden.wav", "sub/d.wav"} {
		touch(t, filepath.Join(dir, name))
	}
	files, err := session.ListWAV(dir)
	if err != nil {
		t.Fatalf("ListWAV: %v", err)
	}
	want := []string{
		filepath.Join(dir, "A.WAV"),
		filepath.Join(dir, "b.wav"),
		filepath.Join(dir, "c.Wav"),
	}
	if len(files) != len(want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestDiscoverMissingFolder(t *testing.T) {
	dir := t.TempDir()
	_, err := session.Discover(filepath.Join(dir, "nope"), dir, filepath.Join(dir, "mix.wav"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDiscoverNamesFolders(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "RAW", "Raw1.wav"))
	touch(t, filepath.Join(root, "STEMS", "Stem1.wav"))
	s, err := session.Discover(filepath.Join(root, "RAW"), filepath.Join(root, "STEMS"), filepath.Join(root, "Song_MIX.wav"))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if s.RawFolder() != "RAW" || s.StemFolder() != "STEMS" || s.Name() != "Song_MIX" {
		t.Fatalf("unexpected names: %q %q %q", s.RawFolder(), s.StemFolder(), s.Name())
	}
	if path, ok := s.StemByName("Stem1.wav"); !ok || filepath.Base(path) != "Stem1.wav" {
		t.Fatalf("StemByName failed: %q %v", path, ok)
	}
	if _, ok := s.StemByName("Stem9.wav"); ok {
		t.Fatal("expected unknown stem to be absent")
	}
}
