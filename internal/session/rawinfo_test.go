package session_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"multitrack/internal/services"
	"multitrack/internal/session"
)

func TestLoadRawInfoNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "raw_info.yaml")
	content := `
Raw1.wav:
  stem: Stem1.wav
  inst: "  electric   GUITAR "
  path: RAW/Raw1.wav
Raw2.wav:
  stem: " Stem2.wav"
  inst: vocalists
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := session.LoadRawInfo(path)
	if err != nil {
		t.Fatalf("LoadRawInfo: %v", err)
	}
	if got := info["Raw1.wav"].Inst; got != "Electric Guitar" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := info["Raw1.wav"].Path; got != filepath.Join(dir, "RAW", "Raw1.wav") {
		t.Fatalf("unexpected path %q", got)
	}
	if stem, ok := info.StemOf("/any/dir/Raw2.wav"); !ok || stem != "Stem2.wav" {
		t.Fatalf("StemOf = %q %v", stem, ok)
	}
}

func TestLoadRawInfoRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_info.yaml")
	if err := os.WriteFile(path, []byte("Raw1.wav:\n  stem: Stem1.wav\n  color: red\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := session.LoadRawInfo(path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLoadRawInfoMissing(t *testing.T) {
	if _, err := session.LoadRawInfo(filepath.Join(t.TempDir(), "none.yaml")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWriteRawInfoRoundTripsThroughLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_info.yaml")
	in := session.RawInfo{
		"Raw3_1.wav": {Stem: "Stem3.wav", Inst: "Bass"},
		"Raw3_2.wav": {Stem: "Stem3.wav", Inst: "Synth"},
	}
	if err := session.WriteRawInfo(path, in); err != nil {
		t.Fatalf("WriteRawInfo: %v", err)
	}
	out, err := session.LoadRawInfo(path)
	if err != nil {
		t.Fatalf("LoadRawInfo: %v", err)
	}
	raws := []string{"/x/Raw1.wav", "/x/Raw3_1.wav", "/x/Raw3_2.wav"}
	got := out.RawsFor("Stem3.wav", raws)
	if len(got) != 2 || got[0] != "/x/Raw3_1.wav" || got[1] != "/x/Raw3_2.wav" {
		t.Fatalf("RawsFor = %v", got)
	}
	if _, ok := out.StemOf("Raw1.wav"); ok {
		t.Fatal("unmapped raw should have no stem")
	}
}
