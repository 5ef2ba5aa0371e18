package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"multitrack/internal/services"
)

// Session holds the paths of a session under validation.
type Session struct {
	MixPath string   `json:"mix_path"`
	RawDir  string   `json:"raw_dir"`
	StemDir string   `json:"stem_dir"`
	Raws    []string `json:"raws"`
	Stems   []string `json:"stems"`
}

// Discover lists the WAV files of rawDir and stemDir. The mix path is
// recorded as given; whether it is readable is decided by the engine.
func Discover(rawDir, stemDir, mixPath string) (*Session, error) {
	raws, err := ListWAV(rawDir)
	if err != nil {
		return nil, err
	}
	stems, err := ListWAV(stemDir)
	if err != nil {
		return nil, err
	}
	return &Session{
		MixPath: filepath.Clean(mixPath),
		RawDir:  filepath.Clean(rawDir),
		StemDir: filepath.Clean(stemDir),
		Raws:    raws,
		Stems:   stems,
	}, nil
}

// ListWAV returns the *.wav files (extension matched case-insensitively)
// directly inside dir, sorted by name. Subdirectories are not searched.
func ListWAV(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "session", "list", dir, err)
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".wav") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// Name is the mix basename without extension.
func (s *Session) Name() string {
	base := filepath.Base(s.MixPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RawFolder is the report entity name of the raw folder.
func (s *Session) RawFolder() string {
	return filepath.Base(s.RawDir)
}

// StemFolder is the report entity name of the stem folder.
func (s *Session) StemFolder() string {
	return filepath.Base(s.StemDir)
}

// StemByName returns the stem path whose basename is name.
func (s *Session) StemByName(name string) (string, bool) {
	for _, stem := range s.Stems {
		if filepath.Base(stem) == name {
			return stem, true
		}
	}
	return "", false
}
