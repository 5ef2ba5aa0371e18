package session

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"multitrack/internal/services"
)

// RawEntry is the labeling result for one raw file.
type RawEntry struct {
	Stem string `yaml:"stem" json:"stem"`
	Inst string `yaml:"inst" json:"inst"`
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// RawInfo maps raw basenames to their labeling result.
type RawInfo map[string]RawEntry

// LoadRawInfo reads a YAML mapping of raw basename to {stem, inst, path}.
// Instrument labels are normalized to title case and relative paths are
// resolved against the YAML file's directory.
func LoadRawInfo(path string) (RawInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "session", "raw info", path, err)
		}
		return nil, fmt.Errorf("read raw info: %w", err)
	}
	var info RawInfo
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&info); err != nil {
		return nil, services.Wrap(services.ErrValidation, "session", "raw info", "parse "+path, err)
	}
	base := filepath.Dir(path)
	normalized := make(RawInfo, len(info))
	for name, entry := range info {
		entry.Stem = strings.TrimSpace(entry.Stem)
		entry.Inst = NormalizeLabel(entry.Inst)
		if entry.Path != "" && !filepath.IsAbs(entry.Path) {
			entry.Path = filepath.Join(base, entry.Path)
		}
		normalized[strings.TrimSpace(name)] = entry
	}
	return normalized, nil
}

// WriteRawInfo writes info as YAML.
func WriteRawInfo(path string, info RawInfo) error {
	data, err := yaml.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode raw info: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write raw info: %w", err)
	}
	return nil
}

// NormalizeLabel collapses whitespace and title-cases an instrument label.
func NormalizeLabel(label string) string {
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return ""
	}
	return cases.Title(language.Und).String(strings.ToLower(strings.Join(fields, " ")))
}

// StemOf returns the stem basename raw is mapped to.
func (ri RawInfo) StemOf(raw string) (string, bool) {
	entry, ok := ri[filepath.Base(raw)]
	if !ok || entry.Stem == "" {
		return "", false
	}
	return entry.Stem, true
}

// RawsFor returns the raw paths, in the given order, mapped to stem.
func (ri RawInfo) RawsFor(stem string, raws []string) []string {
	var out []string
	for _, raw := range raws {
		if s, ok := ri.StemOf(raw); ok && s == stem {
			out = append(out, raw)
		}
	}
	return out
}
