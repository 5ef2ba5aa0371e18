package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
	ReviewDir string `toml:"review_dir"`
	TempDir   string `toml:"temp_dir"`
}

// Format holds the conformance rule every session file is checked against.
type Format struct {
	SampleRate   int `toml:"sample_rate"`
	BitDepth     int `toml:"bit_depth"`
	StemChannels int `toml:"stem_channels"`
	MixChannels  int `toml:"mix_channels"`
	RawChannels  int `toml:"raw_channels"`
}

// Silence configures the frame-wise silence detector.
type Silence struct {
	// Threshold is compared against absolute sample values on a 16-bit scale.
	Threshold    int     `toml:"threshold"`
	FrameSeconds float64 `toml:"frame_seconds"`
}

// Alignment configures the cross-correlation alignment checks.
type Alignment struct {
	AnalysisRate     int     `toml:"analysis_rate"`
	WindowSeconds    float64 `toml:"window_seconds"`
	ToleranceSamples int     `toml:"tolerance_samples"`
	MinOverlapRatio  float64 `toml:"min_overlap_ratio"`
}

// Inclusion configures the NNLS contribution checks.
type Inclusion struct {
	WeightThreshold float64 `toml:"weight_threshold"`
}

// Engine contains execution settings for the validation engine.
type Engine struct {
	Workers  int  `toml:"workers"`
	Progress bool `toml:"progress"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for multitrack.
//
// Configuration sections by subsystem:
//   - Paths: state (history db, lock), logs, review and temp directories
//   - Format: required sample rate, bit depth and channel counts
//   - Silence: silence threshold and frame size
//   - Alignment: analysis rate, window, lag tolerance
//   - Inclusion: minimum NNLS contribution weight
//   - Engine: worker count and progress output
//   - Logging: log format and level
//   - Messages: problem text overrides keyed by check name
type Config struct {
	Paths     Paths     `toml:"paths"`
	Format    Format    `toml:"format"`
	Silence   Silence   `toml:"silence"`
	Alignment Alignment `toml:"alignment"`
	Inclusion Inclusion `toml:"inclusion"`
	Engine    Engine    `toml:"engine"`
	Logging   Logging   `toml:"logging"`
	// Messages overrides problem texts, keyed by check name.
	Messages map[string]string `toml:"messages"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/multitrack/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("multitrack.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state, log and review directories.
// The temp dir is only created when explicitly configured.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.ReviewDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.TempDir) != "" {
		if err := os.MkdirAll(c.Paths.TempDir, 0o755); err != nil {
			return fmt.Errorf("create temp directory %q: %w", c.Paths.TempDir, err)
		}
	}
	return nil
}

// HistoryPath returns the SQLite database used for run history.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the lock file guarding validate and clean-silent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "multitrack.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
