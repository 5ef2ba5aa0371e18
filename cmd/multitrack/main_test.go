package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"multitrack/internal/config"
	"multitrack/internal/history"
	"multitrack/internal/services"
	"multitrack/internal/session"
	"multitrack/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	fixture    *testsupport.SessionFixture
	rawInfo    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.SessionOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	home := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)

	configPath := filepath.Join(testsupport.BaseDir(cfg), "multitrack.toml")
	writeTestConfig(t, configPath, cfg)

	fx := testsupport.BuildSession(t, 4, 21, testsupport.DefaultLayout(), opts...)
	rawInfo := filepath.Join(fx.Root, "raw_info.yaml")
	if err := session.WriteRawInfo(rawInfo, fx.RawInfo); err != nil {
		t.Fatalf("write raw info: %v", err)
	}

	return &cliTestEnv{cfg: cfg, configPath: configPath, fixture: fx, rawInfo: rawInfo}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (env *cliTestEnv) sessionArgs() []string {
	return []string{"--raw", env.fixture.RawDir, "--stem", env.fixture.StemDir, "--mix", env.fixture.MixPath}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--log-level", "error"}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n---\n%s", needle, haystack)
	}
}

func TestValidateCleanSessionRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	args := append([]string{"validate", "--raw-info", env.rawInfo}, env.sessionArgs()...)
	out, _, err := runCLI(t, env.configPath, args...)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	requireContains(t, out, "Session Song_MIX")
	requireContains(t, out, "Stem3.wav")
	requireContains(t, out, "no problems found")

	store := testsupport.MustOpenStore(t, env.cfg)
	runs, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	if runs[0].Status != history.StatusPassed || runs[0].Command != "validate" {
		t.Fatalf("unexpected run: %+v", runs[0])
	}
}

func TestValidateJSONReportsProblems(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithSilentRaw("Raw2.wav"))

	args := append([]string{"check-audio", "--json"}, env.sessionArgs()...)
	out, _, err := runCLI(t, env.configPath, args...)
	var reported *problemsError
	if !errors.As(err, &reported) {
		t.Fatalf("expected problemsError, got %v", err)
	}
	if code := services.ExitCode(err); code != services.ExitProblems {
		t.Fatalf("exit code = %d, want %d", code, services.ExitProblems)
	}

	var payload validateOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if payload.Passed || payload.Session != "Song_MIX" || payload.RunID == "" {
		t.Fatalf("unexpected payload header: %+v", payload)
	}
	if len(payload.Problems) != 1 || payload.Problems[0] != "Raw2.wav : File is silent." {
		t.Fatalf("problems = %v", payload.Problems)
	}
}

func TestValidateNoHistorySkipsRecording(t *testing.T) {
	env := setupCLITestEnv(t)

	args := append([]string{"check-audio", "--no-history"}, env.sessionArgs()...)
	if _, _, err := runCLI(t, env.configPath, args...); err != nil {
		t.Fatalf("check-audio: %v", err)
	}
	out, _, err := runCLI(t, env.configPath, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestValidateMissingFolder(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env.configPath, "validate",
		"--raw", filepath.Join(env.fixture.Root, "missing"),
		"--stem", env.fixture.StemDir,
		"--mix", env.fixture.MixPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if code := services.ExitCode(err); code != services.ExitUnreadable {
		t.Fatalf("exit code = %d", code)
	}
}

func TestValidateBusyLock(t *testing.T) {
	env := setupCLITestEnv(t)

	lock := flock.New(env.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("take lock: %v %v", locked, err)
	}
	defer func() { _ = lock.Unlock() }()

	args := append([]string{"check-audio"}, env.sessionArgs()...)
	_, _, err = runCLI(t, env.configPath, args...)
	if !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestProbeCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "probe", "--kind", "raw",
		env.fixture.RawPath("Raw1.wav"), env.fixture.StemPath("Stem1.wav"))
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	requireContains(t, out, "Raw1.wav")
	requireContains(t, out, "44100")

	out, _, err = runCLI(t, env.configPath, "probe", "--json", "--kind", "stem", env.fixture.StemPath("Stem1.wav"))
	if err != nil {
		t.Fatalf("probe json: %v", err)
	}
	var rows []probeRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].Stats == nil || rows[0].Stats.Channels != 2 || !rows[0].Conformant || rows[0].Silent {
		t.Fatalf("unexpected probe rows: %+v", rows)
	}

	_, _, err = runCLI(t, env.configPath, "probe", "--kind", "drums", env.fixture.MixPath)
	if !errors.Is(err, services.ErrInvalidCheckKind) {
		t.Fatalf("expected ErrInvalidCheckKind, got %v", err)
	}

	_, _, err = runCLI(t, env.configPath, "probe", filepath.Join(env.fixture.Root, "nope.wav"))
	if !errors.Is(err, services.ErrUnreadableFile) {
		t.Fatalf("expected ErrUnreadableFile, got %v", err)
	}
}

func TestCleanSilentDryRunAndMove(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithSilentRaw("Raw2.wav"))
	silent := env.fixture.RawPath("Raw2.wav")

	args := append([]string{"clean-silent", "--dry-run"}, env.sessionArgs()...)
	out, _, err := runCLI(t, env.configPath, args...)
	if err != nil {
		t.Fatalf("clean-silent dry run: %v", err)
	}
	requireContains(t, out, "Raw2.wav")
	requireContains(t, out, "would move")
	if _, err := os.Stat(silent); err != nil {
		t.Fatalf("dry run removed the file: %v", err)
	}

	args = append([]string{"clean-silent", "--json"}, env.sessionArgs()...)
	out, _, err = runCLI(t, env.configPath, args...)
	if err != nil {
		t.Fatalf("clean-silent: %v", err)
	}
	var payload cleanSilentOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	want := filepath.Join(env.cfg.Paths.ReviewDir, "Song_MIX", "Raw2.wav")
	if len(payload.Files) != 1 || payload.Files[0].MovedTo != want {
		t.Fatalf("unexpected moved files: %+v", payload.Files)
	}
	if _, err := os.Stat(silent); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, stat err = %v", err)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected moved file: %v", err)
	}

	args = append([]string{"clean-silent"}, env.sessionArgs()...)
	out, _, err = runCLI(t, env.configPath, args...)
	if err != nil {
		t.Fatalf("second clean-silent: %v", err)
	}
	requireContains(t, out, "No silent files found")
}

func TestHistoryShowAndClear(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithSilentRaw("Raw1.wav"))

	args := append([]string{"validate", "--raw-info", env.rawInfo}, env.sessionArgs()...)
	if _, _, err := runCLI(t, env.configPath, args...); err == nil {
		t.Fatal("expected problems from silent raw")
	}

	out, _, err := runCLI(t, env.configPath, "history", "list", "--json")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var runs []history.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != history.StatusProblems {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	out, _, err = runCLI(t, env.configPath, "history", "show", runs[0].ID[:8])
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, runs[0].ID)
	requireContains(t, out, "Raw1.wav : File is silent.")

	out, _, err = runCLI(t, env.configPath, "history", "clear")
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	requireContains(t, out, "Removed 1 runs")

	_, _, err = runCLI(t, env.configPath, "history", "show", runs[0].ID)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
	if _, _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[format]\nsample_rate = -1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := runCLI(t, path, "config", "validate")
	if code := services.ExitCode(err); code != services.ExitConfig {
		t.Fatalf("exit code = %d (%v), want %d", code, err, services.ExitConfig)
	}
}

func TestConfigValidateRejectsUnknownMessage(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Messages = map[string]string{"Bogus": "x"}
	writeTestConfig(t, env.configPath, env.cfg)
	_, _, err := runCLI(t, env.configPath, "config", "validate")
	if code := services.ExitCode(err); code != services.ExitConfig {
		t.Fatalf("exit code = %d (%v), want %d", code, err, services.ExitConfig)
	}
	requireContains(t, err.Error(), "Bogus")
}

func TestPreflightCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	args := append([]string{"preflight"}, env.sessionArgs()...)
	out, _, err := runCLI(t, env.configPath, args...)
	if err != nil {
		t.Fatalf("preflight: %v\n%s", err, out)
	}
	requireContains(t, out, "State directory")
	requireContains(t, out, "Mix file")
	if strings.Contains(out, "[FAIL]") {
		t.Fatalf("unexpected failure:\n%s", out)
	}

	out, _, err = runCLI(t, env.configPath, "preflight", "--mix", filepath.Join(env.fixture.Root, "gone.wav"))
	if err == nil {
		t.Fatalf("expected preflight failure\n%s", out)
	}
	requireContains(t, out, "[FAIL]")
}
