package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"multitrack/internal/history"
	"multitrack/internal/logging"
	"multitrack/internal/preflight"
	"multitrack/internal/services"
	"multitrack/internal/session"
	"multitrack/internal/validation"
)

// problemsError reports a completed run that found problems. The problems
// have already been printed, so main exits with ExitProblems silently.
type problemsError struct {
	count int
}

func (e *problemsError) Error() string {
	if e.count == 1 {
		return "1 problem found"
	}
	return fmt.Sprintf("%d problems found", e.count)
}

func (e *problemsError) Unwrap() error {
	return services.ErrValidation
}

// sessionFlags are the folder and mix flags shared by session commands.
type sessionFlags struct {
	rawDir  string
	stemDir string
	mixPath string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.rawDir, "raw", "", "Folder of mono raw WAV files")
	cmd.Flags().StringVar(&f.stemDir, "stem", "", "Folder of stereo stem WAV files")
	cmd.Flags().StringVar(&f.mixPath, "mix", "", "Stereo mix WAV file")
	_ = cmd.MarkFlagRequired("raw")
	_ = cmd.MarkFlagRequired("stem")
	_ = cmd.MarkFlagRequired("mix")
}

// discover runs the session preflight checks and lists the session files.
func (f *sessionFlags) discover() (*session.Session, error) {
	if failed := preflight.Failed(preflight.SessionChecks(f.rawDir, f.stemDir, f.mixPath)); len(failed) > 0 {
		first := failed[0]
		return nil, services.Wrap(services.ErrNotFound, "cli", "session", first.Name+": "+first.Detail, nil)
	}
	return session.Discover(f.rawDir, f.stemDir, f.mixPath)
}

type validateOptions struct {
	command    string
	session    sessionFlags
	rawInfo    string
	json       bool
	noHistory  bool
	multitrack bool
}

type validateOutput struct {
	RunID    string             `json:"run_id"`
	Session  string             `json:"session"`
	Passed   bool               `json:"passed"`
	Problems []string           `json:"problems"`
	Report   *validation.Report `json:"report"`
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	opts := validateOptions{command: "validate", multitrack: true}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a session's audio and multitrack consistency",
		Long: "Validate checks every file of a session for format, length and silence, then\n" +
			"checks stem/raw alignment and contribution when --raw-info is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidation(cmd, ctx, opts)
		},
	}
	opts.session.register(cmd)
	cmd.Flags().StringVar(&opts.rawInfo, "raw-info", "", "YAML mapping of raw files to stems and instruments")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record the run in the history database")
	return cmd
}

func newCheckAudioCommand(ctx *commandContext) *cobra.Command {
	opts := validateOptions{command: "check-audio"}
	cmd := &cobra.Command{
		Use:   "check-audio",
		Short: "Run only the per-file audio checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidation(cmd, ctx, opts)
		},
	}
	opts.session.register(cmd)
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record the run in the history database")
	return cmd
}

func runValidation(cmd *cobra.Command, ctx *commandContext, opts validateOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	s, err := opts.session.discover()
	if err != nil {
		return err
	}
	var rawInfo session.RawInfo
	if opts.multitrack && strings.TrimSpace(opts.rawInfo) != "" {
		rawInfo, err = session.LoadRawInfo(opts.rawInfo)
		if err != nil {
			return err
		}
	}

	return ctx.withLock(func() error {
		run := history.NewRun(opts.command, s, time.Now())
		runCtx := services.WithRequestID(cmd.Context(), run.ID)

		var engineOpts []validation.Option
		var bars *barProgress
		if cfg.Engine.Progress && !opts.json && shouldColorize(cmd.ErrOrStderr()) {
			bars = newBarProgress(cmd.ErrOrStderr())
			engineOpts = append(engineOpts, validation.WithProgress(bars))
		}
		engine := validation.New(validation.NewSettings(cfg), logger, engineOpts...)

		var report *validation.Report
		if rawInfo != nil {
			report, err = engine.Validate(runCtx, s, rawInfo)
		} else {
			report, err = engine.CheckAudio(runCtx, s)
		}
		if bars != nil {
			bars.Wait()
		}
		if err != nil {
			run.Fail(err, time.Now())
			recordRun(runCtx, ctx, opts.noHistory, run)
			return err
		}

		problems := validation.CreateProblems(report, engine.Settings().Messages)
		run.Complete(report, problems, time.Now())
		recordRun(runCtx, ctx, opts.noHistory, run)
		logging.WithContext(runCtx, logger).Info(
			"validation finished",
			logging.String(logging.FieldEventType, "validation_finished"),
			logging.Int("problems", len(problems)),
			logging.Duration("elapsed", run.Duration()),
		)

		if opts.json {
			if err := writeJSON(cmd, validateOutput{
				RunID:    run.ID,
				Session:  s.Name(),
				Passed:   len(problems) == 0,
				Problems: problems,
				Report:   report,
			}); err != nil {
				return err
			}
		} else {
			printValidation(cmd.OutOrStdout(), run, report, problems, shouldColorize(cmd.OutOrStdout()))
		}
		if len(problems) > 0 {
			return &problemsError{count: len(problems)}
		}
		return nil
	})
}

// recordRun stores run in the history database. Failures are logged and never
// change the command result.
func recordRun(runCtx context.Context, ctx *commandContext, skip bool, run *history.Run) {
	if skip {
		return
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return
	}
	logger, _ := ctx.ensureLogger()
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
			logging.String("path", cfg.HistoryPath()),
			logging.String(logging.FieldImpact, "run missing from history"),
			logging.Error(err),
		)
		return
	}
	defer store.Close()
	if err := store.Record(runCtx, run); err != nil {
		logging.WarnWithContext(logger, "run not recorded", "history_record_failed",
			logging.String("run_id", run.ID),
			logging.String(logging.FieldImpact, "run missing from history"),
			logging.Error(err),
		)
	}
}

func printValidation(out io.Writer, run *history.Run, report *validation.Report, problems []string, colorize bool) {
	fmt.Fprintf(out, "Session %s (run %s)\n", report.Session, shortID(run.ID))

	view := newTableView("Entity", "Kind", "Passed", "Failed").alignRight(2, 3)
	for _, e := range report.Entities {
		var passed, failed int
		for _, c := range e.Checks {
			switch c.Result {
			case validation.Pass:
				passed++
			case validation.Fail:
				failed++
			}
		}
		view.add(e.Name, string(e.Kind), strconv.Itoa(passed), strconv.Itoa(failed))
	}
	fmt.Fprintln(out, view.render())

	if len(problems) == 0 {
		fmt.Fprintln(out, renderStatusLine("Result", statusOK, "no problems found", colorize))
		return
	}
	fmt.Fprintln(out, "Problems:")
	for _, p := range problems {
		fmt.Fprintf(out, "  %s\n", p)
	}
	fmt.Fprintln(out, renderStatusLine("Result", statusError, fmt.Sprintf("%d problems", len(problems)), colorize))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
