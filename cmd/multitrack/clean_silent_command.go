package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"multitrack/internal/fileutil"
	"multitrack/internal/logging"
	"multitrack/internal/services"
	"multitrack/internal/validation"
)

type silentFile struct {
	Path    string `json:"path"`
	MovedTo string `json:"moved_to,omitempty"`
}

type cleanSilentOutput struct {
	Session string       `json:"session"`
	DryRun  bool         `json:"dry_run"`
	Files   []silentFile `json:"files"`
}

func newCleanSilentCommand(ctx *commandContext) *cobra.Command {
	var flags sessionFlags
	var dryRun bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "clean-silent",
		Short: "Move silent stems and raws into the review directory",
		Long: "clean-silent runs the audio checks and moves every file that failed the\n" +
			"silence check into <review_dir>/<session>. Files are copied, verified and\n" +
			"then removed from the session.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			s, err := flags.discover()
			if err != nil {
				return err
			}

			return ctx.withLock(func() error {
				engine := validation.New(validation.NewSettings(cfg), logger)
				report, err := engine.CheckAudio(cmd.Context(), s)
				if err != nil {
					return err
				}

				out := cleanSilentOutput{Session: s.Name(), DryRun: dryRun, Files: []silentFile{}}
				dest := filepath.Join(cfg.Paths.ReviewDir, s.Name())
				var moveErr error
				for _, path := range engine.SilentFiles(s, report) {
					if path == s.MixPath {
						logging.WarnWithContext(logger, "silent mix left in place", "silent_mix",
							logging.String("path", path),
							logging.String(logging.FieldImpact, "session cannot pass until the mix is replaced"),
						)
						continue
					}
					file := silentFile{Path: path}
					if !dryRun {
						moved, err := fileutil.MoveVerified(path, dest)
						if err != nil {
							moveErr = services.Wrap(services.ErrValidation, "cli", "clean silent", path, err)
							break
						}
						file.MovedTo = moved
						logger.Info("moved silent file",
							logging.String("path", path),
							logging.String("destination", moved),
						)
					}
					out.Files = append(out.Files, file)
				}

				if jsonOutput {
					if err := writeJSON(cmd, out); err != nil {
						return err
					}
					return moveErr
				}
				printCleanSilent(cmd, out)
				return moveErr
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List silent files without moving them")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printCleanSilent(cmd *cobra.Command, out cleanSilentOutput) {
	w := cmd.OutOrStdout()
	if len(out.Files) == 0 {
		fmt.Fprintln(w, "No silent files found")
		return
	}
	view := newTableView("File", "Action")
	for _, f := range out.Files {
		action := "would move"
		if f.MovedTo != "" {
			action = "moved to " + f.MovedTo
		}
		view.add(filepath.Base(f.Path), action)
	}
	fmt.Fprintln(w, view.render())
	if out.DryRun {
		fmt.Fprintf(w, "%d silent files (dry run)\n", view.len())
	}
}
