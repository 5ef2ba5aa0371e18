package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"multitrack/internal/preflight"
	"multitrack/internal/services"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, history database and run lock",
		Long: "preflight verifies the configured state, log, review and temp directories,\n" +
			"the history database and the run lock. With --raw, --stem and --mix it also\n" +
			"checks that the session can be read.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			if flags.rawDir != "" || flags.stemDir != "" || flags.mixPath != "" {
				results = append(results, preflight.SessionChecks(flags.rawDir, flags.stemDir, flags.mixPath)...)
			}

			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, r := range results {
					fmt.Fprintln(out, renderStatusLine(r.Name, passFail(r.Passed), r.Detail, colorize))
				}
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "cli", "preflight", fmt.Sprintf("%d checks failed", len(failed)), nil)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.rawDir, "raw", "", "Raw folder to check")
	cmd.Flags().StringVar(&flags.stemDir, "stem", "", "Stem folder to check")
	cmd.Flags().StringVar(&flags.mixPath, "mix", "", "Mix file to check")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
