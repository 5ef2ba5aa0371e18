package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"multitrack/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded validation runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func openHistory(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if runs == nil {
					runs = []*history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			view := newTableView("ID", "Started", "Command", "Session", "Status", "Problems").alignRight(5)
			for _, run := range runs {
				view.add(
					shortID(run.ID),
					run.StartedAt.Local().Format(time.DateTime),
					run.Command,
					run.Session,
					string(run.Status),
					strconv.Itoa(run.ProblemCount),
				)
			}
			fmt.Fprintln(out, view.render())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one run with its results and problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, run)
			}
			printRun(cmd.OutOrStdout(), run, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func() error {
				store, err := openHistory(ctx)
				if err != nil {
					return err
				}
				defer store.Close()

				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs\n", removed)
				return nil
			})
		},
	}
}

func printRun(out io.Writer, run *history.Run, colorize bool) {
	fmt.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintln(out, renderStatusLine("Command", statusInfo, run.Command, colorize))
	fmt.Fprintln(out, renderStatusLine("Session", statusInfo, run.Session, colorize))
	fmt.Fprintln(out, renderStatusLine("Mix", statusInfo, run.MixPath, colorize))
	fmt.Fprintln(out, renderStatusLine("Started", statusInfo, run.StartedAt.Local().Format(time.DateTime), colorize))
	if d := run.Duration(); d > 0 {
		fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, d.Round(time.Millisecond).String(), colorize))
	}

	switch run.Status {
	case history.StatusPassed:
		fmt.Fprintln(out, renderStatusLine("Status", statusOK, "no problems found", colorize))
	case history.StatusProblems:
		fmt.Fprintln(out, renderStatusLine("Status", statusError, fmt.Sprintf("%d problems", run.ProblemCount), colorize))
	case history.StatusFailed:
		fmt.Fprintln(out, renderStatusLine("Status", statusError, run.Error, colorize))
	default:
		fmt.Fprintln(out, renderStatusLine("Status", statusWarn, string(run.Status), colorize))
	}

	if len(run.Results) > 0 {
		view := newTableView("Entity", "Kind", "Check", "Result")
		for _, r := range run.Results {
			result := "fail"
			if r.Passed {
				result = "pass"
			}
			view.add(r.Entity, r.Kind, r.Check, result)
		}
		fmt.Fprintln(out, view.render())
	}
	for _, p := range run.Problems {
		fmt.Fprintf(out, "  %s\n", p)
	}
}
