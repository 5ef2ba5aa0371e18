package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"multitrack/internal/media/probe"
	"multitrack/internal/services"
	"multitrack/internal/validation"
)

type probeRow struct {
	Path       string       `json:"path"`
	Stats      *probe.Stats `json:"stats,omitempty"`
	Conformant bool         `json:"conformant"`
	Silent     bool         `json:"silent"`
	Error      string       `json:"error,omitempty"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var kind string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "probe FILE...",
		Short: "Show WAV stats, conformance and silence for files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			settings := validation.NewSettings(cfg)
			fileKind := probe.Kind(kind)
			if _, err := settings.Format.Channels(fileKind); err != nil {
				return err
			}

			rows := make([]probeRow, 0, len(args))
			unreadable := 0
			for _, path := range args {
				row := probeRow{Path: path}
				stats, err := probe.Probe(path)
				if err == nil {
					row.Stats = &stats
					row.Conformant, err = settings.Format.Conforms(stats, fileKind)
				}
				if err == nil {
					row.Silent, err = probe.IsSilent(path, settings.SilenceThreshold, settings.SilenceFrameSeconds)
				}
				if err != nil {
					row.Stats = nil
					row.Error = err.Error()
					unreadable++
				}
				rows = append(rows, row)
			}

			if jsonOutput {
				if err := writeJSON(cmd, rows); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderProbeTable(rows))
			}
			if unreadable > 0 {
				return services.Wrap(services.ErrUnreadableFile, "cli", "probe", fmt.Sprintf("%d of %d files unreadable", unreadable, len(rows)), nil)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(probe.KindStem), "File role for the conformance rule (mix, stem, raw)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderProbeTable(rows []probeRow) string {
	view := newTableView("File", "Channels", "Bit depth", "Rate", "Duration", "Conformant", "Silent").alignRight(1, 2, 3, 4)
	for _, r := range rows {
		name := filepath.Base(r.Path)
		if r.Stats == nil {
			view.add(name, "-", "-", "-", "-", "unreadable", "-")
			continue
		}
		view.add(
			name,
			strconv.Itoa(r.Stats.Channels),
			strconv.Itoa(r.Stats.BitDepth),
			strconv.Itoa(r.Stats.SampleRate),
			fmt.Sprintf("%.2fs", r.Stats.Duration),
			yesNo(r.Conformant),
			yesNo(r.Silent),
		)
	}
	return view.render()
}
