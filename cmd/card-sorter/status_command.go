package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smart-life-tech/card-sorter/internal/sortlog"
	"github.com/smart-life-tech/card-sorter/internal/status"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current settings, bin counts, and recent cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openState(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			snap := st.Snapshot()

			fmt.Fprintln(out, renderSectionHeader("Settings", colorize))
			fmt.Fprint(out, status.RenderSettings(snap))
			fmt.Fprintln(out)

			fmt.Fprintln(out, renderSectionHeader("Bins", colorize))
			fmt.Fprintln(out, status.RenderBins(snap, st.Counts(), st.LastBin()))

			logStore, err := sortlog.Open(cfg.Paths.SortLogPath)
			if err != nil {
				return fmt.Errorf("open sort log: %w", err)
			}
			defer logStore.Close()

			records, err := logStore.Recent(cmd.Context(), recent)
			if err != nil {
				return fmt.Errorf("read sort log: %w", err)
			}
			if len(records) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderSectionHeader("Recent cycles", colorize))
				fmt.Fprintln(out, status.RenderRecent(records))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 10, "Number of recent cycles to show")
	return cmd
}
