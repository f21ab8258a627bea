package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smart-life-tech/card-sorter/internal/actuate"
	"github.com/smart-life-tech/card-sorter/internal/config"
	"github.com/smart-life-tech/card-sorter/internal/routing"
	"github.com/smart-life-tech/card-sorter/internal/state"
	"github.com/smart-life-tech/card-sorter/internal/status"
)

func newBinsCommand(ctx *commandContext) *cobra.Command {
	binsCmd := &cobra.Command{
		Use:   "bins",
		Short: "Inspect and control the physical bins",
	}

	binsCmd.AddCommand(newBinsListCommand(ctx))
	binsCmd.AddCommand(newBinsEnableCommand(ctx, true))
	binsCmd.AddCommand(newBinsEnableCommand(ctx, false))
	binsCmd.AddCommand(newBinsTestCommand(ctx))

	return binsCmd
}

func openState(ctx *commandContext) (*config.Config, *state.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	st, err := state.Open(cfg.Paths.StateFile, stateSeed(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("open state: %w", err)
	}
	return cfg, st, nil
}

func parseBin(arg string) (routing.Bin, error) {
	bin := routing.Bin(strings.TrimSpace(strings.ToLower(arg)))
	if !bin.Valid() {
		names := make([]string, 0, len(routing.Bins()))
		for _, b := range routing.Bins() {
			names = append(names, string(b))
		}
		return "", fmt.Errorf("unknown bin %q (bins: %s)", arg, strings.Join(names, ", "))
	}
	return bin, nil
}

func newBinsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show bin status and sorted-card counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openState(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status.RenderBins(st.Snapshot(), st.Counts(), st.LastBin()))
			return nil
		},
	}
}

func newBinsEnableCommand(ctx *commandContext, enable bool) *cobra.Command {
	use, short := "enable <bin>", "Return a bin to the routing rotation"
	if !enable {
		use, short = "disable <bin>", "Take a bin out of the routing rotation"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bin, err := parseBin(args[0])
			if err != nil {
				return err
			}
			_, st, err := openState(ctx)
			if err != nil {
				return err
			}
			if err := st.SetBinDisabled(bin, !enable); err != nil {
				return err
			}
			verb := "enabled"
			if !enable {
				verb = "disabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bin %s %s\n", bin, verb)
			return nil
		},
	}
}

func newBinsTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test <bin>",
		Short: "Cycle a bin gate once to verify the hardware",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bin, err := parseBin(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cfg.Actuator.Enabled {
				return errors.New("actuator is disabled in the configuration")
			}
			serial, err := actuate.OpenSerial(cfg.Actuator.Device,
				time.Duration(cfg.Actuator.DwellMS)*time.Millisecond)
			if err != nil {
				return fmt.Errorf("open actuator: %w", err)
			}
			defer serial.Close()

			if err := serial.Cycle(cmd.Context(), bin); err != nil {
				return fmt.Errorf("cycle bin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bin %s cycled\n", bin)
			return nil
		},
	}
}
