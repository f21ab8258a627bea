package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smart-life-tech/card-sorter/internal/routing"
)

func newSetCommand(ctx *commandContext) *cobra.Command {
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change the persisted runtime settings",
	}

	setCmd.AddCommand(&cobra.Command{
		Use:   "mode <price|color|mixed>",
		Short: "Change the sorting mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openState(ctx)
			if err != nil {
				return err
			}
			mode := routing.Mode(strings.ToLower(strings.TrimSpace(args[0])))
			if err := st.SetMode(mode); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sorting mode set to %s\n", mode)
			return nil
		},
	})

	setCmd.AddCommand(&cobra.Command{
		Use:   "threshold <usd>",
		Short: "Change the price threshold for the price bin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usd, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("parse threshold: %w", err)
			}
			_, st, err := openState(ctx)
			if err != nil {
				return err
			}
			if err := st.SetPriceThreshold(usd); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Price threshold set to $%.2f\n", usd)
			return nil
		},
	})

	setCmd.AddCommand(&cobra.Command{
		Use:   "source <scryfall|tcgplayer>",
		Short: "Change the preferred price source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openState(ctx)
			if err != nil {
				return err
			}
			source := strings.ToLower(strings.TrimSpace(args[0]))
			if err := st.SetPrimarySource(source); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Preferred price source set to %s\n", source)
			return nil
		},
	})

	return setCmd
}
