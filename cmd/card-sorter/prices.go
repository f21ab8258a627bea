package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smart-life-tech/card-sorter/internal/pricing"
)

func newPricesCommand(ctx *commandContext) *cobra.Command {
	var setCode string
	var number string

	cmd := &cobra.Command{
		Use:   "prices <card name>",
		Short: "Quote a card against the configured price sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openState(ctx)
			if err != nil {
				return err
			}

			logger, err := buildLogger(cfg, false)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			svc := buildPricer(cfg, logger)
			svc.Reorder(st.Snapshot().PrimarySource)

			name := args[0]
			for _, extra := range args[1:] {
				name += " " + extra
			}
			quote := svc.Price(cmd.Context(), pricing.Lookup{
				Name:            name,
				SetCode:         setCode,
				CollectorNumber: number,
			})

			out := cmd.OutOrStdout()
			if quote.Priced {
				fmt.Fprintf(out, "%s: $%.2f (%s)\n", name, quote.USD, quote.Source)
			} else {
				fmt.Fprintf(out, "%s: no price (last source consulted: %s)\n", name, quote.Source)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&setCode, "set", "", "Set code of the printing")
	cmd.Flags().StringVar(&number, "number", "", "Collector number of the printing")
	return cmd
}
