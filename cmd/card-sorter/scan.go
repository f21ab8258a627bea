package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smart-life-tech/card-sorter/internal/capture"
	"github.com/smart-life-tech/card-sorter/internal/pipeline"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <frame>",
		Short: "Run a single sort cycle against one frame image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := buildLogger(cfg, false)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			app, err := buildApp(cfg, logger, capture.NewFileSource(args[0]))
			if err != nil {
				return err
			}
			defer app.Close()

			out, err := app.worker.RunCycle(cmd.Context())
			if err != nil {
				return fmt.Errorf("run cycle: %w", err)
			}
			printOutcome(cmd, out)
			return nil
		},
	}
}

func printOutcome(cmd *cobra.Command, out pipeline.Outcome) {
	w := cmd.OutOrStdout()

	card := "(unrecognized)"
	if out.Resolved {
		card = out.Card.Name
		if out.Card.SetCode != "" {
			card = fmt.Sprintf("%s (%s #%s)", out.Card.Name, out.Card.SetCode, out.Card.CollectorNumber)
		}
	}
	price := "-"
	if out.Quote.Priced {
		price = fmt.Sprintf("$%.2f (%s)", out.Quote.USD, out.Quote.Source)
	}
	flags := "-"
	if len(out.Decision.Flags) > 0 {
		parts := make([]string, len(out.Decision.Flags))
		for i, f := range out.Decision.Flags {
			parts[i] = string(f)
		}
		flags = strings.Join(parts, ", ")
	}

	fmt.Fprintf(w, "Cycle:      %s\n", out.CycleID)
	fmt.Fprintf(w, "Card:       %s\n", card)
	if out.Extraction.Text != "" {
		fmt.Fprintf(w, "Title read: %q (confidence %.1f, %s)\n",
			out.Extraction.Text, out.Extraction.Confidence, out.Extraction.Strategy)
	}
	fmt.Fprintf(w, "Price:      %s\n", price)
	fmt.Fprintf(w, "Bin:        %s\n", out.Decision.Bin)
	fmt.Fprintf(w, "Flags:      %s\n", flags)
	fmt.Fprintf(w, "Attempts:   %d\n", out.Attempts)
}
