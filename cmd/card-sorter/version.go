package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smart-life-tech/card-sorter/internal/ocr"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "card-sorter %s (commit %s)\n", Version, GitCommit)
			fmt.Fprintf(out, "  tesseract: %s\n", ocr.Version())
			return nil
		},
	}
}
