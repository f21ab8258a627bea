// Package status renders the sorter's runtime state for the terminal.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/smart-life-tech/card-sorter/internal/routing"
	"github.com/smart-life-tech/card-sorter/internal/sortlog"
	"github.com/smart-life-tech/card-sorter/internal/state"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// RenderSettings formats the active sorting policy.
func RenderSettings(snap state.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "mode: %s\n", snap.Mode)
	fmt.Fprintf(&b, "price threshold: $%.2f (inclusive)\n", snap.PriceThresholdUSD)
	fmt.Fprintf(&b, "min confidence: %.0f\n", snap.MinConfidence)
	fmt.Fprintf(&b, "primary price source: %s\n", snap.PrimarySource)
	return b.String()
}

// RenderBins formats the per-bin table: enablement, lifetime counts,
// and the last actuated destination.
func RenderBins(snap state.Snapshot, counts map[string]int64, lastBin string) string {
	rows := make([][]string, 0, len(routing.Bins()))
	for _, bin := range routing.Bins() {
		enabled := "enabled"
		if snap.Disabled[bin] {
			enabled = "disabled"
		}
		last := ""
		if string(bin) == lastBin {
			last = "*"
		}
		rows = append(rows, []string{
			string(bin),
			enabled,
			fmt.Sprintf("%d", counts[string(bin)]),
			last,
		})
	}
	return renderTable(
		[]string{"bin", "state", "sorted", "last"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

// RenderRecent formats the most recent sort cycles, newest first.
func RenderRecent(records []sortlog.Record) string {
	if len(records) == 0 {
		return "no cycles logged yet"
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		name := rec.Name
		if name == "" {
			name = "(unrecognized)"
		}
		price := "-"
		if rec.Priced {
			price = fmt.Sprintf("$%.2f", rec.PriceUSD)
		}
		rows = append(rows, []string{
			rec.Timestamp.Local().Format(time.DateTime),
			name,
			rec.SetCode,
			price,
			rec.Bin,
			strings.Join(rec.Flags, ","),
		})
	}
	return renderTable(
		[]string{"time", "name", "set", "price", "bin", "flags"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}
