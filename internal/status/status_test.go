package status

import (
	"strings"
	"testing"
	"time"

	"github.com/smart-life-tech/card-sorter/internal/routing"
	"github.com/smart-life-tech/card-sorter/internal/sortlog"
	"github.com/smart-life-tech/card-sorter/internal/state"
)

func TestRenderSettings(t *testing.T) {
	out := RenderSettings(state.Snapshot{
		Mode:              routing.ModeMixed,
		PriceThresholdUSD: 1.5,
		MinConfidence:     60,
		PrimarySource:     "scryfall",
	})
	for _, want := range []string{"mixed", "$1.50", "60", "scryfall"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderSettings() missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderBins(t *testing.T) {
	snap := state.Snapshot{
		Disabled: map[routing.Bin]bool{routing.BinRed: true},
	}
	counts := map[string]int64{"price_bin": 12, "combined_bin": 3}

	out := RenderBins(snap, counts, "price_bin")

	for _, bin := range routing.Bins() {
		if !strings.Contains(out, string(bin)) {
			t.Errorf("RenderBins() missing bin %q", bin)
		}
	}
	if !strings.Contains(out, "disabled") {
		t.Error("RenderBins() does not mark the disabled bin")
	}
	if !strings.Contains(out, "12") {
		t.Error("RenderBins() missing the price bin count")
	}
}

func TestRenderRecent(t *testing.T) {
	records := []sortlog.Record{
		{
			Timestamp: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
			Name:      "Lightning Bolt",
			SetCode:   "lea",
			PriceUSD:  2.5,
			Priced:    true,
			Bin:       "price_bin",
		},
		{
			Timestamp: time.Date(2026, 3, 1, 9, 31, 0, 0, time.UTC),
			Bin:       "combined_bin",
			Flags:     []string{"unrecognized"},
		},
	}

	out := RenderRecent(records)
	for _, want := range []string{"Lightning Bolt", "$2.50", "(unrecognized)", "unrecognized"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderRecent() missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderRecentEmpty(t *testing.T) {
	if out := RenderRecent(nil); !strings.Contains(out, "no cycles") {
		t.Errorf("RenderRecent(nil) = %q, want placeholder text", out)
	}
}
