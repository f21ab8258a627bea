package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/smart-life-tech/card-sorter/internal/routing"
)

func testSeed() Runtime {
	return Runtime{
		Mode:              string(routing.ModePrice),
		PriceThresholdUSD: 0.25,
		MinConfidence:     50,
		PrimarySource:     "scryfall",
	}
}

func TestOpenSeedsNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(path, testSeed())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file not created: %v", err)
	}

	snap := s.Snapshot()
	if snap.Mode != routing.ModePrice {
		t.Errorf("Mode = %q, want %q", snap.Mode, routing.ModePrice)
	}
	if snap.PriceThresholdUSD != 0.25 {
		t.Errorf("PriceThresholdUSD = %v, want 0.25", snap.PriceThresholdUSD)
	}
	if len(snap.Disabled) != 0 {
		t.Errorf("Disabled = %v, want empty", snap.Disabled)
	}
}

func TestOpenLoadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	body := `{
  "mode": "mixed",
  "price_threshold_usd": 1.5,
  "min_confidence": 60,
  "primary_source": "tcgplayer",
  "disabled_bins": ["red_bin"],
  "counts": {"price_bin": 7},
  "last_bin": "price_bin"
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write state: %v", err)
	}

	s, err := Open(path, testSeed())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	snap := s.Snapshot()
	if snap.Mode != routing.ModeMixed {
		t.Errorf("Mode = %q, want mixed", snap.Mode)
	}
	if snap.PriceThresholdUSD != 1.5 {
		t.Errorf("PriceThresholdUSD = %v, want 1.5", snap.PriceThresholdUSD)
	}
	if snap.PrimarySource != "tcgplayer" {
		t.Errorf("PrimarySource = %q, want tcgplayer", snap.PrimarySource)
	}
	if !snap.Disabled[routing.BinRed] {
		t.Error("red bin not disabled")
	}
	if got := s.Counts()["price_bin"]; got != 7 {
		t.Errorf("Counts[price_bin] = %d, want 7", got)
	}
	if s.LastBin() != "price_bin" {
		t.Errorf("LastBin() = %q, want price_bin", s.LastBin())
	}
}

func TestOpenRepairsUnknownMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"mode": "rarity"}`), 0o644); err != nil {
		t.Fatalf("write state: %v", err)
	}
	s, err := Open(path, testSeed())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := s.Snapshot().Mode; got != routing.ModePrice {
		t.Errorf("Mode = %q, want fallback to price", got)
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write state: %v", err)
	}
	if _, err := Open(path, testSeed()); err == nil {
		t.Fatal("Open() error = nil, want parse failure")
	}
}

func TestMutationsPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(path, testSeed())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := s.SetMode(routing.ModeColor); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	if err := s.SetPriceThreshold(3.0); err != nil {
		t.Fatalf("SetPriceThreshold() error = %v", err)
	}
	if err := s.SetPrimarySource("tcgplayer"); err != nil {
		t.Fatalf("SetPrimarySource() error = %v", err)
	}
	if err := s.SetBinDisabled(routing.BinGreen, true); err != nil {
		t.Fatalf("SetBinDisabled() error = %v", err)
	}
	if err := s.RecordCycle(routing.BinCombined); err != nil {
		t.Fatalf("RecordCycle() error = %v", err)
	}

	reopened, err := Open(path, testSeed())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	snap := reopened.Snapshot()
	if snap.Mode != routing.ModeColor {
		t.Errorf("Mode = %q, want color", snap.Mode)
	}
	if snap.PriceThresholdUSD != 3.0 {
		t.Errorf("PriceThresholdUSD = %v, want 3.0", snap.PriceThresholdUSD)
	}
	if snap.PrimarySource != "tcgplayer" {
		t.Errorf("PrimarySource = %q, want tcgplayer", snap.PrimarySource)
	}
	if !snap.Disabled[routing.BinGreen] {
		t.Error("green bin not disabled after reopen")
	}
	if got := reopened.Counts()["combined_bin"]; got != 1 {
		t.Errorf("Counts[combined_bin] = %d, want 1", got)
	}
	if reopened.LastBin() != "combined_bin" {
		t.Errorf("LastBin() = %q, want combined_bin", reopened.LastBin())
	}
}

func TestSetBinDisabledRules(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.json"), testSeed())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := s.SetBinDisabled(routing.BinCombined, true); err == nil {
		t.Error("disabling combined bin succeeded, want refusal")
	}
	if err := s.SetBinDisabled(routing.Bin("trash_bin"), true); err == nil {
		t.Error("disabling unknown bin succeeded, want refusal")
	}

	if err := s.SetBinDisabled(routing.BinRed, true); err != nil {
		t.Fatalf("SetBinDisabled(red, true) error = %v", err)
	}
	// Disabling twice must not duplicate the entry.
	if err := s.SetBinDisabled(routing.BinRed, true); err != nil {
		t.Fatalf("SetBinDisabled(red, true) again error = %v", err)
	}
	if err := s.SetBinDisabled(routing.BinRed, false); err != nil {
		t.Fatalf("SetBinDisabled(red, false) error = %v", err)
	}
	if s.Snapshot().Disabled[routing.BinRed] {
		t.Error("red bin still disabled after enable")
	}
}

func TestValidationRejections(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.json"), testSeed())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.SetMode(routing.Mode("rarity")); err == nil {
		t.Error("SetMode(rarity) succeeded, want refusal")
	}
	if err := s.SetPriceThreshold(-0.5); err == nil {
		t.Error("SetPriceThreshold(-0.5) succeeded, want refusal")
	}
	if err := s.SetPrimarySource("ebay"); err == nil {
		t.Error("SetPrimarySource(ebay) succeeded, want refusal")
	}
}

func TestResetCounts(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.json"), testSeed())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.RecordCycle(routing.BinPrice); err != nil {
		t.Fatalf("RecordCycle() error = %v", err)
	}
	if err := s.ResetCounts(); err != nil {
		t.Fatalf("ResetCounts() error = %v", err)
	}
	if got := len(s.Counts()); got != 0 {
		t.Errorf("len(Counts()) = %d, want 0", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.json"), testSeed())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	snap := s.Snapshot()
	snap.Disabled[routing.BinRed] = true
	if s.Snapshot().Disabled[routing.BinRed] {
		t.Error("mutating a snapshot leaked into the store")
	}
}
