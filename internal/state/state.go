package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/smart-life-tech/card-sorter/internal/routing"
)

// Runtime is the persisted shape of the state file.
type Runtime struct {
	Mode              string           `json:"mode"`
	PriceThresholdUSD float64          `json:"price_threshold_usd"`
	MinConfidence     float64          `json:"min_confidence"`
	PrimarySource     string           `json:"primary_source"`
	DisabledBins      []string         `json:"disabled_bins"`
	Counts            map[string]int64 `json:"counts"`
	LastBin           string           `json:"last_bin,omitempty"`
}

// Snapshot is a consistent copy of the settings a single sort cycle
// acts on.
type Snapshot struct {
	Mode              routing.Mode
	PriceThresholdUSD float64
	MinConfidence     float64
	PrimarySource     string
	Disabled          map[routing.Bin]bool
}

// Store owns the state file. All mutations persist before returning.
type Store struct {
	path string

	mu sync.Mutex
	rt Runtime
}

// Open loads the state file at path, or seeds a new one when the file
// does not exist. The seed is persisted immediately so a fresh
// deployment starts from a concrete file.
func Open(path string, seed Runtime) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &s.rt); err != nil {
			return nil, fmt.Errorf("parse state file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		s.rt = seed
		if err := s.save(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("read state file %s: %w", path, err)
	}

	if s.rt.Counts == nil {
		s.rt.Counts = make(map[string]int64)
	}
	if !routing.Mode(s.rt.Mode).Valid() {
		s.rt.Mode = string(routing.ModePrice)
	}
	return s, nil
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	disabled := make(map[routing.Bin]bool, len(s.rt.DisabledBins))
	for _, b := range s.rt.DisabledBins {
		disabled[routing.Bin(b)] = true
	}
	return Snapshot{
		Mode:              routing.Mode(s.rt.Mode),
		PriceThresholdUSD: s.rt.PriceThresholdUSD,
		MinConfidence:     s.rt.MinConfidence,
		PrimarySource:     s.rt.PrimarySource,
		Disabled:          disabled,
	}
}

// SetMode changes the sorting mode.
func (s *Store) SetMode(mode routing.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown sorting mode %q", mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rt.Mode = string(mode)
	return s.save()
}

// SetPriceThreshold changes the price routing threshold.
func (s *Store) SetPriceThreshold(usd float64) error {
	if usd < 0 {
		return errors.New("price threshold must not be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rt.PriceThresholdUSD = usd
	return s.save()
}

// SetPrimarySource changes the preferred price source.
func (s *Store) SetPrimarySource(source string) error {
	switch source {
	case "scryfall", "tcgplayer":
	default:
		return fmt.Errorf("unknown price source %q", source)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rt.PrimarySource = source
	return s.save()
}

// SetBinDisabled enables or disables a bin. The combined bin is the
// fallback destination and cannot be disabled.
func (s *Store) SetBinDisabled(bin routing.Bin, disabled bool) error {
	if !bin.Valid() {
		return fmt.Errorf("unknown bin %q", bin)
	}
	if bin == routing.BinCombined && disabled {
		return errors.New("the combined bin cannot be disabled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.rt.DisabledBins[:0]
	for _, b := range s.rt.DisabledBins {
		if b != string(bin) {
			out = append(out, b)
		}
	}
	if disabled {
		out = append(out, string(bin))
	}
	s.rt.DisabledBins = out
	return s.save()
}

// RecordCycle bumps the count for bin and remembers it as the last
// actuated destination.
func (s *Store) RecordCycle(bin routing.Bin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rt.Counts[string(bin)]++
	s.rt.LastBin = string(bin)
	return s.save()
}

// Counts returns a copy of the per-bin sort counts.
func (s *Store) Counts() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.rt.Counts))
	for k, v := range s.rt.Counts {
		out[k] = v
	}
	return out
}

// LastBin returns the destination of the most recent cycle, or empty.
func (s *Store) LastBin() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rt.LastBin
}

// ResetCounts zeroes the per-bin counts.
func (s *Store) ResetCounts() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rt.Counts = make(map[string]int64)
	return s.save()
}

// save writes the state file atomically. Callers hold s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(&s.rt, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("stage state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
