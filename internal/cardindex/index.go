package cardindex

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Record is one printing of a card as it appears in the static index.
//
// Colors and ColorIdentity are sets of single-letter color symbols
// (W, U, B, R, G). An empty set means colorless.
type Record struct {
	Name            string   `json:"name"`
	SetCode         string   `json:"set_code"`
	CollectorNumber string   `json:"collector_number"`
	ArtID           string   `json:"art_id"`
	Colors          []string `json:"colors"`
	ColorIdentity   []string `json:"color_identity"`
}

// Index is the immutable card catalog. Build it once with Load or
// NewIndex and share it freely; all lookups are read-only.
type Index struct {
	records []Record
	byName  map[string][]int
	byFold  map[string][]int
	byArt   map[string]int
}

// NewIndex builds an index over records, preserving their order.
// Order matters: it is the reprint tie-break.
func NewIndex(records []Record) *Index {
	idx := &Index{
		records: records,
		byName:  make(map[string][]int, len(records)),
		byFold:  make(map[string][]int, len(records)),
		byArt:   make(map[string]int, len(records)),
	}
	for i, r := range records {
		idx.byName[r.Name] = append(idx.byName[r.Name], i)
		idx.byFold[FoldName(r.Name)] = append(idx.byFold[FoldName(r.Name)], i)
		if r.ArtID != "" {
			if _, dup := idx.byArt[r.ArtID]; !dup {
				idx.byArt[r.ArtID] = i
			}
		}
	}
	return idx
}

// Load reads a card index from a JSON file.
//
// Two shapes are accepted: a plain array of records, or an object
// keyed by art ID (the shape the training pipeline exports). Object
// keys fill in a record's ArtID when the record itself omits it.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read card index: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err == nil {
		return NewIndex(records), nil
	}

	var keyed map[string]Record
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("parse card index %s: %w", path, err)
	}
	records = make([]Record, 0, len(keyed))
	for artID, r := range keyed {
		if r.ArtID == "" {
			r.ArtID = artID
		}
		records = append(records, r)
	}
	// Map iteration order is random; keep the tie-break deterministic.
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.SetCode != b.SetCode {
			return a.SetCode < b.SetCode
		}
		return a.CollectorNumber < b.CollectorNumber
	})
	return NewIndex(records), nil
}

// Len returns the number of records in the index.
func (idx *Index) Len() int { return len(idx.records) }

// ByArtID returns the record for an art ID, if present.
func (idx *Index) ByArtID(artID string) (Record, bool) {
	i, ok := idx.byArt[artID]
	if !ok {
		return Record{}, false
	}
	return idx.records[i], true
}

// exact returns all records whose name matches name byte-for-byte.
func (idx *Index) exact(name string) []Record {
	return idx.pick(idx.byName[name])
}

// folded returns all records matching name after case and whitespace
// normalization.
func (idx *Index) folded(name string) []Record {
	return idx.pick(idx.byFold[FoldName(name)])
}

func (idx *Index) pick(positions []int) []Record {
	if len(positions) == 0 {
		return nil
	}
	out := make([]Record, len(positions))
	for i, p := range positions {
		out[i] = idx.records[p]
	}
	return out
}

// FoldName normalizes a card name for loose comparison: lowercase with
// runs of whitespace collapsed to single spaces.
func FoldName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
