package cardindex

import (
	"os"
	"path/filepath"
	"testing"
)

func testIndex() *Index {
	return NewIndex([]Record{
		{Name: "Lightning Bolt", SetCode: "2ed", CollectorNumber: "162", ArtID: "bolt-2ed", Colors: []string{"R"}, ColorIdentity: []string{"R"}},
		{Name: "Lightning Bolt", SetCode: "m10", CollectorNumber: "146", ArtID: "bolt-m10", Colors: []string{"R"}, ColorIdentity: []string{"R"}},
		{Name: "Llanowar Elves", SetCode: "m19", CollectorNumber: "314", ArtID: "elves-m19", Colors: []string{"G"}, ColorIdentity: []string{"G"}},
		{Name: "Sol Ring", SetCode: "c21", CollectorNumber: "263", ArtID: "solring-c21"},
	})
}

func TestResolveExact(t *testing.T) {
	r := NewResolver(testIndex(), nil)

	rec, ok := r.Resolve("Llanowar Elves", Hint{})
	if !ok {
		t.Fatalf("expected match")
	}
	if rec.ArtID != "elves-m19" {
		t.Errorf("art id = %q, want elves-m19", rec.ArtID)
	}
}

func TestResolveFolded(t *testing.T) {
	r := NewResolver(testIndex(), nil)

	tests := []struct {
		name  string
		query string
		want  string
		ok    bool
	}{
		{"lowercase", "llanowar elves", "elves-m19", true},
		{"extra whitespace", "  Sol   Ring ", "solring-c21", true},
		{"mixed case", "LIGHTNING bolt", "bolt-2ed", true},
		{"typo is not matched", "Llanowar Elfs", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := r.Resolve(tt.query, Hint{})
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && rec.ArtID != tt.want {
				t.Errorf("art id = %q, want %q", rec.ArtID, tt.want)
			}
		})
	}
}

func TestResolveReprintFirstMatchWins(t *testing.T) {
	r := NewResolver(testIndex(), nil)

	rec, ok := r.Resolve("Lightning Bolt", Hint{})
	if !ok {
		t.Fatalf("expected match")
	}
	if rec.SetCode != "2ed" {
		t.Errorf("without a hint the first printing should win, got %q", rec.SetCode)
	}
}

func TestResolveWithHint(t *testing.T) {
	r := NewResolver(testIndex(), nil)

	rec, ok := r.Resolve("Lightning Bolt", Hint{SetCode: "M10"})
	if !ok {
		t.Fatalf("expected match")
	}
	if rec.ArtID != "bolt-m10" {
		t.Errorf("hint should pick the m10 printing, got %q", rec.ArtID)
	}

	// A hint that matches nothing falls back to the first candidate.
	rec, ok = r.Resolve("Lightning Bolt", Hint{SetCode: "zzz"})
	if !ok || rec.SetCode != "2ed" {
		t.Errorf("unmatched hint should fall back to first printing, got %+v ok=%v", rec, ok)
	}
}

// prefixMatcher is a deliberately fuzzier Matcher used to prove the
// strategy is substitutable without touching the resolver.
type prefixMatcher struct{}

func (prefixMatcher) Match(idx *Index, name string) []Record {
	folded := FoldName(name)
	var out []Record
	for _, rec := range idx.records {
		have := FoldName(rec.Name)
		if len(have) >= len(folded) && have[:len(folded)] == folded {
			out = append(out, rec)
		}
	}
	return out
}

func TestResolvePluggableMatcher(t *testing.T) {
	r := NewResolver(testIndex(), prefixMatcher{})

	rec, ok := r.Resolve("Llanowar", Hint{})
	if !ok {
		t.Fatalf("prefix matcher should match")
	}
	if rec.ArtID != "elves-m19" {
		t.Errorf("art id = %q", rec.ArtID)
	}
}

func TestResolveLabel(t *testing.T) {
	r := NewResolver(testIndex(), nil)
	r.SetLabelMap([]string{"bolt-m10", "elves-m19"})

	rec, ok := r.ResolveLabel(1)
	if !ok || rec.Name != "Llanowar Elves" {
		t.Errorf("label 1 = %+v ok=%v", rec, ok)
	}
	if _, ok := r.ResolveLabel(5); ok {
		t.Errorf("out-of-range label should not resolve")
	}
	if _, ok := r.ResolveLabel(-1); ok {
		t.Errorf("negative label should not resolve")
	}
}

func TestLoadArrayAndKeyedShapes(t *testing.T) {
	dir := t.TempDir()

	arrayPath := filepath.Join(dir, "array.json")
	arrayJSON := `[{"name":"Sol Ring","set_code":"c21","collector_number":"263","art_id":"solring-c21","colors":[],"color_identity":[]}]`
	if err := os.WriteFile(arrayPath, []byte(arrayJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	idx, err := Load(arrayPath)
	if err != nil {
		t.Fatalf("load array shape: %v", err)
	}
	if idx.Len() != 1 {
		t.Errorf("len = %d, want 1", idx.Len())
	}

	keyedPath := filepath.Join(dir, "keyed.json")
	keyedJSON := `{"solring-c21":{"name":"Sol Ring","set_code":"c21","collector_number":"263"}}`
	if err := os.WriteFile(keyedPath, []byte(keyedJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	idx, err = Load(keyedPath)
	if err != nil {
		t.Fatalf("load keyed shape: %v", err)
	}
	rec, ok := idx.ByArtID("solring-c21")
	if !ok || rec.Name != "Sol Ring" {
		t.Errorf("keyed record = %+v ok=%v", rec, ok)
	}
}

func TestLoadLabelMapShapes(t *testing.T) {
	dir := t.TempDir()

	listPath := filepath.Join(dir, "labels.json")
	if err := os.WriteFile(listPath, []byte(`["a","b","c"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	labels, err := LoadLabelMap(listPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 3 || labels[2] != "c" {
		t.Errorf("labels = %v", labels)
	}

	keyedPath := filepath.Join(dir, "keyed.json")
	if err := os.WriteFile(keyedPath, []byte(`{"1":"b","0":"a"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	labels, err = LoadLabelMap(keyedPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 2 || labels[0] != "a" || labels[1] != "b" {
		t.Errorf("labels = %v", labels)
	}
}
