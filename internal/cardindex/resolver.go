package cardindex

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Hint narrows reprint selection when an upstream stage knows more than
// the card name. Empty fields are ignored.
type Hint struct {
	SetCode         string
	CollectorNumber string
}

// Matcher maps a candidate name to index records. Implementations may
// be stricter or fuzzier than the default; the resolver only requires
// that a returned record actually came from the index.
type Matcher interface {
	// Match returns the candidate records for name, best first.
	// An empty slice means no match.
	Match(idx *Index, name string) []Record
}

// ExactThenFolded is the default matcher: byte-exact name lookup first,
// then case-insensitive whitespace-normalized lookup. It never returns
// a record whose folded name differs from the query's.
type ExactThenFolded struct{}

// Match implements Matcher.
func (ExactThenFolded) Match(idx *Index, name string) []Record {
	if rs := idx.exact(name); len(rs) > 0 {
		return rs
	}
	return idx.folded(name)
}

// Resolver turns extracted names (or classifier labels) into card
// identities.
type Resolver struct {
	index   *Index
	matcher Matcher
	labels  []string
}

// NewResolver builds a resolver over idx. A nil matcher selects
// ExactThenFolded.
func NewResolver(idx *Index, matcher Matcher) *Resolver {
	if matcher == nil {
		matcher = ExactThenFolded{}
	}
	return &Resolver{index: idx, matcher: matcher}
}

// SetLabelMap installs the classifier label list used by ResolveLabel.
// Entry i maps classifier output index i to an art ID.
func (r *Resolver) SetLabelMap(labels []string) { r.labels = labels }

// Resolve finds the best index record for an extracted name.
//
// The second return is false when the name is not in the index; the
// caller routes such cycles as unrecognized rather than guessing.
func (r *Resolver) Resolve(name string, hint Hint) (Record, bool) {
	name = strings.TrimSpace(name)
	if name == "" || r.index == nil {
		return Record{}, false
	}

	candidates := r.matcher.Match(r.index, name)
	if len(candidates) == 0 {
		return Record{}, false
	}
	if rec, ok := applyHint(candidates, hint); ok {
		return rec, true
	}
	// Reprints without a hint: first match in index order wins.
	return candidates[0], true
}

// ResolveLabel maps a classifier output index to a record through the
// label map. It exists for deployments that front the extractor with an
// image classifier instead of OCR.
func (r *Resolver) ResolveLabel(label int) (Record, bool) {
	if label < 0 || label >= len(r.labels) || r.index == nil {
		return Record{}, false
	}
	return r.index.ByArtID(r.labels[label])
}

// applyHint selects the candidate matching a set/collector hint.
func applyHint(candidates []Record, hint Hint) (Record, bool) {
	if hint.SetCode == "" && hint.CollectorNumber == "" {
		return Record{}, false
	}
	for _, c := range candidates {
		if hint.SetCode != "" && !strings.EqualFold(c.SetCode, hint.SetCode) {
			continue
		}
		if hint.CollectorNumber != "" && c.CollectorNumber != hint.CollectorNumber {
			continue
		}
		return c, true
	}
	return Record{}, false
}

// LoadLabelMap reads a classifier label map from JSON: either an array
// of art IDs or an object of numeric-index keys to art IDs.
func LoadLabelMap(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label map: %w", err)
	}

	var labels []string
	if err := json.Unmarshal(data, &labels); err == nil {
		return labels, nil
	}

	var keyed map[string]string
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("parse label map %s: %w", path, err)
	}
	labels = make([]string, len(keyed))
	for k, v := range keyed {
		var i int
		if _, err := fmt.Sscanf(k, "%d", &i); err != nil || i < 0 || i >= len(keyed) {
			return nil, fmt.Errorf("label map %s: bad index key %q", path, k)
		}
		labels[i] = v
	}
	return labels, nil
}
