package extract

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"unicode"

	"github.com/anthonynsimon/bild/effect"

	"github.com/smart-life-tech/card-sorter/internal/logging"
	"github.com/smart-life-tech/card-sorter/internal/ocr"
)

// ErrNoText reports that no strategy produced a valid title candidate.
var ErrNoText = errors.New("no readable title text")

// Preprocessing variant names.
const (
	VariantOtsu     = "otsu"
	VariantAdaptive = "adaptive"
	VariantGray     = "gray"
)

// titleWhitelist restricts recognition to the characters that occur in
// card titles.
const titleWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 ',-"

// Strategy pairs one preprocessing variant with one recognition preset.
type Strategy struct {
	Variant string
	Preset  ocr.Preset
}

// ID names the strategy as variant/preset, e.g. "otsu/line".
func (s Strategy) ID() string { return s.Variant + "/" + s.Preset.ID }

// DefaultStrategies returns the full recognition grid: every
// preprocessing variant crossed with every recognition preset.
func DefaultStrategies() []Strategy {
	presets := []ocr.Preset{
		{ID: "block", Whitelist: titleWhitelist},
		{ID: "line", SingleLine: true, Whitelist: titleWhitelist},
		{ID: "legacy", Whitelist: titleWhitelist, LegacyEngine: true},
	}
	variants := []string{VariantOtsu, VariantAdaptive, VariantGray}

	out := make([]Strategy, 0, len(variants)*len(presets))
	for _, v := range variants {
		for _, p := range presets {
			out = append(out, Strategy{Variant: v, Preset: p})
		}
	}
	return out
}

// Result is the winning title candidate.
type Result struct {
	// Text is the normalized title text.
	Text string

	// Confidence is the winning pass's mean word confidence, 0 to 100.
	Confidence float64

	// Strategy identifies the winning variant/preset pair.
	Strategy string
}

// Extractor runs the strategy grid over the title band of a card image.
type Extractor struct {
	engine     ocr.Engine
	region     Region
	strategies []Strategy
	logger     *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRegion overrides the title band.
func WithRegion(r Region) Option {
	return func(e *Extractor) { e.region = r }
}

// WithStrategies replaces the strategy grid.
func WithStrategies(strategies []Strategy) Option {
	return func(e *Extractor) { e.strategies = strategies }
}

// WithLogger attaches a logger for per-pass diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// New builds an Extractor over the given recognition engine, using the
// default title band and strategy grid unless options override them.
func New(engine ocr.Engine, opts ...Option) *Extractor {
	e := &Extractor{
		engine:     engine,
		region:     DefaultTitleRegion(),
		strategies: DefaultStrategies(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs every strategy over img's title band and returns the
// valid candidate with the highest confidence. It returns ErrNoText
// when no strategy yields a valid title.
func (e *Extractor) Extract(img image.Image) (Result, error) {
	if e.engine == nil {
		return Result{}, ErrNoText
	}

	variants := renderVariants(img, e.region)

	var best Result
	found := false
	recognized := 0
	var lastErr error

	for _, s := range e.strategies {
		variant, ok := variants[s.Variant]
		if !ok {
			return Result{}, fmt.Errorf("strategy %s references unknown variant %q", s.ID(), s.Variant)
		}

		res, err := e.engine.Recognize(variant, s.Preset)
		if err != nil {
			lastErr = err
			e.logger.Debug("recognition pass failed", "strategy", s.ID(), "error", err)
			continue
		}
		recognized++

		text := Normalize(res.Text)
		valid := ValidTitle(text)
		e.logger.Debug("recognition pass",
			"strategy", s.ID(),
			"text", text,
			"confidence", res.Confidence,
			"valid", valid)
		if !valid {
			continue
		}
		if !found || res.Confidence > best.Confidence {
			best = Result{Text: text, Confidence: res.Confidence, Strategy: s.ID()}
			found = true
		}
	}

	if !found {
		if recognized == 0 && lastErr != nil {
			return Result{}, fmt.Errorf("every recognition pass failed: %w", lastErr)
		}
		return Result{}, ErrNoText
	}
	return best, nil
}

// renderVariants preprocesses the title band once per variant. All
// variants share the denoise and contrast normalization work.
func renderVariants(img image.Image, region Region) map[string]image.Image {
	base := grayOf(effect.Median(crop(img, region), 3))
	enhanced := enhanceContrast(base)

	radius := max(enhanced.Bounds().Dx(), enhanced.Bounds().Dy()) / 8
	if radius < 4 {
		radius = 4
	}

	return map[string]image.Image{
		VariantOtsu:     upscale(closeGaps(binarize(enhanced, otsuThreshold(enhanced)))),
		VariantAdaptive: upscale(closeGaps(adaptiveBinarize(enhanced, radius, 10))),
		VariantGray:     upscale(enhanced),
	}
}

// edgeCutset is the punctuation the engine tends to hallucinate at the
// ends of a title band read; some of it is whitelisted for interior use
// (apostrophes, hyphens) and must still be stripped from the edges.
const edgeCutset = "-—_ :'\""

// Normalize collapses all whitespace runs to single spaces and strips
// stray punctuation from both ends.
func Normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, edgeCutset)
}

// ValidTitle reports whether text plausibly reads as a card title: at
// least two characters, with no more than 30% falling outside letters,
// digits, spaces, apostrophes, and hyphens.
func ValidTitle(text string) bool {
	runes := []rune(text)
	if len(runes) < 2 {
		return false
	}
	specials := 0
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
		case r == ' ' || r == '\'' || r == '-':
		default:
			specials++
		}
	}
	return float64(specials) <= 0.3*float64(len(runes))
}
