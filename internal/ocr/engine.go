package ocr

import "image"

// Preset bundles the recognition settings for a single OCR pass.
type Preset struct {
	// ID names the preset in strategy identifiers and logs.
	ID string

	// SingleLine switches page segmentation from a uniform text block
	// to a single line. Card titles are one line, but the block mode
	// tolerates slight skew better.
	SingleLine bool

	// Whitelist restricts recognition to the given characters when
	// non-empty.
	Whitelist string

	// LegacyEngine selects the pre-LSTM recognition engine, which
	// behaves differently on stylized typefaces.
	LegacyEngine bool
}

// Result is the outcome of one recognition pass.
type Result struct {
	// Text is the raw recognized text, whitespace and all.
	Text string

	// Confidence is the mean word confidence from 0 to 100. Zero when
	// no words were recognized.
	Confidence float64

	// Words is the number of recognized words contributing to the
	// confidence mean.
	Words int
}

// Engine performs a single OCR pass over an image.
type Engine interface {
	Recognize(img image.Image, preset Preset) (Result, error)
}
