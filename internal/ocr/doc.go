// Package ocr recognizes printed text in card images using Tesseract.
//
// The package exposes a small Engine interface so callers can swap the
// real Tesseract backend for a scripted one in tests. Recognition runs
// under a Preset, which bundles the Tesseract knobs a caller may want to
// vary between passes: page segmentation, character whitelist, and the
// legacy recognition engine. Results carry a mean word confidence on a
// 0 to 100 scale alongside the recognized text.
package ocr
