package ocr

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract is an Engine backed by the gosseract bindings.
//
// Each Recognize call builds a fresh client so presets never leak
// settings into one another. The zero value uses English and the
// system tessdata; set Language or TessdataDir to override.
type Tesseract struct {
	// Language is the Tesseract language code. Defaults to "eng".
	Language string

	// TessdataDir overrides the training data directory when non-empty.
	TessdataDir string
}

// Recognize runs one OCR pass over img under the given preset.
func (t *Tesseract) Recognize(img image.Image, preset Preset) (Result, error) {
	tmpPath, err := saveImageToTemp(img, "ocr-pass")
	if err != nil {
		return Result{}, fmt.Errorf("failed to stage image for OCR: %w", err)
	}
	defer os.Remove(tmpPath)

	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataDir != "" {
		if err := client.SetTessdataPrefix(t.TessdataDir); err != nil {
			return Result{}, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	language := t.Language
	if language == "" {
		language = "eng"
	}
	if err := client.SetLanguage(language); err != nil {
		return Result{}, fmt.Errorf("failed to set language: %w", err)
	}

	mode := gosseract.PSM_SINGLE_BLOCK
	if preset.SingleLine {
		mode = gosseract.PSM_SINGLE_LINE
	}
	if err := client.SetPageSegMode(mode); err != nil {
		return Result{}, fmt.Errorf("failed to set page segmentation: %w", err)
	}

	if preset.Whitelist != "" {
		if err := client.SetWhitelist(preset.Whitelist); err != nil {
			return Result{}, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}

	if preset.LegacyEngine {
		if err := client.SetVariable(gosseract.SettableVariable("tessedit_ocr_engine_mode"), "0"); err != nil {
			return Result{}, fmt.Errorf("failed to select legacy engine: %w", err)
		}
	}

	if err := client.SetImage(tmpPath); err != nil {
		return Result{}, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("OCR failed: %w", err)
	}

	// Word boxes drive the confidence mean. A box failure is not fatal;
	// the pass just scores zero and loses the ranking.
	var confidence float64
	words := 0
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil {
		var sum float64
		for _, box := range boxes {
			sum += float64(box.Confidence)
			words++
		}
		if words > 0 {
			confidence = sum / float64(words)
		}
	}

	return Result{Text: text, Confidence: confidence, Words: words}, nil
}

// Version returns the linked Tesseract version string.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

// saveImageToTemp writes img to a temporary PNG and returns its path.
// The caller removes the file.
func saveImageToTemp(img image.Image, prefix string) (string, error) {
	f, err := os.CreateTemp("", prefix+"-*.png")
	if err != nil {
		return "", err
	}
	tmpPath := f.Name()

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	return filepath.Clean(tmpPath), nil
}
