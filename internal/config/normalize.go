package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smart-life-tech/card-sorter/internal/extract"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSorting()
	c.normalizeCapture()
	if err := c.normalizeOCR(); err != nil {
		return err
	}
	c.normalizePricing()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name string
		p    *string
	}{
		{"paths.index_path", &c.Paths.IndexPath},
		{"paths.label_map_path", &c.Paths.LabelMapPath},
		{"paths.state_file", &c.Paths.StateFile},
		{"paths.sort_log_path", &c.Paths.SortLogPath},
		{"paths.lock_file", &c.Paths.LockFile},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.spool_dir", &c.Paths.SpoolDir},
	}
	for _, f := range fields {
		expanded, err := expandPath(*f.p)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.p = expanded
	}
	return nil
}

func (c *Config) normalizeSorting() {
	c.Sorting.Mode = strings.ToLower(strings.TrimSpace(c.Sorting.Mode))
	if c.Sorting.Mode == "" {
		c.Sorting.Mode = defaultMode
	}
}

func (c *Config) normalizeCapture() {
	if c.Capture.MinCardAreaFraction == 0 {
		c.Capture.MinCardAreaFraction = defaultMinCardAreaFraction
	}
	if c.Capture.CanonicalWidth <= 0 {
		c.Capture.CanonicalWidth = defaultCanonicalWidth
	}
	if c.Capture.CanonicalHeight <= 0 {
		c.Capture.CanonicalHeight = defaultCanonicalHeight
	}
}

func (c *Config) normalizeOCR() error {
	c.OCR.Language = strings.TrimSpace(c.OCR.Language)
	if c.OCR.Language == "" {
		c.OCR.Language = defaultOCRLanguage
	}
	var err error
	if c.OCR.TessdataDir, err = expandPath(c.OCR.TessdataDir); err != nil {
		return fmt.Errorf("ocr.tessdata_dir: %w", err)
	}
	if c.OCR.TitleRegion == (extract.Region{}) {
		c.OCR.TitleRegion = extract.DefaultTitleRegion()
	}
	return nil
}

func (c *Config) normalizePricing() {
	c.Pricing.PrimarySource = strings.ToLower(strings.TrimSpace(c.Pricing.PrimarySource))
	if c.Pricing.PrimarySource == "" {
		c.Pricing.PrimarySource = defaultPrimarySource
	}
	if c.Pricing.CacheTTLHours <= 0 {
		c.Pricing.CacheTTLHours = defaultCacheTTLHours
	}
	if c.Pricing.RequestIntervalMS <= 0 {
		c.Pricing.RequestIntervalMS = defaultRequestIntervalMS
	}
	c.Pricing.ScryfallBaseURL = strings.TrimRight(strings.TrimSpace(c.Pricing.ScryfallBaseURL), "/")
	if c.Pricing.ScryfallBaseURL == "" {
		c.Pricing.ScryfallBaseURL = defaultScryfallBaseURL
	}
	if c.Pricing.TCGplayerPublicKey == "" {
		if value, ok := os.LookupEnv("TCGPLAYER_PUBLIC_KEY"); ok {
			c.Pricing.TCGplayerPublicKey = strings.TrimSpace(value)
		}
	}
	if c.Pricing.TCGplayerSecretKey == "" {
		if value, ok := os.LookupEnv("TCGPLAYER_SECRET_KEY"); ok {
			c.Pricing.TCGplayerSecretKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return filepath.Abs(path)
}
