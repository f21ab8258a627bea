package config

import (
	"errors"
	"fmt"

	"github.com/smart-life-tech/card-sorter/internal/routing"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSorting(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validatePricing(); err != nil {
		return err
	}
	if err := c.validateActuator(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSorting() error {
	if !routing.Mode(c.Sorting.Mode).Valid() {
		return fmt.Errorf("sorting.mode must be price, color, or mixed (got %q)", c.Sorting.Mode)
	}
	if c.Sorting.PriceThresholdUSD < 0 {
		return errors.New("sorting.price_threshold_usd must not be negative")
	}
	if c.Sorting.MinConfidence < 0 || c.Sorting.MinConfidence > 100 {
		return errors.New("sorting.min_confidence must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.MinCardAreaFraction <= 0 || c.Capture.MinCardAreaFraction >= 1 {
		return errors.New("capture.min_card_area_fraction must be between 0 and 1 exclusive")
	}
	return nil
}

func (c *Config) validateOCR() error {
	if !c.OCR.TitleRegion.Valid() {
		return errors.New("ocr.title_region fractions must describe a non-empty rectangle inside the unit square")
	}
	return nil
}

func (c *Config) validatePricing() error {
	switch c.Pricing.PrimarySource {
	case "scryfall", "tcgplayer":
	default:
		return fmt.Errorf("pricing.primary_source must be scryfall or tcgplayer (got %q)", c.Pricing.PrimarySource)
	}
	if (c.Pricing.TCGplayerPublicKey == "") != (c.Pricing.TCGplayerSecretKey == "") {
		return errors.New("pricing.tcgplayer_public_key and pricing.tcgplayer_secret_key must be set together")
	}
	return nil
}

func (c *Config) validateActuator() error {
	if !c.Actuator.Enabled {
		return nil
	}
	if c.Actuator.Device == "" {
		return errors.New("actuator.device must be set when the actuator is enabled")
	}
	if c.Actuator.DwellMS <= 0 {
		return errors.New("actuator.dwell_ms must be positive")
	}
	return nil
}
