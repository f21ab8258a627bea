package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/smart-life-tech/card-sorter/internal/extract"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	IndexPath    string `toml:"index_path"`
	LabelMapPath string `toml:"label_map_path"`
	StateFile    string `toml:"state_file"`
	SortLogPath  string `toml:"sort_log_path"`
	LockFile     string `toml:"lock_file"`
	LogDir       string `toml:"log_dir"`
	SpoolDir     string `toml:"spool_dir"`
}

// Sorting contains the initial sorting policy. These values seed the
// persisted runtime state on first run; after that the state file wins.
type Sorting struct {
	Mode              string  `toml:"mode"`
	PriceThresholdUSD float64 `toml:"price_threshold_usd"`
	MinConfidence     float64 `toml:"min_confidence"`
}

// Capture contains frame acquisition and card detection settings.
type Capture struct {
	MinCardAreaFraction float64 `toml:"min_card_area_fraction"`
	CanonicalWidth      int     `toml:"canonical_width"`
	CanonicalHeight     int     `toml:"canonical_height"`
}

// OCR contains recognition engine settings.
type OCR struct {
	Language    string         `toml:"language"`
	TessdataDir string         `toml:"tessdata_dir"`
	TitleRegion extract.Region `toml:"title_region"`
}

// Pricing contains price source settings and credentials.
type Pricing struct {
	PrimarySource      string `toml:"primary_source"`
	CacheTTLHours      int    `toml:"cache_ttl_hours"`
	RequestIntervalMS  int    `toml:"request_interval_ms"`
	ScryfallBaseURL    string `toml:"scryfall_base_url"`
	TCGplayerPublicKey string `toml:"tcgplayer_public_key"`
	TCGplayerSecretKey string `toml:"tcgplayer_secret_key"`
}

// Actuator contains bin hardware settings.
type Actuator struct {
	Enabled bool   `toml:"enabled"`
	Device  string `toml:"device"`
	DwellMS int    `toml:"dwell_ms"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the sorter.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Sorting  Sorting  `toml:"sorting"`
	Capture  Capture  `toml:"capture"`
	OCR      OCR      `toml:"ocr"`
	Pricing  Pricing  `toml:"pricing"`
	Actuator Actuator `toml:"actuator"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default
// configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/card-sorter/config.toml")
}

// Load locates, parses, and validates a configuration file. The
// returned config has all path fields expanded. The second return is
// the resolved path, the third whether a file was actually read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("card-sorter.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// WriteSample writes the annotated sample configuration to path,
// refusing to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the directories the sorter writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.LogDir,
		c.Paths.SpoolDir,
		filepath.Dir(c.Paths.StateFile),
		filepath.Dir(c.Paths.SortLogPath),
		filepath.Dir(c.Paths.LockFile),
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}
