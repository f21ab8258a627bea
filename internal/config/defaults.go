package config

const (
	defaultIndexPath    = "~/.local/share/card-sorter/index.json"
	defaultLabelMapPath = "~/.local/share/card-sorter/label_map.json"
	defaultStateFile    = "~/.local/share/card-sorter/state.json"
	defaultSortLogPath  = "~/.local/share/card-sorter/sortlog.db"
	defaultLockFile     = "~/.local/share/card-sorter/card-sorter.lock"
	defaultLogDir       = "~/.local/share/card-sorter/logs"
	defaultSpoolDir     = "~/.local/share/card-sorter/spool"

	defaultMode              = "price"
	defaultPriceThresholdUSD = 0.25
	defaultMinConfidence     = 50.0

	defaultMinCardAreaFraction = 0.10
	defaultCanonicalWidth      = 720
	defaultCanonicalHeight     = 1024

	defaultOCRLanguage = "eng"

	defaultPrimarySource     = "scryfall"
	defaultCacheTTLHours     = 24
	defaultRequestIntervalMS = 100
	defaultScryfallBaseURL   = "https://api.scryfall.com"

	defaultActuatorDevice = "/dev/ttyACM0"
	defaultActuatorDwell  = 600

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			IndexPath:    defaultIndexPath,
			LabelMapPath: defaultLabelMapPath,
			StateFile:    defaultStateFile,
			SortLogPath:  defaultSortLogPath,
			LockFile:     defaultLockFile,
			LogDir:       defaultLogDir,
			SpoolDir:     defaultSpoolDir,
		},
		Sorting: Sorting{
			Mode:              defaultMode,
			PriceThresholdUSD: defaultPriceThresholdUSD,
			MinConfidence:     defaultMinConfidence,
		},
		Capture: Capture{
			MinCardAreaFraction: defaultMinCardAreaFraction,
			CanonicalWidth:      defaultCanonicalWidth,
			CanonicalHeight:     defaultCanonicalHeight,
		},
		OCR: OCR{
			Language: defaultOCRLanguage,
		},
		Pricing: Pricing{
			PrimarySource:     defaultPrimarySource,
			CacheTTLHours:     defaultCacheTTLHours,
			RequestIntervalMS: defaultRequestIntervalMS,
			ScryfallBaseURL:   defaultScryfallBaseURL,
		},
		Actuator: Actuator{
			Enabled: false,
			Device:  defaultActuatorDevice,
			DwellMS: defaultActuatorDwell,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
