package main

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/smart-life-tech/card-sorter/internal/actuate"
	"github.com/smart-life-tech/card-sorter/internal/capture"
	"github.com/smart-life-tech/card-sorter/internal/cardindex"
	"github.com/smart-life-tech/card-sorter/internal/config"
	"github.com/smart-life-tech/card-sorter/internal/extract"
	"github.com/smart-life-tech/card-sorter/internal/geometry"
	"github.com/smart-life-tech/card-sorter/internal/logging"
	"github.com/smart-life-tech/card-sorter/internal/ocr"
	"github.com/smart-life-tech/card-sorter/internal/pipeline"
	"github.com/smart-life-tech/card-sorter/internal/pricing"
	"github.com/smart-life-tech/card-sorter/internal/sortlog"
	"github.com/smart-life-tech/card-sorter/internal/state"
)

// app bundles the wired sorter components for the run and scan
// commands. Close releases them in reverse construction order.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	state  *state.Store
	log    *sortlog.Store
	pricer *pricing.Service
	worker *pipeline.Worker

	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close component", "error", err)
		}
	}
}

func buildLogger(cfg *config.Config, toFile bool) (*slog.Logger, error) {
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if toFile {
		opts.Dir = cfg.Paths.LogDir
	}
	return logging.New(opts)
}

// stateSeed derives the first-run state from the static config. Once a
// state file exists its values win over these.
func stateSeed(cfg *config.Config) state.Runtime {
	return state.Runtime{
		Mode:              cfg.Sorting.Mode,
		PriceThresholdUSD: cfg.Sorting.PriceThresholdUSD,
		MinConfidence:     cfg.Sorting.MinConfidence,
		PrimarySource:     cfg.Pricing.PrimarySource,
	}
}

func buildPricer(cfg *config.Config, logger *slog.Logger) *pricing.Service {
	cache := pricing.NewMemoryCache(time.Duration(cfg.Pricing.CacheTTLHours)*time.Hour, nil)
	limiter := pricing.NewLimiter(time.Duration(cfg.Pricing.RequestIntervalMS)*time.Millisecond, nil, nil)

	providers := []pricing.Provider{
		pricing.NewScryfall(limiter, pricing.WithScryfallBaseURL(cfg.Pricing.ScryfallBaseURL)),
	}
	if cfg.Pricing.TCGplayerPublicKey != "" {
		providers = append(providers, pricing.NewTCGplayer(
			cfg.Pricing.TCGplayerPublicKey, cfg.Pricing.TCGplayerSecretKey))
	}
	return pricing.NewService(cache, logger, providers...)
}

// buildApp wires every sorter component around the given frame source.
func buildApp(cfg *config.Config, logger *slog.Logger, source capture.Source) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	index, err := cardindex.Load(cfg.Paths.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("load card index: %w", err)
	}
	resolver := cardindex.NewResolver(index, cardindex.ExactThenFolded{})
	if cfg.Paths.LabelMapPath != "" {
		labels, err := cardindex.LoadLabelMap(cfg.Paths.LabelMapPath)
		if err != nil {
			logger.Warn("load label map", "path", cfg.Paths.LabelMapPath, "error", err)
		} else {
			resolver.SetLabelMap(labels)
		}
	}
	logger.Info("card index loaded", "path", cfg.Paths.IndexPath, "cards", index.Len())

	st, err := state.Open(cfg.Paths.StateFile, stateSeed(cfg))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open state: %w", err)
	}
	a.state = st

	logStore, err := sortlog.Open(cfg.Paths.SortLogPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open sort log: %w", err)
	}
	a.log = logStore
	a.closers = append(a.closers, logStore.Close)

	a.pricer = buildPricer(cfg, logger)

	var actuator actuate.Actuator
	if cfg.Actuator.Enabled {
		serial, err := actuate.OpenSerial(cfg.Actuator.Device,
			time.Duration(cfg.Actuator.DwellMS)*time.Millisecond,
			actuate.WithSerialLogger(logger))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open actuator: %w", err)
		}
		a.closers = append(a.closers, serial.Close)
		actuator = serial
	} else {
		actuator = actuate.NewNop(logger)
	}

	engine := &ocr.Tesseract{
		Language:    cfg.OCR.Language,
		TessdataDir: cfg.OCR.TessdataDir,
	}
	extractor := extract.New(engine,
		extract.WithRegion(cfg.OCR.TitleRegion),
		extract.WithLogger(logger))

	detectOpts := geometry.Options{
		MinAreaFrac:     cfg.Capture.MinCardAreaFraction,
		CanonicalWidth:  cfg.Capture.CanonicalWidth,
		CanonicalHeight: cfg.Capture.CanonicalHeight,
	}
	detector := pipeline.DetectorFunc(func(frame image.Image) (*geometry.Card, bool) {
		return geometry.Detect(frame, detectOpts)
	})

	a.worker = pipeline.New(pipeline.Deps{
		Source:     source,
		Detector:   detector,
		Extractor:  extractor,
		Identifier: resolver,
		Pricer:     a.pricer,
		Settings:   st,
		Actuator:   actuator,
		Log:        a.log,
		Logger:     logger,
	})
	return a, nil
}
