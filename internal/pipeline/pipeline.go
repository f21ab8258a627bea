package pipeline

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smart-life-tech/card-sorter/internal/actuate"
	"github.com/smart-life-tech/card-sorter/internal/capture"
	"github.com/smart-life-tech/card-sorter/internal/cardindex"
	"github.com/smart-life-tech/card-sorter/internal/colorid"
	"github.com/smart-life-tech/card-sorter/internal/extract"
	"github.com/smart-life-tech/card-sorter/internal/geometry"
	"github.com/smart-life-tech/card-sorter/internal/logging"
	"github.com/smart-life-tech/card-sorter/internal/pricing"
	"github.com/smart-life-tech/card-sorter/internal/routing"
	"github.com/smart-life-tech/card-sorter/internal/sortlog"
	"github.com/smart-life-tech/card-sorter/internal/state"
)

// Detector locates and normalizes a card in a frame.
type Detector interface {
	Detect(frame image.Image) (*geometry.Card, bool)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(image.Image) (*geometry.Card, bool)

func (f DetectorFunc) Detect(frame image.Image) (*geometry.Card, bool) { return f(frame) }

// Extractor reads the title off a normalized card image.
type Extractor interface {
	Extract(img image.Image) (extract.Result, error)
}

// Identifier resolves a title against the card index.
type Identifier interface {
	Resolve(name string, hint cardindex.Hint) (cardindex.Record, bool)
}

// Pricer quotes a card and honors a source preference.
type Pricer interface {
	Price(ctx context.Context, look pricing.Lookup) pricing.Quote
	Reorder(primary string)
}

// Settings supplies the per-cycle policy snapshot and accumulates
// per-bin counts.
type Settings interface {
	Snapshot() state.Snapshot
	RecordCycle(bin routing.Bin) error
}

// Recorder persists completed cycle records.
type Recorder interface {
	Append(ctx context.Context, rec sortlog.Record) error
}

// Deps collects everything a Worker needs.
type Deps struct {
	Source     capture.Source
	Detector   Detector
	Extractor  Extractor
	Identifier Identifier
	Pricer     Pricer
	Settings   Settings
	Actuator   actuate.Actuator
	Log        Recorder
	Logger     *slog.Logger
}

// Outcome summarizes one completed cycle.
type Outcome struct {
	CycleID    string
	Card       cardindex.Record
	Resolved   bool
	Extraction extract.Result
	Quote      pricing.Quote
	Decision   routing.Decision
	Attempts   int
}

// Worker executes sort cycles sequentially.
type Worker struct {
	deps     Deps
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	errDelay time.Duration
}

// New builds a Worker. Logger and Log may be nil.
func New(deps Deps) *Worker {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		deps:     deps,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
		errDelay: 500 * time.Millisecond,
	}
}

// Run processes cycles until ctx is canceled or the frame source is
// exhausted. Cancellation is honored between cycles; a cycle already
// under way runs to completion.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		outcome, err := w.RunCycle(ctx)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		case err != nil:
			w.logger.Error("cycle failed", "error", err)
			time.Sleep(w.errDelay)
		default:
			w.logger.Info("cycle complete",
				"cycle_id", outcome.CycleID,
				"name", outcome.Card.Name,
				"bin", outcome.Decision.Bin,
				"flags", flagStrings(outcome.Decision.Flags),
				"attempts", outcome.Attempts)
		}
	}
}

// RunCycle processes exactly one observation.
func (w *Worker) RunCycle(ctx context.Context) (Outcome, error) {
	snap := w.deps.Settings.Snapshot()
	if snap.PrimarySource != "" {
		w.deps.Pricer.Reorder(snap.PrimarySource)
	}

	out := Outcome{CycleID: w.newID()}
	logger := w.logger.With("cycle_id", out.CycleID)

	var card *geometry.Card
	var in routing.Input
	for attempt := 1; ; attempt++ {
		out.Attempts = attempt

		frame, err := w.deps.Source.Next(ctx)
		if err != nil {
			// A source that runs dry mid-retry cannot supply the
			// rescan; settle the cycle on the first attempt's inputs.
			if attempt > 1 && errors.Is(err, io.EOF) {
				in.Attempt = attempt
				out.Decision = routing.Decide(in)
				break
			}
			return Outcome{}, err
		}

		var found bool
		card, found = w.deps.Detector.Detect(frame.Image)

		extracted := false
		out.Extraction = extract.Result{}
		if found {
			res, err := w.deps.Extractor.Extract(card.Image)
			switch {
			case err == nil:
				out.Extraction = res
				extracted = true
			case errors.Is(err, extract.ErrNoText):
				logger.Debug("no readable title", "attempt", attempt, "origin", frame.Origin)
			default:
				logger.Warn("extraction failed", "attempt", attempt, "error", err)
			}
		} else {
			logger.Debug("no card in frame", "origin", frame.Origin)
		}

		out.Resolved = false
		out.Card = cardindex.Record{}
		if extracted {
			out.Card, out.Resolved = w.deps.Identifier.Resolve(out.Extraction.Text, cardindex.Hint{})
			if !out.Resolved {
				logger.Info("name not in index", "text", out.Extraction.Text)
			}
		}

		out.Quote = pricing.Quote{}
		if out.Resolved {
			out.Quote = w.deps.Pricer.Price(ctx, pricing.Lookup{
				Name:            out.Card.Name,
				SetCode:         out.Card.SetCode,
				CollectorNumber: out.Card.CollectorNumber,
			})
		}

		in = routing.Input{
			Mode:          snap.Mode,
			PriceUSD:      out.Quote.USD,
			Priced:        out.Quote.Priced,
			ColorIdentity: out.Card.ColorIdentity,
			ThresholdUSD:  snap.PriceThresholdUSD,
			Disabled:      snap.Disabled,
			Confidence:    out.Extraction.Confidence,
			MinConfidence: snap.MinConfidence,
			Resolved:      out.Resolved,
			Attempt:       attempt,
		}
		out.Decision = routing.Decide(in)

		// One rescan per cycle: either the routing engine asked for it,
		// or a detected card produced no readable text on the first try.
		if attempt == 1 && (out.Decision.RetryRequested || (found && !extracted)) {
			logger.Debug("rescanning", "retry_requested", out.Decision.RetryRequested)
			continue
		}
		break
	}

	w.finishCycle(ctx, logger, card, &out)
	return out, nil
}

// finishCycle actuates, logs, and counts a decided cycle. Failures
// here are logged and absorbed; the decision already stands.
func (w *Worker) finishCycle(ctx context.Context, logger *slog.Logger, card *geometry.Card, out *Outcome) {
	if out.Resolved && len(out.Card.ColorIdentity) == 0 && card != nil {
		if code, ok := colorid.Suggest(card.Image); ok {
			logger.Info("frame color suggests identity", "name", out.Card.Name, "color", code)
		}
	}

	if w.deps.Actuator != nil {
		if err := w.deps.Actuator.Cycle(ctx, out.Decision.Bin); err != nil {
			logger.Error("actuation failed", "bin", out.Decision.Bin, "error", err)
		}
	}

	if w.deps.Log != nil {
		rec := sortlog.Record{
			CycleID:         out.CycleID,
			Timestamp:       w.now(),
			Name:            out.Card.Name,
			SetCode:         out.Card.SetCode,
			CollectorNumber: out.Card.CollectorNumber,
			ArtID:           out.Card.ArtID,
			Confidence:      out.Extraction.Confidence,
			PriceUSD:        out.Quote.USD,
			Priced:          out.Quote.Priced,
			PriceSource:     out.Quote.Source,
			Bin:             string(out.Decision.Bin),
			Flags:           flagStrings(out.Decision.Flags),
		}
		if err := w.deps.Log.Append(ctx, rec); err != nil {
			logger.Error("sort log append failed", "error", err)
		}
	}

	if err := w.deps.Settings.RecordCycle(out.Decision.Bin); err != nil {
		logger.Error("state update failed", "error", err)
	}
}

func flagStrings(flags []routing.Flag) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, string(f))
	}
	return out
}
