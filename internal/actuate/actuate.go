package actuate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/smart-life-tech/card-sorter/internal/logging"
	"github.com/smart-life-tech/card-sorter/internal/routing"
)

// Actuator performs the mechanical motion that routes a card into bin.
// Cycle returns once the motion is complete.
type Actuator interface {
	Cycle(ctx context.Context, bin routing.Bin) error
}

// Serial drives the servo controller over a character device using a
// one-command-per-line protocol: "OPEN <bin>", dwell, "CLOSE <bin>".
// The controller acknowledges nothing; a write that reaches the device
// is taken as success, matching the fire-and-forget behavior of the
// hardware.
type Serial struct {
	port   io.Writer
	closer io.Closer
	dwell  time.Duration
	sleep  func(time.Duration)
	logger *slog.Logger
}

// SerialOption configures a Serial actuator.
type SerialOption func(*Serial)

// WithSerialLogger attaches a logger for per-motion diagnostics.
func WithSerialLogger(logger *slog.Logger) SerialOption {
	return func(s *Serial) { s.logger = logger }
}

// withSleep replaces the dwell sleep, for tests.
func withSleep(sleep func(time.Duration)) SerialOption {
	return func(s *Serial) { s.sleep = sleep }
}

// NewSerial builds a Serial actuator over an already-open port.
func NewSerial(port io.Writer, dwell time.Duration, opts ...SerialOption) *Serial {
	s := &Serial{
		port:   port,
		dwell:  dwell,
		sleep:  time.Sleep,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSerial opens the character device at path and builds a Serial
// actuator over it. Call Close when done.
func OpenSerial(path string, dwell time.Duration, opts ...SerialOption) (*Serial, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open actuator device %s: %w", path, err)
	}
	s := NewSerial(f, dwell, opts...)
	s.closer = f
	return s, nil
}

// Cycle opens the bin gate, holds it for the dwell time, and closes it.
func (s *Serial) Cycle(ctx context.Context, bin routing.Bin) error {
	if !bin.Valid() {
		return fmt.Errorf("unknown bin %q", bin)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Debug("actuating bin", "bin", bin, "dwell", s.dwell)
	if _, err := fmt.Fprintf(s.port, "OPEN %s\n", bin); err != nil {
		return fmt.Errorf("open gate for %s: %w", bin, err)
	}
	s.sleep(s.dwell)
	if _, err := fmt.Fprintf(s.port, "CLOSE %s\n", bin); err != nil {
		return fmt.Errorf("close gate for %s: %w", bin, err)
	}
	return nil
}

// Close releases the underlying device, if this actuator owns one.
func (s *Serial) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Nop logs motions without touching hardware.
type Nop struct {
	logger *slog.Logger
}

// NewNop builds a no-op actuator. A nil logger silences it.
func NewNop(logger *slog.Logger) *Nop {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Nop{logger: logger}
}

// Cycle records the requested motion and succeeds.
func (n *Nop) Cycle(ctx context.Context, bin routing.Bin) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.Info("actuator disabled, skipping motion", "bin", bin)
	return nil
}
