package routing

// Mode selects which property of a card drives bin assignment.
type Mode string

// Sorting modes supported by the decision engine.
const (
	// ModePrice routes by market price against a threshold.
	ModePrice Mode = "price"

	// ModeColor routes mono-colored cards to per-color bins.
	ModeColor Mode = "color"

	// ModeMixed routes by price first, falling back to color
	// when the price is absent or below the threshold.
	ModeMixed Mode = "mixed"
)

// Valid reports whether m is one of the supported sorting modes.
func (m Mode) Valid() bool {
	switch m {
	case ModePrice, ModeColor, ModeMixed:
		return true
	}
	return false
}

// Bin is a logical output destination. The physical actuator channel a
// bin maps to is configuration, not routing, concern.
type Bin string

// The fixed bin set. White and blue share one physical bin on the
// sorter hardware, so they share a logical bin here too.
const (
	BinPrice     Bin = "price_bin"
	BinWhiteBlue Bin = "white_blue_bin"
	BinBlack     Bin = "black_bin"
	BinRed       Bin = "red_bin"
	BinGreen     Bin = "green_bin"
	BinCombined  Bin = "combined_bin"
)

// Bins lists every logical bin in display order.
func Bins() []Bin {
	return []Bin{BinPrice, BinWhiteBlue, BinBlack, BinRed, BinGreen, BinCombined}
}

// Valid reports whether b names one of the fixed bins.
func (b Bin) Valid() bool {
	for _, known := range Bins() {
		if b == known {
			return true
		}
	}
	return false
}

// Flag is a diagnostic tag attached to a decision. Flags explain why a
// card landed where it did; they never change the bin themselves.
type Flag string

// Diagnostic flags.
const (
	FlagUnrecognized    Flag = "unrecognized"
	FlagLowConfidence   Flag = "low_confidence"
	FlagUnpriced        Flag = "unpriced"
	FlagDisabledReroute Flag = "disabled_reroute"
)

// Input carries one cycle's evidence into the decision engine.
//
// All fields are plain values so the engine stays total: any combination
// of absent inputs still produces a valid Decision.
type Input struct {
	// Mode is the sorting mode snapshot taken at cycle start.
	Mode Mode

	// PriceUSD is the resolved market price. Only meaningful when
	// Priced is true.
	PriceUSD float64

	// Priced reports whether any price source produced an amount.
	Priced bool

	// ColorIdentity is the resolved card's color identity symbols
	// (W, U, B, R, G). Empty means colorless or unresolved.
	ColorIdentity []string

	// ThresholdUSD is the inclusive price cutoff for the price bin.
	ThresholdUSD float64

	// Disabled marks bins the operator has taken out of service.
	Disabled map[Bin]bool

	// Confidence is the extraction confidence in [0,100].
	Confidence float64

	// MinConfidence is the floor below which a cycle is retried once
	// and then routed as low-confidence.
	MinConfidence float64

	// Resolved reports whether the identity resolver matched the
	// extracted name to an index record.
	Resolved bool

	// Attempt is the extraction attempt number for this cycle,
	// 1 or 2. Only attempt 1 may request a rescan.
	Attempt int
}

// Decision is the engine's verdict for one cycle.
type Decision struct {
	// Bin is the chosen logical bin. Unset when RetryRequested.
	Bin Bin

	// Flags are the diagnostic tags accumulated while deciding.
	Flags []Flag

	// RetryRequested asks the caller to run one more extraction
	// attempt before a final decision is made.
	RetryRequested bool
}

// HasFlag reports whether f is among the decision's flags.
func (d Decision) HasFlag(f Flag) bool {
	for _, have := range d.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// Decide evaluates the routing policy for one cycle.
//
// Decide is a total function: it returns a usable Decision for every
// Input, including fully degraded ones (nothing detected, nothing
// priced). See the package documentation for the evaluation order.
func Decide(in Input) Decision {
	// Steps 1-3 are terminal: their outcomes are already the combined
	// bin, so the unpriced and disabled-reroute steps do not apply.
	if !in.Resolved {
		return Decision{Bin: BinCombined, Flags: []Flag{FlagUnrecognized}}
	}

	if in.Confidence < in.MinConfidence {
		if in.Attempt <= 1 {
			return Decision{RetryRequested: true}
		}
		return Decision{Bin: BinCombined, Flags: []Flag{FlagLowConfidence}}
	}

	var bin Bin
	switch in.Mode {
	case ModePrice:
		bin = priceBin(in)
	case ModeColor:
		bin = colorBin(in.ColorIdentity)
	case ModeMixed:
		// Price takes precedence; color is the fallback rule.
		if in.Priced && in.PriceUSD >= in.ThresholdUSD {
			bin = BinPrice
		} else {
			bin = colorBin(in.ColorIdentity)
		}
	default:
		bin = BinCombined
	}

	return finalize(Decision{Bin: bin}, in)
}

// priceBin applies the price-mode rule: at or above threshold goes to
// the price bin, everything else to combined.
func priceBin(in Input) Bin {
	if in.Priced && in.PriceUSD >= in.ThresholdUSD {
		return BinPrice
	}
	return BinCombined
}

// colorBin maps a mono-color identity to its bin. Colorless and
// multicolor identities are never eligible for a color bin.
func colorBin(identity []string) Bin {
	if len(identity) != 1 {
		return BinCombined
	}
	switch identity[0] {
	case "W", "U":
		return BinWhiteBlue
	case "B":
		return BinBlack
	case "R":
		return BinRed
	case "G":
		return BinGreen
	}
	return BinCombined
}

// finalize applies the two policy steps common to every decided bin:
// the unpriced flag and the disabled-bin reroute.
func finalize(d Decision, in Input) Decision {
	if !in.Priced {
		d.Flags = append(d.Flags, FlagUnpriced)
	}
	if in.Disabled[d.Bin] && d.Bin != BinCombined {
		d.Bin = BinCombined
		d.Flags = append(d.Flags, FlagDisabledReroute)
	}
	return d
}
