package crossbar

import "fmt"

// Kind identifies one of the eight line variants the engine understands.
// The set is closed: there is no registration mechanism for new kinds.
type Kind uint8

const (
	KindInput Kind = iota + 1
	KindExternal
	KindThreshold
	KindDebounce
	KindRequest
	KindCalculated
	KindMonitor
	KindPeriodic
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindExternal:
		return "external"
	case KindThreshold:
		return "threshold"
	case KindDebounce:
		return "debounce"
	case KindRequest:
		return "request"
	case KindCalculated:
		return "calculated"
	case KindMonitor:
		return "monitor"
	case KindPeriodic:
		return "periodic"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Params is implemented by every per-kind configuration type. It is the Go
// replacement for the original C union of per-kind parameter blocks: each
// concrete type below both names its Kind and, where it references another
// line, exposes that reference for topology validation at construction.
type Params interface {
	Kind() Kind
}

// depender is implemented by Params variants that reference exactly one
// other line. Calculated is deliberately excluded: its compute callback is
// opaque and may read any number of lower-indexed lines, so it cannot be
// statically validated the way a single InputID can.
type depender interface {
	dependsOn() int
}

// InputParams marks a line as host-fed: its value is staged by FeedInput
// and published on the next Recalculate.
type InputParams struct{}

func (InputParams) Kind() Kind { return KindInput }

// ExternalParams pulls a value from a host callback once per sweep.
type ExternalParams struct {
	// Read returns the current raw reading. It runs synchronously while
	// the Crossbar mutex is held and must not call back into the
	// Crossbar's mutating operations.
	Read func(priv any) int
	Priv any
	// Invert flips a zero/non-zero boolean-semantic reading.
	Invert bool
}

func (ExternalParams) Kind() Kind { return KindExternal }

// ThresholdParams derives a hysteresis boolean from another line's scalar
// value. ThresholdUp is the rising trip point, ThresholdDown the falling
// one. Setting them equal degenerates to a plain comparator; setting
// ThresholdUp below ThresholdDown yields an active-below sense.
type ThresholdParams struct {
	InputID                    int
	ThresholdUp, ThresholdDown int
}

func (ThresholdParams) Kind() Kind       { return KindThreshold }
func (p ThresholdParams) dependsOn() int { return p.InputID }

// DebounceParams follows another boolean line only once it has held its
// new value for the per-direction timeout.
type DebounceParams struct {
	InputID                    int
	TimeoutUpMs, TimeoutDownMs int
}

func (DebounceParams) Kind() Kind       { return KindDebounce }
func (p DebounceParams) dependsOn() int { return p.InputID }

// RequestParams marks an edge-sticky boolean raised by the host and
// cleared by the first Pending call.
type RequestParams struct{}

func (RequestParams) Kind() Kind { return KindRequest }

// CalculatedParams produces a value from an arbitrary pure function of the
// whole crossbar, typically composed from lower-indexed Value calls.
type CalculatedParams struct {
	Compute func(cb *Crossbar) int
}

func (CalculatedParams) Kind() Kind { return KindCalculated }

// MonitorParams raises a pending flag whenever the watched line's
// post-sweep value changes.
type MonitorParams struct {
	InputID int
}

func (MonitorParams) Kind() Kind       { return KindMonitor }
func (p MonitorParams) dependsOn() int { return p.InputID }

// PeriodicParams raises a pending flag every PeriodMs of accumulated tick
// delta, without stacking activations across a long delta.
type PeriodicParams struct {
	PeriodMs int
}

func (PeriodicParams) Kind() Kind { return KindPeriodic }

// LineConfig is one entry of the immutable configuration table supplied to
// New. The table's index order is also the dependency topological order:
// every depender must reference a lower index (see dependsOn / validate).
type LineConfig struct {
	Name   string
	Params Params
}
