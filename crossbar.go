// Package crossbar implements an in-process signal crossbar: a fixed set
// of typed "lines" wired into a dependency graph, recomputed in a single
// forward sweep per tick from external reads, derived logic, and
// time-driven rules. It turns noisy binary or scalar inputs into stable,
// debounced, threshold-checked, event-generating signals that application
// logic can sample without worrying about glitches, races, or edge
// detection.
package crossbar

import (
	"sync"
	"sync/atomic"

	"github.com/cloudyourcar/crossbar/internal/logging"
)

// Crossbar is the evaluation engine: an ordered, immutable configuration
// table paired with a mutable state slot per line. Recalculate,
// FeedInput, PostRequest and Pending serialize on mu; Value does not, by
// design (see Value's doc comment for the concurrency contract).
type Crossbar struct {
	configs []LineConfig
	lines   []lineState

	mu  sync.Mutex
	log *logging.Logger
}

// lineState is the per-line runtime slot: the published value plus a
// kind-specific auxiliary record. aux is nil for kinds that carry none
// (External, Threshold, Request, Calculated).
type lineState struct {
	value atomic.Int64
	aux   any
}

type inputAux struct {
	staged int64
}

type debounceAux struct {
	target  *int64 // nil: no previous sample yet
	timerMs int64
}

type monitorAux struct {
	previous *int64 // nil: no previous sample yet
}

type periodicAux struct {
	elapsedMs int64
}

// Option configures a Crossbar at construction time.
type Option func(*Crossbar)

// WithLogger attaches a logger for line events (set to/going towards/
// stable at/changed to/posted/pended). Without one, events are silently
// discarded; Dump is unaffected either way.
func WithLogger(l *logging.Logger) Option {
	return func(cb *Crossbar) { cb.log = l }
}

// New builds a Crossbar from an ordered, immutable configuration table and
// runs the priming sweep (Recalculate(0)) described in spec §4.1. It
// rejects malformed configuration — duplicate names, unknown kinds,
// missing parameters, and forward or cyclic dependency references — as a
// *Error rather than constructing a broken instance.
func New(configs []LineConfig, opts ...Option) (*Crossbar, error) {
	if len(configs) == 0 {
		return nil, newError("New", ErrCodeEmptyConfig, "config table must contain at least one line")
	}

	cb := &Crossbar{
		configs: append([]LineConfig(nil), configs...),
		lines:   make([]lineState, len(configs)),
	}
	for _, opt := range opts {
		opt(cb)
	}

	if err := cb.validate(); err != nil {
		return nil, err
	}

	for i, cfg := range cb.configs {
		switch cfg.Params.(type) {
		case InputParams:
			cb.lines[i].aux = &inputAux{staged: 0}
		case DebounceParams:
			cb.lines[i].aux = &debounceAux{target: nil, timerMs: 0}
		case MonitorParams:
			cb.lines[i].aux = &monitorAux{previous: nil}
		case PeriodicParams:
			cb.lines[i].aux = &periodicAux{elapsedMs: 0}
		}
	}

	cb.Recalculate(0)
	return cb, nil
}

func (cb *Crossbar) validate() error {
	seen := make(map[string]int, len(cb.configs))
	for i, cfg := range cb.configs {
		if cfg.Name == "" {
			return newLineError("validate", cfg.Name, i, ErrCodeMissingParam, "line has no name")
		}
		if prev, ok := seen[cfg.Name]; ok {
			return newLineError("validate", cfg.Name, i, ErrCodeDuplicateName,
				"also used by line "+cb.configs[prev].Name)
		}
		seen[cfg.Name] = i

		if cfg.Params == nil {
			return newLineError("validate", cfg.Name, i, ErrCodeMissingParam, "line has no params")
		}

		switch p := cfg.Params.(type) {
		case InputParams, RequestParams, CalculatedParams, PeriodicParams:
			// no referenced input to validate
		case ExternalParams:
			if p.Read == nil {
				return newLineError("validate", cfg.Name, i, ErrCodeMissingParam, "external line has no Read callback")
			}
		case ThresholdParams, DebounceParams, MonitorParams:
			dep := p.(depender)
			ref := dep.dependsOn()
			if ref < 0 || ref >= len(cb.configs) {
				return newLineError("validate", cfg.Name, i, ErrCodeOutOfRange, "references out-of-range line id")
			}
			if ref >= i {
				return newLineError("validate", cfg.Name, i, ErrCodeForwardRef,
					"references line "+cb.configs[ref].Name+" which is not lower-indexed")
			}
		default:
			return newLineError("validate", cfg.Name, i, ErrCodeUnknownKind, "unrecognized Params type")
		}

		if cfg.Params.Kind() == KindCalculated {
			if cp := cfg.Params.(CalculatedParams); cp.Compute == nil {
				return newLineError("validate", cfg.Name, i, ErrCodeMissingParam, "calculated line has no Compute callback")
			}
		}
		if cfg.Params.Kind() == KindPeriodic {
			if pp := cfg.Params.(PeriodicParams); pp.PeriodMs <= 0 {
				return newLineError("validate", cfg.Name, i, ErrCodeMissingParam, "periodic line must have PeriodMs > 0")
			}
		}
	}
	return nil
}

// Recalculate performs one forward sweep over the configuration table,
// advancing time by deltaMs and updating every line's value in index
// order. Because the table is a topological order (invariant 2), a
// dependent observes its input's current-tick value within the same
// sweep.
func (cb *Crossbar) Recalculate(deltaMs int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	for i := range cb.configs {
		cb.evalLine(i, deltaMs)
	}
}

func (cb *Crossbar) evalLine(i int, deltaMs int) {
	cfg := &cb.configs[i]
	state := &cb.lines[i]

	switch p := cfg.Params.(type) {
	case InputParams:
		aux := state.aux.(*inputAux)
		state.value.Store(aux.staged)

	case ExternalParams:
		raw := p.Read(p.Priv)
		v := raw
		if p.Invert {
			if raw == 0 {
				v = 1
			} else {
				v = 0
			}
		}
		state.value.Store(int64(v))

	case ThresholdParams:
		x := int(cb.valueAt(p.InputID))
		var v int64
		if state.value.Load() != 0 {
			if x >= p.ThresholdDown {
				v = 1
			}
		} else {
			if x >= p.ThresholdUp {
				v = 1
			}
		}
		state.value.Store(v)

	case DebounceParams:
		aux := state.aux.(*debounceAux)
		x := int64(cb.valueAt(p.InputID))
		cur := state.value.Load()

		switch {
		case aux.target == nil || x != *aux.target:
			target := x
			aux.target = &target
			aux.timerMs = 0
			cb.logEvent(cfg.Name, KindDebounce, "going towards", "value", x)
		case x != cur:
			timeout := p.TimeoutDownMs
			if x != 0 {
				timeout = p.TimeoutUpMs
			}
			aux.timerMs += int64(deltaMs)
			if aux.timerMs > int64(timeout) {
				state.value.Store(x)
				cb.logEvent(cfg.Name, KindDebounce, "stable at", "value", x)
			}
		default:
			// steady state: value already matches input and target; no-op
		}

	case RequestParams:
		// no-op during sweep; set by PostRequest, cleared by Pending

	case CalculatedParams:
		state.value.Store(int64(p.Compute(cb)))

	case MonitorParams:
		aux := state.aux.(*monitorAux)
		x := int64(cb.valueAt(p.InputID))
		if aux.previous == nil || x != *aux.previous {
			state.value.Store(1)
			prev := x
			aux.previous = &prev
			cb.logEvent(cfg.Name, KindMonitor, "changed to", "value", x)
		}

	case PeriodicParams:
		aux := state.aux.(*periodicAux)
		aux.elapsedMs += int64(deltaMs)
		if aux.elapsedMs >= int64(p.PeriodMs) {
			aux.elapsedMs = 0
			state.value.Store(1)
		}

	default:
		misuse("recalculate", i, 0, "unreachable: unknown Params type in sweep")
	}
}

// valueAt reads a line's value without locking, used internally by
// evalLine for dependency reads within an already-locked sweep.
func (cb *Crossbar) valueAt(id int) int {
	return int(cb.lines[id].value.Load())
}

// logEvent emits a sweep event through the attached logger, if any, with
// kind/name and any trailing args (e.g. "value", x) kept as structured
// fields rather than flattened into the event text.
func (cb *Crossbar) logEvent(name string, kind Kind, event string, args ...any) {
	if cb.log == nil {
		return
	}
	cb.log.Event(kind.String(), name, event, args...)
}

// FeedInput stages a value on an Input line. The write is deferred: it
// becomes visible to Value only after the next Recalculate. id must name
// an Input line or FeedInput panics (programmer error, spec §4.6).
func (cb *Crossbar) FeedInput(id int, value int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if id < 0 || id >= len(cb.configs) {
		misuse("feed_input", id, 0, "line id out of range")
	}
	if cb.configs[id].Params.Kind() != KindInput {
		misuse("feed_input", id, cb.configs[id].Params.Kind(), "FeedInput called on a non-Input line")
	}
	cb.lines[id].aux.(*inputAux).staged = int64(value)
	cb.logEvent(cb.configs[id].Name, KindInput, "set to", "value", int64(value))
}

// PostRequest raises a Request line's pending flag. Multiple posts before
// a Pending read collapse into one. id must name a Request line.
func (cb *Crossbar) PostRequest(id int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if id < 0 || id >= len(cb.configs) {
		misuse("post_request", id, 0, "line id out of range")
	}
	if cb.configs[id].Params.Kind() != KindRequest {
		misuse("post_request", id, cb.configs[id].Params.Kind(), "PostRequest called on a non-Request line")
	}
	cb.lines[id].value.Store(1)
	cb.logEvent(cb.configs[id].Name, KindRequest, "posted")
}

// Value returns a line's current published value. It does not acquire
// the crossbar mutex: the single int64 word is read atomically, which is
// what lets Calculated.Compute call Value reentrantly from inside a sweep
// that already holds the mutex. Callers outside a sweep get an advisory
// snapshot; a consistent multi-line read requires external
// synchronization with the mutator.
func (cb *Crossbar) Value(id int) int {
	if id < 0 || id >= len(cb.configs) {
		misuse("value", id, 0, "line id out of range")
	}
	return int(cb.lines[id].value.Load())
}

// Pending reports and clears an edge-triggered line's flag: Request,
// Monitor, or Periodic. It is the sole clear path for these kinds.
func (cb *Crossbar) Pending(id int) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if id < 0 || id >= len(cb.configs) {
		misuse("pending", id, 0, "line id out of range")
	}
	kind := cb.configs[id].Params.Kind()
	if kind != KindRequest && kind != KindMonitor && kind != KindPeriodic {
		misuse("pending", id, kind, "Pending called on a line that is not Request/Monitor/Periodic")
	}

	v := cb.lines[id].value.Swap(0)
	if v != 0 {
		cb.logEvent(cb.configs[id].Name, kind, "pended")
	}
	return v != 0
}

// Len returns the number of configured lines.
func (cb *Crossbar) Len() int {
	return len(cb.configs)
}

// NameOf returns the configured name of line id.
func (cb *Crossbar) NameOf(id int) string {
	return cb.configs[id].Name
}

// KindOf returns the configured kind of line id.
func (cb *Crossbar) KindOf(id int) Kind {
	return cb.configs[id].Params.Kind()
}
