// Package constants holds crossbar-wide default values and formatting
// constants shared by the engine, its adapters, and the demo command.
package constants

import "time"

const (
	// DumpLineEnding matches the original C implementation's printf-style
	// diagnostic output so external log scrapers built against it keep
	// working unchanged.
	DumpLineEnding = "\r\n"

	// DefaultTickInterval is the demo command's default sweep period when
	// no host-specific clock source drives recalculate.
	DefaultTickInterval = 100 * time.Millisecond

	// DefaultLogLevelName is the demo command's default -log-level flag
	// value.
	DefaultLogLevelName = "info"
)
