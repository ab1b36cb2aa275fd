// Package gpio adapts periph.io GPIO pins into crossbar External.Read
// callbacks, so a digital input pin can drive a line the same way any
// other host-fed reading does.
package gpio

import (
	"fmt"

	"github.com/cloudyourcar/crossbar"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Reader wraps a periph.io input pin as a crossbar External line source.
// It samples the pin's level once per Read call; the crossbar sweep calls
// Read at most once per tick, so the pin is never polled faster than the
// engine recalculates.
type Reader struct {
	Pin gpio.PinIn
}

// Read implements the func(priv any) int signature expected by
// crossbar.ExternalParams.Read. priv is unused; the pin is captured by the
// Reader itself so callers construct one Reader per line.
func (r *Reader) Read(any) int {
	if r.Pin.Read() == gpio.High {
		return 1
	}
	return 0
}

// Init brings up the periph.io host drivers for the current platform. It
// must be called once, before ByName, and mirrors every periph-based
// driver in the pack doing the same thing at startup.
func Init() error {
	_, err := host.Init()
	return err
}

// ByName looks up a registered GPIO pin (e.g. "GPIO17" or a board-specific
// alias) via periph.io's global pin registry.
func ByName(name string) (gpio.PinIn, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio: no pin registered with name %q", name)
	}
	in, ok := pin.(gpio.PinIn)
	if !ok {
		return nil, fmt.Errorf("gpio: pin %q does not support input", name)
	}
	return in, nil
}

// External configures pin as a digital input, leaving its pull setting
// unchanged, and builds an
// ExternalParams wired to it, ready to drop into a LineConfig. invert
// flips the active sense, matching the same Invert flag a non-GPIO
// external source would use.
func External(pin gpio.PinIn, invert bool) (crossbar.ExternalParams, error) {
	if err := pin.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return crossbar.ExternalParams{}, fmt.Errorf("gpio: configure %s as input: %w", pin, err)
	}
	r := &Reader{Pin: pin}
	return crossbar.ExternalParams{
		Read:   r.Read,
		Invert: invert,
	}, nil
}
