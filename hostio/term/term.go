// Package term decorates Crossbar.Dump output for an interactive
// terminal: non-zero line values are colorized so a human watching a live
// dump can spot active signals at a glance. Piped or redirected output is
// left untouched.
package term

import (
	"fmt"
	"io"
	"os"

	"github.com/cloudyourcar/crossbar"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	colorGreen = "\x1b[32m"
	colorReset = "\x1b[0m"
)

// Sink wraps a plain io.Writer, adding ANSI coloring for non-zero values
// when color is enabled.
type Sink struct {
	w     io.Writer
	color bool
}

// Stdout returns a Sink writing to stdout, auto-detecting whether it's a
// real terminal via go-isatty and, on Windows, translating ANSI sequences
// through go-colorable.
func Stdout() *Sink {
	out := os.Stdout
	return &Sink{
		w:     colorable.NewColorable(out),
		color: isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()),
	}
}

// New wraps an arbitrary writer, forcing color on or off explicitly. Used
// by tests and by callers that already know their sink isn't a terminal.
func New(w io.Writer, color bool) *Sink {
	return &Sink{w: w, color: color}
}

// WriteLine renders one "name = value" dump line, colorizing the value
// when color is enabled and the value is non-zero.
func (s *Sink) WriteLine(name string, value int) error {
	if !s.color || value == 0 {
		_, err := fmt.Fprintf(s.w, "cbar: %s = %d\r\n", name, value)
		return err
	}
	_, err := fmt.Fprintf(s.w, "cbar: %s = %s%d%s\r\n", name, colorGreen, value, colorReset)
	return err
}

// Dump writes cb's current line values through s, one colorized line per
// configured line, in place of Crossbar.Dump when a live terminal view is
// wanted instead of the plain diagnostic format.
func (s *Sink) Dump(cb *crossbar.Crossbar) error {
	for i := 0; i < cb.Len(); i++ {
		if err := s.WriteLine(cb.NameOf(i), cb.Value(i)); err != nil {
			return err
		}
	}
	return nil
}

// Write implements io.Writer by passing through to the underlying sink
// verbatim, so Sink itself can be handed to Crossbar.Dump when color
// decoration isn't needed but a terminal-safe writer still is.
func (s *Sink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}
