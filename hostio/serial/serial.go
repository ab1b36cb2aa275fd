// Package serial adapts a line-oriented serial device (an ADC or sensor
// board emitting one decimal integer per line) into a crossbar External
// source, using github.com/tarm/serial for the port itself.
package serial

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/cloudyourcar/crossbar"
	"github.com/tarm/serial"
)

// Source continuously scans a reader for newline-terminated integer
// samples and keeps the latest one available for lock-free reads. A
// malformed line is dropped; the previous sample is kept.
type Source struct {
	rc     io.ReadCloser
	latest atomic.Int64
	errs   atomic.Value // stores error
}

// Open opens name at baud using github.com/tarm/serial and starts scanning
// it in the background. Close the returned Source to stop the scan and
// release the port.
func Open(name string, baud int) (*Source, error) {
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", name, err)
	}
	return NewSource(port), nil
}

// NewSource wraps an already-open reader, letting tests and alternate
// transports supply anything that behaves like a serial port.
func NewSource(rc io.ReadCloser) *Source {
	s := &Source{rc: rc}
	go s.scan()
	return s
}

func (s *Source) scan() {
	scanner := bufio.NewScanner(s.rc)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		s.latest.Store(int64(v))
	}
	if err := scanner.Err(); err != nil {
		s.errs.Store(err)
	}
}

// Read implements the func(priv any) int signature crossbar.ExternalParams
// expects: it returns the most recently parsed sample without blocking.
func (s *Source) Read(any) int {
	return int(s.latest.Load())
}

// Err returns the scan goroutine's terminal error, if the underlying
// reader was closed or faulted. Safe to call concurrently with scanning.
func (s *Source) Err() error {
	if e, ok := s.errs.Load().(error); ok {
		return e
	}
	return nil
}

// Close releases the underlying port, ending the scan.
func (s *Source) Close() error {
	return s.rc.Close()
}

// External builds an ExternalParams reading the latest sample from s,
// ready to drop into a LineConfig feeding, e.g., a Threshold line.
func External(s *Source) crossbar.ExternalParams {
	return crossbar.ExternalParams{Read: s.Read}
}
