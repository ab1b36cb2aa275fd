// Command crossbardemo runs a crossbar line table on a fixed tick,
// declared via a YAML config file, recording line values in Prometheus
// gauges and printing a dump to the terminal (colorized unless -no-color).
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cloudyourcar/crossbar"
	"github.com/cloudyourcar/crossbar/hostio/gpio"
	"github.com/cloudyourcar/crossbar/hostio/term"
	"github.com/cloudyourcar/crossbar/internal/constants"
	"github.com/cloudyourcar/crossbar/internal/logging"
	"github.com/cloudyourcar/crossbar/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"
)

// buildGPIOLine parses "-gpio-line name:pin[:invert]" and resolves it
// against periph.io's pin registry, appending a real External line to the
// otherwise declarative YAML table. It is never referenced by name from
// the YAML file: GPIO lines are sources, not dependents.
func buildGPIOLine(spec string) (crossbar.LineConfig, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 {
		return crossbar.LineConfig{}, fmt.Errorf("gpio-line must be name:pin[:invert], got %q", spec)
	}
	name, pinName := parts[0], parts[1]
	invert := len(parts) > 2 && parts[2] == "invert"

	if err := gpio.Init(); err != nil {
		return crossbar.LineConfig{}, fmt.Errorf("init host drivers: %w", err)
	}
	pin, err := gpio.ByName(pinName)
	if err != nil {
		return crossbar.LineConfig{}, err
	}
	params, err := gpio.External(pin, invert)
	if err != nil {
		return crossbar.LineConfig{}, err
	}
	return crossbar.LineConfig{Name: name, Params: params}, nil
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML line table")
		verbose    = flag.Bool("v", false, "verbose output")
		logLevel   = flag.String("log-level", constants.DefaultLogLevelName, "log level: debug, info, warn, error")
		tickMs     = flag.Int("tick-ms", int(constants.DefaultTickInterval/time.Millisecond), "tick period in milliseconds")
		noColor    = flag.Bool("no-color", false, "disable colorized dump output")
		gpioLine   = flag.String("gpio-line", "", "optional real GPIO input, as name:pin[:invert], e.g. door_closed:GPIO17:invert")
	)
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: crossbardemo -config <file.yaml>")
		os.Exit(2)
	}

	logConfig := logging.DefaultConfig()
	if level, err := logging.ParseLevel(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "crossbardemo: %v\n", err)
		os.Exit(2)
	} else {
		logConfig.Level = level
	}
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	configs, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *gpioLine != "" {
		extra, err := buildGPIOLine(*gpioLine)
		if err != nil {
			logger.Error("failed to wire gpio line", "error", err)
			os.Exit(1)
		}
		configs = append(configs, extra)
	}

	cb, err := crossbar.New(configs, crossbar.WithLogger(logger))
	if err != nil {
		logger.Error("failed to build crossbar", "error", err)
		os.Exit(1)
	}
	logger.Info("crossbar initialized", "lines", cb.Len())

	exp, err := telemetry.NewExporter(cb, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Error("failed to register telemetry", "error", err)
		os.Exit(1)
	}

	sink := term.Stdout()
	if *noColor {
		sink = term.New(os.Stdout, false)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.Duration(*tickMs) * time.Millisecond
	req := &unix.Timespec{
		Sec:  int64(ticker / time.Second),
		Nsec: int64(ticker % time.Second),
	}

	logger.Info("starting tick loop", "period_ms", *tickMs)
	lastTick := time.Now()
	for {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal")
			return
		default:
		}

		sleep := *req
		rem := &unix.Timespec{}
		for {
			if err := unix.Nanosleep(&sleep, rem); err != nil {
				if err == unix.EINTR {
					sleep = *rem
					continue
				}
				logger.Error("nanosleep failed", "error", err)
				break
			}
			break
		}

		now := time.Now()
		deltaMs := int(now.Sub(lastTick) / time.Millisecond)
		lastTick = now

		cb.Recalculate(deltaMs)
		exp.Collect()
		if err := sink.Dump(cb); err != nil {
			logger.Error("dump failed", "error", err)
		}
	}
}
