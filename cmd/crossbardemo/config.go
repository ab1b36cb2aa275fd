package main

import (
	"fmt"
	"os"

	"github.com/cloudyourcar/crossbar"
	"gopkg.in/yaml.v3"
)

// lineSpec is one YAML-declared line. Only the kinds expressible without a
// Go callback are representable here (Input, Threshold, Debounce, Request,
// Monitor, Periodic); External and Calculated lines must be wired in code
// and appended to the table after loadConfig returns.
type lineSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	Input string `yaml:"input,omitempty"`

	ThresholdUp   int `yaml:"threshold_up,omitempty"`
	ThresholdDown int `yaml:"threshold_down,omitempty"`

	TimeoutUpMs   int `yaml:"timeout_up_ms,omitempty"`
	TimeoutDownMs int `yaml:"timeout_down_ms,omitempty"`

	PeriodMs int `yaml:"period_ms,omitempty"`
}

type fileConfig struct {
	Lines []lineSpec `yaml:"lines"`
}

// loadConfig reads a declarative line table from path and resolves each
// line's named Input reference against lines already seen, matching the
// engine's own lower-index-only dependency rule.
func loadConfig(path string) ([]crossbar.LineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	byName := make(map[string]int, len(fc.Lines))
	configs := make([]crossbar.LineConfig, 0, len(fc.Lines))

	for i, ls := range fc.Lines {
		if ls.Name == "" {
			return nil, fmt.Errorf("line %d: missing name", i)
		}
		params, err := resolveParams(ls, byName)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", ls.Name, err)
		}
		byName[ls.Name] = i
		configs = append(configs, crossbar.LineConfig{Name: ls.Name, Params: params})
	}
	return configs, nil
}

func resolveParams(ls lineSpec, byName map[string]int) (crossbar.Params, error) {
	resolveInput := func() (int, error) {
		id, ok := byName[ls.Input]
		if !ok {
			return 0, fmt.Errorf("references undefined input %q", ls.Input)
		}
		return id, nil
	}

	switch ls.Kind {
	case "input":
		return crossbar.InputParams{}, nil
	case "request":
		return crossbar.RequestParams{}, nil
	case "threshold":
		id, err := resolveInput()
		if err != nil {
			return nil, err
		}
		return crossbar.ThresholdParams{InputID: id, ThresholdUp: ls.ThresholdUp, ThresholdDown: ls.ThresholdDown}, nil
	case "debounce":
		id, err := resolveInput()
		if err != nil {
			return nil, err
		}
		return crossbar.DebounceParams{InputID: id, TimeoutUpMs: ls.TimeoutUpMs, TimeoutDownMs: ls.TimeoutDownMs}, nil
	case "monitor":
		id, err := resolveInput()
		if err != nil {
			return nil, err
		}
		return crossbar.MonitorParams{InputID: id}, nil
	case "periodic":
		return crossbar.PeriodicParams{PeriodMs: ls.PeriodMs}, nil
	default:
		return nil, fmt.Errorf("unsupported kind %q in declarative config (external/calculated lines must be wired in code)", ls.Kind)
	}
}
