package crossbar

import (
	"bytes"
	"strings"
	"testing"
)

func single(name string, p Params) []LineConfig {
	return []LineConfig{{Name: name, Params: p}}
}

func TestInputDeferral(t *testing.T) {
	cb, err := New(single("lv", InputParams{}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	cb.FeedInput(0, 3185)
	if got := cb.Value(0); got != 0 {
		t.Errorf("Value() before recalc = %d, want 0", got)
	}

	cb.Recalculate(0)
	if got := cb.Value(0); got != 3185 {
		t.Errorf("Value() after recalc = %d, want 3185", got)
	}
}

func TestExternalRead(t *testing.T) {
	reading := 42
	cb, err := New([]LineConfig{{
		Name: "vbat",
		Params: ExternalParams{
			Read: func(priv any) int { return *(priv.(*int)) },
			Priv: &reading,
		},
	}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got := cb.Value(0); got != 42 {
		t.Errorf("Value() = %d, want 42", got)
	}

	reading = 7
	cb.Recalculate(0)
	if got := cb.Value(0); got != 7 {
		t.Errorf("Value() after read change = %d, want 7", got)
	}
}

func TestExternalInvert(t *testing.T) {
	reading := 0
	cb, err := New([]LineConfig{{
		Name: "door_closed",
		Params: ExternalParams{
			Read:   func(priv any) int { return *(priv.(*int)) },
			Priv:   &reading,
			Invert: true,
		},
	}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got := cb.Value(0); got != 1 {
		t.Errorf("Value() with invert on 0 = %d, want 1", got)
	}

	reading = 1
	cb.Recalculate(0)
	if got := cb.Value(0); got != 0 {
		t.Errorf("Value() with invert on 1 = %d, want 0", got)
	}
}

func TestThresholdHysteresis(t *testing.T) {
	configs := []LineConfig{
		{Name: "raw", Params: InputParams{}},
		{Name: "level", Params: ThresholdParams{InputID: 0, ThresholdUp: 1050, ThresholdDown: 950}},
	}
	cb, err := New(configs)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	steps := []struct {
		input int
		want  int
	}{
		{0, 0},
		{1049, 0},
		{1050, 1},
		{950, 1},
		{949, 0},
	}
	for _, s := range steps {
		cb.FeedInput(0, s.input)
		cb.Recalculate(0)
		if got := cb.Value(1); got != s.want {
			t.Errorf("input=%d: Value(level) = %d, want %d", s.input, got, s.want)
		}
	}
}

func TestThresholdNoFlapWhenEqual(t *testing.T) {
	configs := []LineConfig{
		{Name: "raw", Params: InputParams{}},
		{Name: "level", Params: ThresholdParams{InputID: 0, ThresholdUp: 100, ThresholdDown: 100}},
	}
	cb, err := New(configs)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	cb.FeedInput(0, 100)
	cb.Recalculate(0)
	if got := cb.Value(1); got != 1 {
		t.Fatalf("Value(level) = %d, want 1", got)
	}
	for i := 0; i < 5; i++ {
		cb.Recalculate(0)
		if got := cb.Value(1); got != 1 {
			t.Errorf("recalc %d: Value(level) flapped to %d", i, got)
		}
	}
}

func TestDebounceIdempotence(t *testing.T) {
	configs := []LineConfig{
		{Name: "raw", Params: InputParams{}},
		{Name: "stable", Params: DebounceParams{InputID: 0, TimeoutUpMs: 100, TimeoutDownMs: 100}},
	}
	cb, err := New(configs)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	cb.FeedInput(0, 1)
	for i := 0; i < 3; i++ {
		cb.Recalculate(200)
	}
	if got := cb.Value(1); got != 1 {
		t.Fatalf("Value(stable) = %d, want 1", got)
	}

	// Steady state: further recalcs must not mutate anything observable.
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		cb.Recalculate(200)
	}
	cb.Dump(&buf)
	if strings.Count(buf.String(), "stable = 1") != 1 {
		t.Errorf("dump output unexpected: %s", buf.String())
	}
}

func TestDebounceTimeoutBoundary(t *testing.T) {
	configs := []LineConfig{
		{Name: "raw", Params: InputParams{}},
		{Name: "stable", Params: DebounceParams{InputID: 0, TimeoutUpMs: 100, TimeoutDownMs: 1000}},
	}
	cb, err := New(configs)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// Reach value=1 first, giving the debounce an established target/value.
	cb.FeedInput(0, 1)
	cb.Recalculate(0)   // enters "going towards 1"
	cb.Recalculate(150) // 150 > 100: stabilizes at 1
	if got := cb.Value(1); got != 1 {
		t.Fatalf("Value(stable) = %d, want 1 after up-timeout", got)
	}

	cb.FeedInput(0, 0)
	cb.Recalculate(0) // going towards 0, timer reset
	if got := cb.Value(1); got != 1 {
		t.Errorf("Value(stable) = %d, want still 1 right after input flips", got)
	}
	cb.Recalculate(500)
	if got := cb.Value(1); got != 1 {
		t.Errorf("Value(stable) = %d, want still 1 at 500ms < 1000ms timeout", got)
	}
	cb.Recalculate(501)
	if got := cb.Value(1); got != 0 {
		t.Errorf("Value(stable) = %d, want 0 once accumulated delay exceeds 1000ms", got)
	}
}

func TestPeriodicNoStacking(t *testing.T) {
	cb, err := New(single("tick", PeriodicParams{PeriodMs: 1000}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	deltas := []int{500, 499, 1}
	want := []bool{false, false, true}
	for i, d := range deltas {
		cb.Recalculate(d)
		if got := cb.Pending(0); got != want[i] {
			t.Errorf("step %d: Pending() = %v, want %v", i, got, want[i])
		}
	}

	cb.Recalculate(1500)
	if !cb.Pending(0) {
		t.Error("Pending() after 1500ms delta = false, want true")
	}
	cb.Recalculate(500)
	if cb.Pending(0) {
		t.Error("Pending() after remainder+500ms = true, want false (no stacking)")
	}
}

func TestRequestCollapses(t *testing.T) {
	cb, err := New(single("reset", RequestParams{}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	cb.PostRequest(0)
	cb.PostRequest(0)
	if !cb.Pending(0) {
		t.Error("Pending() after two posts = false, want true")
	}
	if cb.Pending(0) {
		t.Error("second Pending() = true, want false")
	}
}

func TestMonitorFirstFireThenQuiet(t *testing.T) {
	configs := []LineConfig{
		{Name: "raw", Params: InputParams{}},
		{Name: "watch", Params: MonitorParams{InputID: 0}},
	}
	cb, err := New(configs)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if !cb.Pending(1) {
		t.Error("Pending() immediately after init = false, want true (first-fire)")
	}
	if cb.Pending(1) {
		t.Error("second Pending() = true, want false")
	}

	cb.FeedInput(0, 1)
	cb.Recalculate(0)
	if !cb.Pending(1) {
		t.Error("Pending() after visible transition = false, want true")
	}
}

func TestMonitorIgnoresIntraTickToggle(t *testing.T) {
	configs := []LineConfig{
		{Name: "raw", Params: InputParams{}},
		{Name: "watch", Params: MonitorParams{InputID: 0}},
	}
	cb, err := New(configs)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	cb.Pending(1) // clear first-fire

	cb.FeedInput(0, 1)
	cb.FeedInput(0, 0) // reverted before any recalculate
	cb.Recalculate(0)
	if cb.Pending(1) {
		t.Error("Pending() after intra-tick toggle back to original = true, want false")
	}
}

func TestCalculatedIdling(t *testing.T) {
	configs := []LineConfig{
		{Name: "engine_running", Params: InputParams{}},
		{Name: "in_motion", Params: InputParams{}},
		{Name: "idling", Params: CalculatedParams{Compute: func(cb *Crossbar) int {
			running := cb.Value(0) != 0
			motion := cb.Value(1) != 0
			if running && !motion {
				return 1
			}
			return 0
		}}},
	}
	cb, err := New(configs)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	cb.FeedInput(0, 1)
	cb.Recalculate(0)
	if got := cb.Value(2); got != 1 {
		t.Errorf("idling = %d, want 1", got)
	}

	cb.FeedInput(1, 1)
	cb.Recalculate(0)
	if got := cb.Value(2); got != 0 {
		t.Errorf("idling = %d, want 0", got)
	}
}

func TestTopologyRejectsForwardReference(t *testing.T) {
	configs := []LineConfig{
		{Name: "watch", Params: MonitorParams{InputID: 1}},
		{Name: "raw", Params: InputParams{}},
	}
	_, err := New(configs)
	if !IsCode(err, ErrCodeForwardRef) {
		t.Fatalf("New() error = %v, want ErrCodeForwardRef", err)
	}
}

func TestTopologyRejectsDuplicateNames(t *testing.T) {
	configs := []LineConfig{
		{Name: "raw", Params: InputParams{}},
		{Name: "raw", Params: InputParams{}},
	}
	_, err := New(configs)
	if !IsCode(err, ErrCodeDuplicateName) {
		t.Fatalf("New() error = %v, want ErrCodeDuplicateName", err)
	}
}

func TestTopologyRejectsOutOfRange(t *testing.T) {
	configs := single("watch", MonitorParams{InputID: 5})
	_, err := New(configs)
	if !IsCode(err, ErrCodeOutOfRange) {
		t.Fatalf("New() error = %v, want ErrCodeOutOfRange", err)
	}
}

func TestEmptyConfigRejected(t *testing.T) {
	_, err := New(nil)
	if !IsCode(err, ErrCodeEmptyConfig) {
		t.Fatalf("New() error = %v, want ErrCodeEmptyConfig", err)
	}
}

func TestFeedInputOnNonInputPanics(t *testing.T) {
	cb, err := New(single("reset", RequestParams{}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer func() {
		if r := recover(); r == nil {
			t.Error("FeedInput on a Request line did not panic")
		}
	}()
	cb.FeedInput(0, 1)
}

func TestPendingOnThresholdPanics(t *testing.T) {
	configs := []LineConfig{
		{Name: "raw", Params: InputParams{}},
		{Name: "level", Params: ThresholdParams{InputID: 0, ThresholdUp: 1, ThresholdDown: 1}},
	}
	cb, err := New(configs)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer func() {
		if r := recover(); r == nil {
			t.Error("Pending on a Threshold line did not panic")
		}
	}()
	cb.Pending(1)
}

func TestDump(t *testing.T) {
	cb, err := New(single("lv", InputParams{}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	cb.FeedInput(0, 9)
	cb.Recalculate(0)

	var buf bytes.Buffer
	if err := cb.Dump(&buf); err != nil {
		t.Fatalf("Dump() error: %v", err)
	}
	if got := buf.String(); got != "cbar: lv = 9\r\n" {
		t.Errorf("Dump() = %q, want %q", got, "cbar: lv = 9\r\n")
	}
}
