package gpio

import (
	"testing"
	"time"

	"github.com/cloudyourcar/crossbar"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
)

// fakePin is a minimal gpio.PinIn for exercising Reader without real
// hardware: level is whatever the test sets it to.
type fakePin struct {
	level gpio.Level
}

func (p *fakePin) String() string               { return "fakePin" }
func (p *fakePin) Name() string                  { return "fakePin" }
func (p *fakePin) Number() int                    { return 0 }
func (p *fakePin) Function() string               { return "In/Out" }
func (p *fakePin) Halt() error                    { return nil }
func (p *fakePin) In(gpio.Pull, gpio.Edge) error  { return nil }
func (p *fakePin) Read() gpio.Level               { return p.level }
func (p *fakePin) WaitForEdge(time.Duration) bool { return false }
func (p *fakePin) Pull() gpio.Pull                { return gpio.PullNoChange }
func (p *fakePin) DefaultPull() gpio.Pull         { return gpio.PullNoChange }

var (
	_ gpio.PinIn = (*fakePin)(nil)
	_ pin.Pin    = (*fakePin)(nil)
)

func TestReaderReadsLevel(t *testing.T) {
	p := &fakePin{level: gpio.High}
	r := &Reader{Pin: p}
	require.Equal(t, 1, r.Read(nil))

	p.level = gpio.Low
	require.Equal(t, 0, r.Read(nil))
}

func TestExternalConfiguresAndInverts(t *testing.T) {
	p := &fakePin{level: gpio.High}
	params, err := External(p, true)
	require.NoError(t, err)
	require.True(t, params.Invert)

	// Read reports the raw level; the crossbar applies Invert when it
	// evaluates the line.
	cb, err := crossbar.New([]crossbar.LineConfig{{Name: "door_closed", Params: params}})
	require.NoError(t, err)
	require.Equal(t, 0, cb.Value(0), "inverted High should read 0")

	p.level = gpio.Low
	cb.Recalculate(0)
	require.Equal(t, 1, cb.Value(0), "inverted Low should read 1")
}
