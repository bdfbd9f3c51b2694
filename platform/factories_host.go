//go:build !rp2040 && !rp2350

package platform

import (
	"errors"
	"os"
	"sync"

	"marionette-go/services/io/iomanage"

	"tinygo.org/x/drivers"
)

// ----------------------------- PAL (host) ------------------------------------

type palKey struct {
	Port iomanage.Port
	Pad  uint8
}

// HostPAL records every SetPinMode call so tests can assert on the
// electrical side effects of the allocator.
type HostPAL struct {
	mu    sync.Mutex
	modes map[palKey]iomanage.Mode
	calls int
}

func (p *HostPAL) SetPinMode(port iomanage.Port, pad uint8, mode iomanage.Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.modes == nil {
		p.modes = make(map[palKey]iomanage.Mode)
	}
	p.modes[palKey{port, pad}] = mode
	p.calls++
}

// Mode returns the last mode applied to a pad, if any.
func (p *HostPAL) Mode(port iomanage.Port, pad uint8) (iomanage.Mode, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.modes[palKey{port, pad}]
	return m, ok
}

// Calls returns the total number of hardware reconfigurations.
func (p *HostPAL) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// DefaultPAL provides the host PAL.
func DefaultPAL() iomanage.PinModeSetter { return &HostPAL{} }

// ----------------------------- I²C (host) ------------------------------------

var errNoDevice = errors.New("i2c: no ack")

// HostI2C implements tinygo drivers.I2C for host-side tests. Addresses
// in Present ack transfers; everything else nacks.
type HostI2C struct {
	mu      sync.Mutex
	Present map[uint16]bool
	LastTx  struct {
		Addr uint16
		W    []byte
		Rn   int
	}
}

func (h *HostI2C) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastTx.Addr = addr
	h.LastTx.W = append([]byte(nil), w...)
	h.LastTx.Rn = len(r)
	if !h.Present[addr] {
		return errNoDevice
	}
	return nil
}

type hostI2CFactory struct {
	buses map[string]drivers.I2C
}

func (f *hostI2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// DefaultI2CFactory creates inert host I²C buses "i2c0" and "i2c1".
func DefaultI2CFactory() I2CBusFactory {
	return &hostI2CFactory{
		buses: map[string]drivers.I2C{
			"i2c0": &HostI2C{},
			"i2c1": &HostI2C{},
		},
	}
}

// I2CFactoryOf wraps pre-built buses, for tests that need to reach the
// underlying *HostI2C.
func I2CFactoryOf(buses map[string]drivers.I2C) I2CBusFactory {
	return &hostI2CFactory{buses: buses}
}

// ----------------------------- Console (host) --------------------------------

type stdioConsole struct{}

func (stdioConsole) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioConsole) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

// DefaultConsole reads commands from stdin and writes replies to stdout.
func DefaultConsole() Console { return stdioConsole{} }
