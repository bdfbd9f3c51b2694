// Keeps an accounting of I/O pin configurations.
//
// A pin must never be handed to a function that the board does not
// declare for it: the DAC, for example, is only bonded out on two pads.
package iomanage

import (
	"sync"

	"marionette-go/services/io/ioerr"
)

// PinModeSetter is the hardware abstraction the Manager drives. Calls
// are fire-and-forget; electrical failures are not reported back.
type PinModeSetter interface {
	SetPinMode(port Port, pad uint8, mode Mode)
}

// Manager owns the allocation registry: the mutable current mode/owner
// of every pad, derived from the board tables at construction. All
// check-then-commit sequences run under one mutex so two requesters can
// never interleave between the availability check and the commit.
type Manager struct {
	mu     sync.Mutex
	pal    PinModeSetter
	tables []*PortTable
}

// New builds a Manager over the given board tables and primes every
// record's current state from its declared defaults. Hardware is not
// touched; call ToDefaults for that.
func New(pal PinModeSetter, tables ...*PortTable) *Manager {
	m := &Manager{pal: pal, tables: tables}
	for _, t := range tables {
		for i := range t.Pins {
			t.Pins[i].CurrentMode = t.Pins[i].DefaultMode
			t.Pins[i].CurrentFn = t.Pins[i].DefaultFn
		}
	}
	return m
}

// table scans for the port's allocation table. Ports are single-digit
// count, a linear scan is fine.
func (m *Manager) table(port Port) *PortTable {
	for _, t := range m.tables {
		if t.Port == port {
			return t
		}
	}
	return nil
}

func (m *Manager) lookup(port Port, pad uint8) (*PinRecord, error) {
	t := m.table(port)
	if t == nil {
		return nil, ioerr.ErrUnknownPort
	}
	if int(pad) >= len(t.Pins) {
		return nil, ioerr.ErrUnknownPin
	}
	return &t.Pins[pad], nil
}

// fnAvail decides whether a requested function may take the pad:
// re-asserting the current owner is always allowed, and any tag in the
// availability mask is allowed even while another function holds the
// pad (reassignment is the requester's call; see Request).
func fnAvail(rec *PinRecord, request Fn) bool {
	if rec.CurrentFn == request {
		return true
	}
	return request&rec.Available != 0
}

// Request claims a pad for a function, committing the new mode and
// owner and reconfiguring the hardware. On any failure nothing is
// mutated and the hardware is not touched.
func (m *Manager) Request(port Port, pad uint8, mode Mode, fn Fn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.lookup(port, pad)
	if err != nil {
		return err
	}
	if !fnAvail(rec, fn) {
		return ioerr.ErrFnNotAvailable
	}
	rec.CurrentMode = mode
	rec.CurrentFn = fn
	m.pal.SetPinMode(port, pad, mode)
	return nil
}

// ToDefaults restores every registered pad to its board-declared
// default mode and owner, reapplying the hardware configuration pad by
// pad. Afterwards the registry is indistinguishable from a fresh boot.
func (m *Manager) ToDefaults() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tables {
		for i := range t.Pins {
			t.Pins[i].CurrentMode = t.Pins[i].DefaultMode
			t.Pins[i].CurrentFn = t.Pins[i].DefaultFn
			m.pal.SetPinMode(t.Port, t.Pins[i].Pad, t.Pins[i].CurrentMode)
		}
	}
}

// Status reports one pad's registry entry.
func (m *Manager) Status(port Port, pad uint8) (PinStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.lookup(port, pad)
	if err != nil {
		return PinStatus{}, err
	}
	return statusOf(port, rec), nil
}

// Snapshot reports the whole registry, table order preserved.
func (m *Manager) Snapshot() []PortStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]PortStatus, 0, len(m.tables))
	for _, t := range m.tables {
		ps := PortStatus{Port: t.Port, Pins: make([]PinStatus, 0, len(t.Pins))}
		for i := range t.Pins {
			ps.Pins = append(ps.Pins, statusOf(t.Port, &t.Pins[i]))
		}
		out = append(out, ps)
	}
	return out
}

func statusOf(port Port, rec *PinRecord) PinStatus {
	return PinStatus{
		Port:        port,
		Pad:         rec.Pad,
		Mode:        rec.CurrentMode,
		Fn:          rec.CurrentFn,
		DefaultMode: rec.DefaultMode,
		DefaultFn:   rec.DefaultFn,
		Available:   rec.Available,
	}
}
