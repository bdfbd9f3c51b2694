package iomanage

import (
	"errors"
	"testing"

	"marionette-go/services/io/ioerr"
)

type palCall struct {
	port Port
	pad  uint8
	mode Mode
}

type recordingPAL struct {
	calls []palCall
}

func (p *recordingPAL) SetPinMode(port Port, pad uint8, mode Mode) {
	p.calls = append(p.calls, palCall{port, pad, mode})
}

func testTables() []*PortTable {
	return []*PortTable{
		{
			Port: PortA,
			Pins: []PinRecord{
				{Pad: 0, DefaultMode: ModeInput, DefaultFn: FnGPIO, Available: FnGPIO | FnADC},
				{Pad: 1, DefaultMode: ModeInput, DefaultFn: FnGPIO, Available: FnGPIO},
				{Pad: 2, DefaultMode: ModeAlternate, DefaultFn: FnUSB, Available: FnNone},
			},
		},
		{
			Port: PortB,
			Pins: []PinRecord{
				{Pad: 0, DefaultMode: ModeInput, DefaultFn: FnGPIO, Available: FnGPIO | FnI2C},
			},
		},
	}
}

func newTestManager() (*Manager, *recordingPAL) {
	pal := &recordingPAL{}
	return New(pal, testTables()...), pal
}

func TestNew_PrimesCurrentFromDefaults(t *testing.T) {
	m, _ := newTestManager()
	st, err := m.Status(PortA, 2)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Mode != ModeAlternate || st.Fn != FnUSB {
		t.Fatalf("boot state not primed from defaults: %+v", st)
	}
}

func TestRequest_IdempotentReassertion(t *testing.T) {
	m, pal := newTestManager()

	if err := m.Request(PortA, 0, ModeAnalog, FnADC); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	before, _ := m.Status(PortA, 0)

	// Re-requesting the current owner always succeeds and changes nothing.
	if err := m.Request(PortA, 0, ModeAnalog, FnADC); err != nil {
		t.Fatalf("reassertion: %v", err)
	}
	after, _ := m.Status(PortA, 0)
	if before != after {
		t.Fatalf("reassertion changed state: %+v -> %+v", before, after)
	}
	if len(pal.calls) != 2 {
		t.Fatalf("expected 2 hardware calls, got %d", len(pal.calls))
	}
}

func TestRequest_CapabilityEnforcement(t *testing.T) {
	m, pal := newTestManager()

	before, _ := m.Status(PortA, 1)
	hwBefore := len(pal.calls)

	err := m.Request(PortA, 1, ModeAlternate, FnSPI)
	if !errors.Is(err, ioerr.ErrFnNotAvailable) {
		t.Fatalf("expected ErrFnNotAvailable, got %v", err)
	}

	after, _ := m.Status(PortA, 1)
	if before != after {
		t.Fatalf("rejected request mutated state: %+v -> %+v", before, after)
	}
	if len(pal.calls) != hwBefore {
		t.Fatal("rejected request touched hardware")
	}
}

func TestRequest_NoPartialCommitOnOwnedPin(t *testing.T) {
	m, pal := newTestManager()

	// PA2 is owned by USB with an empty availability mask.
	before, _ := m.Status(PortA, 2)
	err := m.Request(PortA, 2, ModeOutput, FnGPIO)
	if !errors.Is(err, ioerr.ErrFnNotAvailable) {
		t.Fatalf("expected ErrFnNotAvailable, got %v", err)
	}
	after, _ := m.Status(PortA, 2)
	if before != after {
		t.Fatalf("state changed on rejection: %+v -> %+v", before, after)
	}

	// Re-asserting the owner itself is fine even with an empty mask.
	if err := m.Request(PortA, 2, ModeAlternate, FnUSB); err != nil {
		t.Fatalf("owner reassertion: %v", err)
	}
	if pal.calls[len(pal.calls)-1] != (palCall{PortA, 2, ModeAlternate}) {
		t.Fatalf("unexpected hardware call: %+v", pal.calls)
	}
}

func TestRequest_DeclaredFnBeatsCurrentOwner(t *testing.T) {
	m, _ := newTestManager()

	if err := m.Request(PortB, 0, ModeAlternate, FnI2C); err != nil {
		t.Fatalf("i2c claim: %v", err)
	}
	// gpio is still in PB0's availability mask, so it may take the pad
	// back without a reset.
	if err := m.Request(PortB, 0, ModeOutput, FnGPIO); err != nil {
		t.Fatalf("gpio reclaim: %v", err)
	}
	st, _ := m.Status(PortB, 0)
	if st.Fn != FnGPIO || st.Mode != ModeOutput {
		t.Fatalf("reclaim not committed: %+v", st)
	}
}

func TestRequest_UnknownPortAndPad(t *testing.T) {
	m, pal := newTestManager()
	snap := m.Snapshot()
	hwBefore := len(pal.calls)

	if err := m.Request(PortI, 0, ModeInput, FnGPIO); !errors.Is(err, ioerr.ErrUnknownPort) {
		t.Fatalf("expected ErrUnknownPort, got %v", err)
	}
	if err := m.Request(PortA, 9, ModeInput, FnGPIO); !errors.Is(err, ioerr.ErrUnknownPin) {
		t.Fatalf("expected ErrUnknownPin, got %v", err)
	}

	if len(pal.calls) != hwBefore {
		t.Fatal("failed lookups touched hardware")
	}
	if !snapshotsEqual(snap, m.Snapshot()) {
		t.Fatal("failed lookups mutated registry state")
	}
}

func TestToDefaults_RestoresAndReappliesHardware(t *testing.T) {
	m, pal := newTestManager()

	// Claim PA0 for ADC, then fail an SPI claim on it.
	if err := m.Request(PortA, 0, ModeAnalog, FnADC); err != nil {
		t.Fatalf("adc claim: %v", err)
	}
	if err := m.Request(PortA, 0, ModeAlternate, FnSPI); err == nil {
		t.Fatal("spi claim should have been rejected")
	}
	st, _ := m.Status(PortA, 0)
	if st.Fn != FnADC || st.Mode != ModeAnalog {
		t.Fatalf("claimed pin state wrong: %+v", st)
	}

	// Reset reverts to the declared defaults.
	pal.calls = nil
	m.ToDefaults()

	st, _ = m.Status(PortA, 0)
	if st.Fn != FnGPIO || st.Mode != ModeInput {
		t.Fatalf("reset did not restore defaults: %+v", st)
	}
	if len(pal.calls) != 4 {
		t.Fatalf("expected one hardware call per pin (4), got %d", len(pal.calls))
	}
}

func TestToDefaults_Idempotent(t *testing.T) {
	m, _ := newTestManager()
	_ = m.Request(PortA, 0, ModeAnalog, FnADC)

	m.ToDefaults()
	once := m.Snapshot()
	m.ToDefaults()
	twice := m.Snapshot()

	if !snapshotsEqual(once, twice) {
		t.Fatalf("double reset diverged: %+v vs %+v", once, twice)
	}
}

func TestSnapshot_Shape(t *testing.T) {
	m, _ := newTestManager()
	snap := m.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 ports, got %d", len(snap))
	}
	if snap[0].Port != PortA || len(snap[0].Pins) != 3 {
		t.Fatalf("unexpected port A snapshot: %+v", snap[0])
	}
	if snap[1].Port != PortB || len(snap[1].Pins) != 1 {
		t.Fatalf("unexpected port B snapshot: %+v", snap[1])
	}
	for i, ps := range snap[0].Pins {
		if int(ps.Pad) != i {
			t.Fatalf("pad/index mismatch at %d: %+v", i, ps)
		}
	}
}

func snapshotsEqual(a, b []PortStatus) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Port != b[i].Port || len(a[i].Pins) != len(b[i].Pins) {
			return false
		}
		for j := range a[i].Pins {
			if a[i].Pins[j] != b[i].Pins[j] {
				return false
			}
		}
	}
	return true
}
