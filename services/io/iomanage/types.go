package iomanage

import "marionette-go/services/io/ioerr"

// Port identifies a GPIO port (a bank of up to 16 pads sharing
// configuration registers).
type Port uint8

const (
	PortA Port = iota
	PortB
	PortC
	PortD
	PortE
	PortF
	PortG
	PortH
	PortI
)

// PadsPerPort is the pad count of a full port on the target family.
const PadsPerPort = 16

func (p Port) String() string {
	if p > PortI {
		return "P?"
	}
	return string([]byte{'P', 'A' + byte(p)})
}

// Token is the lowercase form used in bus topics ("pa".."pi").
func (p Port) Token() string {
	if p > PortI {
		return "p?"
	}
	return string([]byte{'p', 'a' + byte(p)})
}

// ParsePort accepts "pa", "PA", "porta" or a bare letter.
func ParsePort(s string) (Port, error) {
	switch len(s) {
	case 0:
		return 0, ioerr.ErrInvalidPort
	case 1:
	case 2:
		if s[0] != 'p' && s[0] != 'P' {
			return 0, ioerr.ErrInvalidPort
		}
		s = s[1:]
	default:
		if len(s) != 5 || (s[0] != 'p' && s[0] != 'P') {
			return 0, ioerr.ErrInvalidPort
		}
		low := s[:4]
		if low != "port" && low != "PORT" && low != "Port" {
			return 0, ioerr.ErrInvalidPort
		}
		s = s[4:]
	}
	c := s[0]
	if 'a' <= c && c <= 'i' {
		return Port(c - 'a'), nil
	}
	if 'A' <= c && c <= 'I' {
		return Port(c - 'A'), nil
	}
	return 0, ioerr.ErrInvalidPort
}

// Mode is the electrical configuration of a pad.
type Mode uint8

const (
	ModeInput Mode = iota
	ModeInputPullup
	ModeInputPulldown
	ModeOutput
	ModeAlternate
	ModeAnalog
)

func (m Mode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeInputPullup:
		return "input_pullup"
	case ModeInputPulldown:
		return "input_pulldown"
	case ModeOutput:
		return "output"
	case ModeAlternate:
		return "alternate"
	case ModeAnalog:
		return "analog"
	default:
		return "invalid"
	}
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "input", "in":
		return ModeInput, nil
	case "input_pullup", "pullup":
		return ModeInputPullup, nil
	case "input_pulldown", "pulldown":
		return ModeInputPulldown, nil
	case "output", "out":
		return ModeOutput, nil
	case "alternate", "alt":
		return ModeAlternate, nil
	case "analog":
		return ModeAnalog, nil
	default:
		return 0, ioerr.ErrInvalidMode
	}
}

// Fn tags the logical function owning (or allowed to own) a pad.
// Tags are bit flags so a pad can declare several compatible functions
// in its availability mask; the current owner is always a single tag.
type Fn uint16

const (
	FnGPIO Fn = 1 << iota
	FnADC
	FnDAC
	FnSPI
	FnI2C
	FnUART
	FnPWM
	FnCAN
	FnUSB
	FnSWD
	FnLED
)

// FnNone marks an unallocated pad.
const FnNone Fn = 0

var fnNames = []struct {
	fn   Fn
	name string
}{
	{FnGPIO, "gpio"},
	{FnADC, "adc"},
	{FnDAC, "dac"},
	{FnSPI, "spi"},
	{FnI2C, "i2c"},
	{FnUART, "uart"},
	{FnPWM, "pwm"},
	{FnCAN, "can"},
	{FnUSB, "usb"},
	{FnSWD, "swd"},
	{FnLED, "led"},
}

func (f Fn) String() string {
	if f == FnNone {
		return "none"
	}
	out := ""
	for _, e := range fnNames {
		if f&e.fn != 0 {
			if out != "" {
				out += "|"
			}
			out += e.name
		}
	}
	if out == "" {
		return "invalid"
	}
	return out
}

// Names expands a mask into its individual tag names.
func (f Fn) Names() []string {
	var out []string
	for _, e := range fnNames {
		if f&e.fn != 0 {
			out = append(out, e.name)
		}
	}
	return out
}

// ParseFn maps a single tag name to its flag.
func ParseFn(s string) (Fn, error) {
	if s == "none" {
		return FnNone, nil
	}
	for _, e := range fnNames {
		if s == e.name {
			return e.fn, nil
		}
	}
	return 0, ioerr.ErrInvalidFn
}

// PinRecord tracks one pad. Pad, the defaults and the availability mask
// are board-declared and never change; the current fields are owned by
// the Manager and change only through a committed request or a reset.
type PinRecord struct {
	Pad         uint8
	DefaultMode Mode
	DefaultFn   Fn
	Available   Fn

	CurrentMode Mode
	CurrentFn   Fn
}

// PortTable holds the records of one port, indexed by pad.
type PortTable struct {
	Port Port
	Pins []PinRecord
}

// PinStatus is a read-only view of one pad's registry entry.
type PinStatus struct {
	Port        Port
	Pad         uint8
	Mode        Mode
	Fn          Fn
	DefaultMode Mode
	DefaultFn   Fn
	Available   Fn
}

// PortStatus is a read-only view of a whole port.
type PortStatus struct {
	Port Port
	Pins []PinStatus
}
