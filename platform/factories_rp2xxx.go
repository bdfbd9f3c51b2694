//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"

	"marionette-go/services/io/iomanage"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"
)

// ----------------------------- PAL (rp2) -------------------------------------

// rp2PAL flattens (port, pad) onto the RP2's single GPIO bank:
// GP = port*16 + pad, clamped to the user GPIOs (GP0..GP28). Pads that
// fall outside the range are ignored; the registry still tracks them.
type rp2PAL struct{}

// DefaultPAL provides the RP2 PAL.
func DefaultPAL() iomanage.PinModeSetter { return rp2PAL{} }

func (rp2PAL) SetPinMode(port iomanage.Port, pad uint8, mode iomanage.Mode) {
	n := int(port)*iomanage.PadsPerPort + int(pad)
	if n < 0 || n > 28 {
		return
	}
	p := machine.Pin(n)
	switch mode {
	case iomanage.ModeInput:
		p.Configure(machine.PinConfig{Mode: machine.PinInput})
	case iomanage.ModeInputPullup:
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	case iomanage.ModeInputPulldown:
		p.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	case iomanage.ModeOutput:
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	default:
		// Alternate/analog muxing is owned by the peripheral drivers
		// (I2C/UART Configure calls); park the pad as a plain input.
		p.Configure(machine.PinConfig{Mode: machine.PinInput})
	}
}

// ----------------------------- I²C (rp2) -------------------------------------

type rp2I2CFactory struct {
	buses map[string]drivers.I2C
}

func (f *rp2I2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// DefaultI2CFactory configures i2c0 and i2c1 with board-default pins at 400 kHz.
func DefaultI2CFactory() I2CBusFactory {
	f := &rp2I2CFactory{buses: make(map[string]drivers.I2C)}

	b0 := machine.I2C0
	_ = b0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	})
	f.buses["i2c0"] = b0

	b1 := machine.I2C1
	_ = b1.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C1_SDA_PIN,
		SCL:       machine.I2C1_SCL_PIN,
	})
	f.buses["i2c1"] = b1

	return f
}

// ----------------------------- Console (rp2) ---------------------------------

// uartConsole adapts uartx to the shell's byte transport.
type uartConsole struct{ u *uartx.UART }

func (c *uartConsole) Read(p []byte) (int, error) {
	return c.u.RecvSomeContext(context.Background(), p)
}

func (c *uartConsole) Write(p []byte) (int, error) { return c.u.Write(p) }

// DefaultConsole runs the shell over UART0 on the board-default pins.
func DefaultConsole() Console {
	hw := uartx.UART0
	_ = hw.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART_TX_PIN,
		RX:       machine.UART_RX_PIN,
	})
	return &uartConsole{u: hw}
}
