// Package platform supplies the hardware-facing pieces the services are
// built against: the pin-mode PAL driven by the io manager, configured
// I²C bus instances, and the console transport for the command shell.
// Each build target provides its own Default* constructors.
package platform

import (
	"io"

	"tinygo.org/x/drivers"
)

// I2CBusFactory injects configured I²C instances by id ("i2c0", "i2c1").
// Uses the TinyGo drivers.I2C interface to remain compatible on MCU builds.
type I2CBusFactory interface {
	ByID(id string) (drivers.I2C, bool)
}

// Console is the byte transport the shell loop reads commands from and
// writes replies to.
type Console interface {
	io.Reader
	io.Writer
}
