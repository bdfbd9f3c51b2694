// Package boards declares per-board pin capability tables: every pad's
// default mode, default owner and the set of functions the board wiring
// allows on it. Tables are data only; the io manager owns all mutation.
package boards

import "marionette-go/services/io/iomanage"

// Well-known Marionette wiring, for services that claim fixed pins.
const (
	LEDPort     = iomanage.PortD
	LED2Pad     = 7
	LEDRedPad   = 13
	LEDGreenPad = 14
	LEDBluePad  = 15

	I2C1Port   = iomanage.PortB
	I2C1SCLPad = 6
	I2C1SDAPad = 7
)

func pin(pad uint8, mode iomanage.Mode, fn, avail iomanage.Fn) iomanage.PinRecord {
	return iomanage.PinRecord{Pad: pad, DefaultMode: mode, DefaultFn: fn, Available: avail}
}

// Marionette builds the allocation tables for the Marionette board
// (STM32F407, ports A-D bonded out to the test headers). Each call
// returns fresh tables, so callers get isolated registries.
//
// Pads with an empty availability mask are owned for the life of the
// board: USB PHY lines, SWD, boot straps and the 32 kHz crystal.
func Marionette() []*iomanage.PortTable {
	const (
		in  = iomanage.ModeInput
		alt = iomanage.ModeAlternate

		none = iomanage.FnNone
		gpio = iomanage.FnGPIO
		adc  = iomanage.FnADC
		dac  = iomanage.FnDAC
		spi  = iomanage.FnSPI
		i2c  = iomanage.FnI2C
		uart = iomanage.FnUART
		pwm  = iomanage.FnPWM
		can  = iomanage.FnCAN
		usb  = iomanage.FnUSB
		swd  = iomanage.FnSWD
		led  = iomanage.FnLED
	)

	portA := &iomanage.PortTable{
		Port: iomanage.PortA,
		Pins: []iomanage.PinRecord{
			pin(0, in, gpio, gpio|adc|uart|pwm),
			pin(1, in, gpio, gpio|adc|uart|pwm),
			pin(2, in, gpio, gpio|adc|uart|pwm),
			pin(3, in, gpio, gpio|adc|uart|pwm),
			pin(4, in, gpio, gpio|adc|dac|spi), // DAC_OUT1 / SPI1_NSS
			pin(5, in, gpio, gpio|adc|dac|spi), // DAC_OUT2 / SPI1_SCK
			pin(6, in, gpio, gpio|adc|spi|pwm),
			pin(7, in, gpio, gpio|adc|spi|pwm),
			pin(8, in, gpio, gpio|pwm),
			pin(9, in, usb, none), // OTG_FS_VBUS sense
			pin(10, in, gpio, gpio|uart),
			pin(11, alt, usb, none), // OTG_FS_DM
			pin(12, alt, usb, none), // OTG_FS_DP
			pin(13, alt, swd, none), // SWDIO
			pin(14, alt, swd, none), // SWCLK
			pin(15, in, gpio, gpio|spi),
		},
	}

	portB := &iomanage.PortTable{
		Port: iomanage.PortB,
		Pins: []iomanage.PinRecord{
			pin(0, alt, usb, none), // OTG_HS_ULPI_D1
			pin(1, alt, usb, none), // OTG_HS_ULPI_D2
			pin(2, in, none, none), // BOOT1 strap
			pin(3, alt, swd, none), // SWO
			pin(4, in, gpio, gpio|spi|pwm),
			pin(5, alt, usb, none),              // OTG_HS_ULPI_D7
			pin(6, in, gpio, gpio|i2c|uart|pwm), // I2C1_SCL (MBUS)
			pin(7, in, gpio, gpio|i2c|uart),     // I2C1_SDA (MBUS)
			pin(8, in, gpio, gpio|i2c|can|pwm),
			pin(9, in, gpio, gpio|i2c|can|pwm),
			pin(10, alt, usb, none),     // OTG_HS_ULPI_D3
			pin(11, alt, usb, none),     // OTG_HS_ULPI_D4
			pin(12, alt, usb, none),     // OTG_HS_ULPI_D5
			pin(13, alt, usb, none),     // OTG_HS_ULPI_D6
			pin(14, in, gpio, gpio|pwm), // TIM1/TIM8
			pin(15, in, gpio, gpio|spi|pwm),
		},
	}

	portC := &iomanage.PortTable{
		Port: iomanage.PortC,
		Pins: []iomanage.PinRecord{
			pin(0, alt, usb, none), // OTG_HS_ULPI_STP
			pin(1, in, gpio, gpio|adc),
			pin(2, alt, usb, none), // OTG_HS_ULPI_DIR
			pin(3, in, gpio, gpio|adc),
			pin(4, in, gpio, gpio|adc),
			pin(5, in, gpio, gpio|adc),
			pin(6, in, gpio, gpio|uart|pwm),
			pin(7, in, gpio, gpio|uart|pwm), // SD_DETECT
			pin(8, in, gpio, gpio),          // SDIO_D0
			pin(9, in, gpio, gpio),          // SDIO_D1
			pin(10, in, gpio, gpio|spi|dac), // SDIO_D2 / SPI3_SCK (external DAC)
			pin(11, in, gpio, gpio),         // SDIO_D3
			pin(12, in, gpio, gpio|spi|dac), // SDIO_CK / SPI3_MOSI (external DAC)
			pin(13, in, gpio, gpio),
			pin(14, in, none, none), // OSC32_IN
			pin(15, in, none, none), // OSC32_OUT
		},
	}

	portD := &iomanage.PortTable{
		Port: iomanage.PortD,
		Pins: []iomanage.PinRecord{
			pin(0, in, gpio, gpio|can),
			pin(1, in, gpio, gpio|can),
			pin(2, in, gpio, gpio|uart), // SDIO_CMD / UART5_RX
			pin(3, in, gpio, gpio),
			pin(4, in, gpio, gpio),
			pin(5, in, gpio, gpio|uart),
			pin(6, in, gpio, gpio|uart),
			pin(7, in, led, gpio|led),   // LED2
			pin(8, in, gpio, gpio|uart), // USART3_TX
			pin(9, in, gpio, gpio|uart), // USART3_RX
			pin(10, in, gpio, gpio),
			pin(11, in, gpio, gpio),
			pin(12, in, gpio, gpio|pwm),
			pin(13, in, led, gpio|led|pwm), // LED1_RED
			pin(14, in, led, gpio|led|pwm), // LED1_GREEN
			pin(15, in, led, gpio|led|pwm), // LED1_BLUE
		},
	}

	return []*iomanage.PortTable{portA, portB, portC, portD}
}
