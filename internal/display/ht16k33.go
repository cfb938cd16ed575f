package display

import (
	"fmt"

	"gpsclock/internal/i2c"
)

// HT16K33 command bytes. The controller has no registers in the usual
// sense: the high nibble selects the command, the low nibble its argument.
const (
	cmdSystemOn   = 0x21 // oscillator on
	cmdDisplayOn  = 0x81 // display on, blink off
	cmdBrightness = 0xE0 // low nibble is the dimming duty, 0..15

	ramAddr = 0x00
)

// Segment patterns for the 0.56" 4-digit backpack, bit 0 = segment A.
var segDigits = [10]byte{0x3F, 0x06, 0x5B, 0x4F, 0x66, 0x6D, 0x7D, 0x07, 0x7F, 0x6F}

const (
	segBlank = 0x00
	segDash  = 0x40

	// The colon occupies row 2 of the display RAM, between the digit pairs.
	colonBit = 0x02
)

func initSequence(dev frameDev, brightness int) error {
	for _, cmd := range [][]byte{
		{cmdSystemOn},
		{cmdDisplayOn},
		{cmdBrightness | byte(brightness&0x0F)},
		blankBuffer(),
	} {
		if err := dev.Write(cmd); err != nil {
			return fmt.Errorf("display: init write failed: %w", err)
		}
	}
	return nil
}

// frameBuffer lays segment bytes out in display RAM order: address pointer,
// then five row pairs (digit, digit, colon row, digit, digit). Odd bytes
// drive rows the 4-digit backpack does not wire.
func frameBuffer(d0, d1, colon, d2, d3 byte) []byte {
	return []byte{ramAddr, d0, 0, d1, 0, colon, 0, d2, 0, d3, 0}
}

func encodeValue(value int, colon, blankLeadingZero bool) []byte {
	if value < 0 {
		value = 0
	}
	value %= 10000

	d0 := segDigits[value/1000]
	d1 := segDigits[value/100%10]
	d2 := segDigits[value/10%10]
	d3 := segDigits[value%10]
	if blankLeadingZero && value < 1000 {
		d0 = segBlank
	}

	var c byte
	if colon {
		c = colonBit
	}
	return frameBuffer(d0, d1, c, d2, d3)
}

func noSignalBuffer() []byte {
	return frameBuffer(segDash, segDash, 0, segDash, segDash)
}

func blankBuffer() []byte {
	return frameBuffer(segBlank, segBlank, 0, segBlank, segBlank)
}

// openDev opens the backpack at addr on the given I2C character device and
// confirms something answers there before any init command goes out.
func openDev(bus string, addr uint16) (frameDev, error) {
	b, err := i2c.Open(bus)
	if err != nil {
		return nil, fmt.Errorf("display: open %s: %w", bus, err)
	}
	dev := b.Dev(addr)
	// The HT16K33 has no ID register; an ACKed readback of display RAM is
	// the presence check.
	var ram [1]byte
	if err := dev.WriteRead([]byte{ramAddr}, ram[:]); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("display: no controller at 0x%02X on %s: %w", addr, bus, err)
	}
	return &i2cDev{bus: b, dev: dev}, nil
}

type i2cDev struct {
	bus *i2c.Bus
	dev *i2c.Dev
}

func (d *i2cDev) Write(p []byte) error { return d.dev.Write(p) }

func (d *i2cDev) Close() error { return d.bus.Close() }
