package pca9685

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// DefaultAddr is the PCA9685 I2C address with all address pins low.
const DefaultAddr = 0x40

// I2CBus is a Bus backed by a periph.io I2C device.
type I2CBus struct {
	bus i2c.BusCloser
	dev i2c.Dev
}

// OpenI2C opens the named I2C bus ("" selects the first available) and
// addresses the chip at addr.
func OpenI2C(busName string, addr uint16) (*I2CBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	return &I2CBus{
		bus: bus,
		dev: i2c.Dev{Bus: bus, Addr: addr},
	}, nil
}

// WriteReg writes one register on the chip.
func (b *I2CBus) WriteReg(reg, value byte) error {
	return b.dev.Tx([]byte{reg, value}, nil)
}

// Close releases the I2C bus.
func (b *I2CBus) Close() error {
	return b.bus.Close()
}
