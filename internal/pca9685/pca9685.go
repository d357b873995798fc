// Package pca9685 drives the PCA9685 16-channel 12-bit PWM controller over
// an I2C register interface. The real bus uses periph.io; the fake bus
// records register writes for testing.
package pca9685

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// Chip constants from the PCA9685 datasheet.
const (
	regMode1    = 0x00
	regPrescale = 0xFE
	regLED0OnL  = 0x06 // four registers per channel from here

	mode1Sleep   = 0x10
	mode1Wake    = 0x00
	mode1Restart = 0xA1 // restart + auto-increment + allcall

	oscClockHz  = 25000000
	prescaleMin = 3
	prescaleMax = 255

	// NumChannels is the number of PWM outputs on the chip.
	NumChannels = 16

	// MaxTick is the largest on/off tick value (12-bit resolution).
	MaxTick = 4095
)

// ErrBus indicates an I2C communication failure (e.g. no acknowledge).
var ErrBus = errors.New("pca9685: bus communication failed")

// ErrInvalidArgument indicates an out-of-range channel or tick value.
var ErrInvalidArgument = errors.New("pca9685: invalid argument")

// Bus writes one byte to one register of the addressed chip.
type Bus interface {
	WriteReg(reg, value byte) error
}

// Driver commands a single PCA9685. Methods are safe for concurrent use;
// register sequences are serialized behind a mutex.
type Driver struct {
	mu    sync.Mutex
	bus   Bus
	sleep func(time.Duration)
}

// New creates a Driver over the given bus.
func New(bus Bus) *Driver {
	return &Driver{bus: bus, sleep: time.Sleep}
}

// WriteReg writes a single register. Transport failures wrap ErrBus.
func (d *Driver) WriteReg(reg, value byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(reg, value)
}

func (d *Driver) writeReg(reg, value byte) error {
	if err := d.bus.WriteReg(reg, value); err != nil {
		return fmt.Errorf("%w: reg 0x%02X: %v", ErrBus, reg, err)
	}
	return nil
}

// SetFrequency configures the PWM frequency for all channels.
//
// The prescaler is only writable while the chip is in sleep mode, so the
// sequence is sleep, prescale, wake, settle, restart. Changing the prescaler
// on a live oscillator produces undefined pulse timing.
func (d *Driver) SetFrequency(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("%w: frequency %d Hz", ErrInvalidArgument, hz)
	}

	prescale := int(math.Round(oscClockHz/(4096*float64(hz)))) - 1
	if prescale < prescaleMin {
		prescale = prescaleMin
	}
	if prescale > prescaleMax {
		prescale = prescaleMax
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writeReg(regMode1, mode1Sleep); err != nil {
		return err
	}
	if err := d.writeReg(regPrescale, byte(prescale)); err != nil {
		return err
	}
	if err := d.writeReg(regMode1, mode1Wake); err != nil {
		return err
	}
	// Oscillator needs at least 500us to stabilise before restart.
	d.sleep(time.Millisecond)
	return d.writeReg(regMode1, mode1Restart)
}

// SetPWM writes the on and off ticks for one channel. The output goes high
// at the on tick and low at the off tick within each PWM period.
func (d *Driver) SetPWM(channel, on, off int) error {
	if channel < 0 || channel >= NumChannels {
		return fmt.Errorf("%w: channel %d (valid 0-%d)", ErrInvalidArgument, channel, NumChannels-1)
	}
	if on < 0 || on > MaxTick {
		return fmt.Errorf("%w: on tick %d (valid 0-%d)", ErrInvalidArgument, on, MaxTick)
	}
	if off < 0 || off > MaxTick {
		return fmt.Errorf("%w: off tick %d (valid 0-%d)", ErrInvalidArgument, off, MaxTick)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	base := byte(regLED0OnL + 4*channel)
	if err := d.writeReg(base, byte(on&0xFF)); err != nil {
		return err
	}
	if err := d.writeReg(base+1, byte(on>>8)); err != nil {
		return err
	}
	if err := d.writeReg(base+2, byte(off&0xFF)); err != nil {
		return err
	}
	return d.writeReg(base+3, byte(off>>8))
}
