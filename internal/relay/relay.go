// Package relay drives a bank of low-trigger relay channels through GPIO
// output lines. The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package relay

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidChannel is returned for a channel index outside the bank.
var ErrInvalidChannel = errors.New("relay: invalid channel")

// Default GPIO pin assignments (BCM numbering): pump1, pump2, pump3, dcmotor.
var DefaultPins = []int{14, 25, 26, 27}

// Line is a single GPIO output line.
type Line interface {
	// SetValue drives the physical line level (0 = low, 1 = high).
	SetValue(value int) error

	// Close releases the line.
	Close() error
}

// Bank controls a fixed set of relay channels. The relay modules are
// low-trigger: driving a line low closes the relay, so logical ON writes
// physical 0 and logical OFF writes physical 1.
type Bank struct {
	mu    sync.Mutex
	lines []Line
	on    []bool
}

// NewBank creates a Bank over the given output lines and drives every
// channel off (physical high).
func NewBank(lines ...Line) (*Bank, error) {
	if len(lines) == 0 {
		return nil, errors.New("relay: no lines")
	}
	b := &Bank{
		lines: lines,
		on:    make([]bool, len(lines)),
	}
	for i, ln := range lines {
		if err := ln.SetValue(1); err != nil {
			return nil, fmt.Errorf("init channel %d off: %w", i, err)
		}
	}
	return b, nil
}

// Size returns the number of channels in the bank.
func (b *Bank) Size() int {
	return len(b.lines)
}

// On turns a single channel on.
func (b *Bank) On(channel int) error {
	return b.set(channel, true)
}

// Off turns a single channel off.
func (b *Bank) Off(channel int) error {
	return b.set(channel, false)
}

func (b *Bank) set(channel int, on bool) error {
	if channel < 0 || channel >= len(b.lines) {
		return fmt.Errorf("%w: %d (valid 0-%d)", ErrInvalidChannel, channel, len(b.lines)-1)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	value := 1 // low-trigger: high = off
	if on {
		value = 0
	}
	if err := b.lines[channel].SetValue(value); err != nil {
		return fmt.Errorf("set channel %d: %w", channel, err)
	}
	b.on[channel] = on
	return nil
}

// OnAll turns every channel on, in channel-index order.
// Not atomic: a failure partway through leaves earlier channels on.
func (b *Bank) OnAll() error {
	return b.setAll(true)
}

// OffAll turns every channel off, in channel-index order.
// Not atomic: a failure partway through leaves earlier channels off.
func (b *Bank) OffAll() error {
	return b.setAll(false)
}

func (b *Bank) setAll(on bool) error {
	for ch := range b.lines {
		if err := b.set(ch, on); err != nil {
			return err
		}
	}
	return nil
}

// State returns the logical state of a single channel.
func (b *Bank) State(channel int) (bool, error) {
	if channel < 0 || channel >= len(b.lines) {
		return false, fmt.Errorf("%w: %d (valid 0-%d)", ErrInvalidChannel, channel, len(b.lines)-1)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on[channel], nil
}

// States returns a copy of the logical states of all channels.
func (b *Bank) States() []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	states := make([]bool, len(b.on))
	copy(states, b.on)
	return states
}

// Close closes every line. The bank must not be used afterwards.
func (b *Bank) Close() error {
	var errs []error
	for i, ln := range b.lines {
		if err := ln.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
