//go:build linux

package relay

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealLines owns GPIO output lines requested from the Linux GPIO
// character device.
type RealLines struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
}

// RequestLines requests the given pins as outputs, all driven high so the
// low-trigger relays start de-energised.
func RequestLines(chipName string, pins []int) (*RealLines, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	r := &RealLines{chip: chip}
	for _, pin := range pins {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(1))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request relay pin %d: %w", pin, err)
		}
		r.lines = append(r.lines, line)
	}
	return r, nil
}

// Lines returns the requested lines in pin order, for constructing a Bank.
func (r *RealLines) Lines() []Line {
	lines := make([]Line, len(r.lines))
	for i, ln := range r.lines {
		lines[i] = ln
	}
	return lines
}

// Close drives all lines high (relays off) and releases them.
func (r *RealLines) Close() error {
	var errs []error
	for i, ln := range r.lines {
		if err := ln.SetValue(1); err != nil {
			errs = append(errs, fmt.Errorf("park pin %d: %w", i, err))
		}
		if err := ln.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", i, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
