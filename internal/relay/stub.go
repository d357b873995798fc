//go:build !linux

package relay

import "errors"

// RealLines is not available on non-Linux platforms.
type RealLines struct{}

// RequestLines returns an error on non-Linux platforms.
func RequestLines(chipName string, pins []int) (*RealLines, error) {
	return nil, errors.New("relay: not supported on this platform (requires Linux)")
}

// Lines is not implemented on non-Linux platforms.
func (r *RealLines) Lines() []Line {
	return nil
}

// Close is not implemented on non-Linux platforms.
func (r *RealLines) Close() error {
	return nil
}
