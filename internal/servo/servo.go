// Package servo positions a servo motor on one PWM channel by converting
// an angle in degrees to a 12-bit duty value.
package servo

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// ErrInvalidAngle is returned for angles outside 0-180 degrees.
var ErrInvalidAngle = errors.New("servo: angle out of range")

// Defaults for a standard hobby servo on channel 0.
const (
	DefaultChannel = 0
	DefaultMinUS   = 500
	DefaultMaxUS   = 2500
	DefaultFreqHz  = 50
	DefaultAngle   = 90
)

// PWM commands one channel of a PWM controller.
type PWM interface {
	SetPWM(channel, on, off int) error
}

// Servo converts angles to pulse widths for a single PWM channel.
type Servo struct {
	pwm     PWM
	channel int
	minUS   int
	maxUS   int
	freqHz  int

	mu    sync.Mutex
	angle float64
}

// New creates a Servo. minUS and maxUS are the pulse widths in microseconds
// for 0 and 180 degrees; freqHz is the PWM frequency.
func New(pwm PWM, channel, minUS, maxUS, freqHz int) (*Servo, error) {
	if minUS <= 0 || minUS >= maxUS {
		return nil, fmt.Errorf("servo: invalid pulse bounds %d-%dus", minUS, maxUS)
	}
	if freqHz <= 0 {
		return nil, fmt.Errorf("servo: invalid frequency %d Hz", freqHz)
	}
	return &Servo{
		pwm:     pwm,
		channel: channel,
		minUS:   minUS,
		maxUS:   maxUS,
		freqHz:  freqHz,
		angle:   DefaultAngle,
	}, nil
}

// SetAngle positions the servo. Angles outside 0-180 are rejected, never
// clamped, so callers get the same error the HTTP API documents.
func (s *Servo) SetAngle(angle float64) error {
	if math.IsNaN(angle) || angle < 0 || angle > 180 {
		return fmt.Errorf("%w: %v (valid 0-180)", ErrInvalidAngle, angle)
	}

	if err := s.pwm.SetPWM(s.channel, 0, s.Duty(angle)); err != nil {
		return fmt.Errorf("set angle %v: %w", angle, err)
	}

	s.mu.Lock()
	s.angle = angle
	s.mu.Unlock()
	return nil
}

// Angle returns the last commanded angle (DefaultAngle before any command).
func (s *Servo) Angle() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angle
}

// Duty converts an angle to the off tick for the PWM channel. All divisions
// truncate, matching the servo calibration table: at 50Hz with 500-2500us
// pulses, 0 degrees is 102 ticks, 90 is 307, 180 is 512.
func (s *Servo) Duty(angle float64) int {
	periodUS := 1000000 / s.freqHz
	minDuty := s.minUS * 4096 / periodUS
	maxDuty := s.maxUS * 4096 / periodUS
	return minDuty + int(angle/180*float64(maxDuty-minDuty))
}
