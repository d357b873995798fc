package pca9685

import (
	"errors"
	"testing"
	"time"
)

func newTestDriver() (*Driver, *FakeBus) {
	bus := NewFakeBus()
	d := New(bus)
	d.sleep = func(time.Duration) {} // no real sleeping in tests
	return d, bus
}

func TestSetFrequencySequence(t *testing.T) {
	d, bus := newTestDriver()

	if err := d.SetFrequency(50); err != nil {
		t.Fatalf("SetFrequency(50): %v", err)
	}

	// 25MHz / (4096 * 50Hz) = 122.07 -> round = 122 -> prescale 121
	want := []RegWrite{
		{regMode1, mode1Sleep},
		{regPrescale, 121},
		{regMode1, mode1Wake},
		{regMode1, mode1Restart},
	}
	if len(bus.Writes) != len(want) {
		t.Fatalf("writes: got %d, want %d (%v)", len(bus.Writes), len(want), bus.Writes)
	}
	for i, w := range want {
		if bus.Writes[i] != w {
			t.Errorf("write %d: got {0x%02X, 0x%02X}, want {0x%02X, 0x%02X}",
				i, bus.Writes[i].Reg, bus.Writes[i].Value, w.Reg, w.Value)
		}
	}
}

func TestSetFrequencyPrescaleRounding(t *testing.T) {
	tests := []struct {
		hz       int
		prescale byte
	}{
		{50, 121},  // 122.07 rounds to 122
		{60, 101},  // 101.73 rounds to 102
		{100, 60},  // 61.04 rounds to 61
		{24, 253},  // 254.31 rounds to 254
		{1, 255},   // clamped to max
		{10000, 3}, // 0.61 rounds to 1, clamped to min
	}

	for _, tt := range tests {
		d, bus := newTestDriver()
		if err := d.SetFrequency(tt.hz); err != nil {
			t.Errorf("SetFrequency(%d): %v", tt.hz, err)
			continue
		}
		if got := bus.Regs[regPrescale]; got != tt.prescale {
			t.Errorf("SetFrequency(%d): prescale = %d, want %d", tt.hz, got, tt.prescale)
		}
	}
}

func TestSetFrequencyRejectsNonPositive(t *testing.T) {
	d, bus := newTestDriver()
	for _, hz := range []int{0, -50} {
		if err := d.SetFrequency(hz); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("SetFrequency(%d): got %v, want ErrInvalidArgument", hz, err)
		}
	}
	if len(bus.Writes) != 0 {
		t.Errorf("expected no register writes, got %v", bus.Writes)
	}
}

func TestSetPWMRegisterLayout(t *testing.T) {
	d, bus := newTestDriver()

	if err := d.SetPWM(0, 0, 0x133); err != nil {
		t.Fatalf("SetPWM(0): %v", err)
	}
	want := []RegWrite{
		{0x06, 0x00}, // LED0_ON_L
		{0x07, 0x00}, // LED0_ON_H
		{0x08, 0x33}, // LED0_OFF_L
		{0x09, 0x01}, // LED0_OFF_H
	}
	for i, w := range want {
		if bus.Writes[i] != w {
			t.Errorf("write %d: got {0x%02X, 0x%02X}, want {0x%02X, 0x%02X}",
				i, bus.Writes[i].Reg, bus.Writes[i].Value, w.Reg, w.Value)
		}
	}

	bus.Reset()
	if err := d.SetPWM(3, 0xABC, 0xFFF); err != nil {
		t.Fatalf("SetPWM(3): %v", err)
	}
	// Channel 3 base register: 0x06 + 4*3 = 0x12.
	want = []RegWrite{
		{0x12, 0xBC},
		{0x13, 0x0A},
		{0x14, 0xFF},
		{0x15, 0x0F},
	}
	for i, w := range want {
		if bus.Writes[i] != w {
			t.Errorf("channel 3 write %d: got {0x%02X, 0x%02X}, want {0x%02X, 0x%02X}",
				i, bus.Writes[i].Reg, bus.Writes[i].Value, w.Reg, w.Value)
		}
	}
}

func TestSetPWMRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name             string
		channel, on, off int
	}{
		{"negative channel", -1, 0, 100},
		{"channel too high", 16, 0, 100},
		{"negative on", 0, -1, 100},
		{"on too high", 0, 4096, 100},
		{"negative off", 0, 0, -1},
		{"off too high", 0, 0, 4096},
	}

	for _, tt := range tests {
		d, bus := newTestDriver()
		if err := d.SetPWM(tt.channel, tt.on, tt.off); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: got %v, want ErrInvalidArgument", tt.name, err)
		}
		if len(bus.Writes) != 0 {
			t.Errorf("%s: expected no register writes, got %v", tt.name, bus.Writes)
		}
	}
}

func TestBusErrorWraps(t *testing.T) {
	d, bus := newTestDriver()
	bus.WriteError = errors.New("i2c: no ack")

	if err := d.WriteReg(regMode1, 0); !errors.Is(err, ErrBus) {
		t.Errorf("WriteReg: got %v, want ErrBus", err)
	}
	if err := d.SetFrequency(50); !errors.Is(err, ErrBus) {
		t.Errorf("SetFrequency: got %v, want ErrBus", err)
	}
	if err := d.SetPWM(0, 0, 100); !errors.Is(err, ErrBus) {
		t.Errorf("SetPWM: got %v, want ErrBus", err)
	}
}

func TestMaxTickBoundaryAccepted(t *testing.T) {
	d, _ := newTestDriver()
	if err := d.SetPWM(15, 4095, 4095); err != nil {
		t.Errorf("SetPWM boundary values: %v", err)
	}
}
