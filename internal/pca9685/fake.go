package pca9685

// RegWrite is a single recorded register write.
type RegWrite struct {
	Reg   byte
	Value byte
}

// FakeBus records register writes for test assertions.
type FakeBus struct {
	// Writes contains every register write, in order.
	Writes []RegWrite

	// Regs holds the last value written to each register.
	Regs map[byte]byte

	// WriteError, if set, will be returned by WriteReg.
	WriteError error
}

// NewFakeBus creates a FakeBus.
func NewFakeBus() *FakeBus {
	return &FakeBus{Regs: make(map[byte]byte)}
}

// WriteReg records the write.
func (f *FakeBus) WriteReg(reg, value byte) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, RegWrite{Reg: reg, Value: value})
	f.Regs[reg] = value
	return nil
}

// Reset clears recorded writes.
func (f *FakeBus) Reset() {
	f.Writes = nil
	f.Regs = make(map[byte]byte)
	f.WriteError = nil
}
