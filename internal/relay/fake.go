package relay

// FakeLine is a test double that records every value driven onto the line.
type FakeLine struct {
	// Values contains each value passed to SetValue, in order.
	Values []int

	// SetError, if set, will be returned by SetValue.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeLine creates a FakeLine.
func NewFakeLine() *FakeLine {
	return &FakeLine{}
}

// FakeLines creates n fake lines and returns them both concretely (for
// assertions) and as the Line slice NewBank expects.
func FakeLines(n int) ([]*FakeLine, []Line) {
	fakes := make([]*FakeLine, n)
	lines := make([]Line, n)
	for i := range fakes {
		fakes[i] = NewFakeLine()
		lines[i] = fakes[i]
	}
	return fakes, lines
}

// SetValue records the driven value.
func (f *FakeLine) SetValue(value int) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Values = append(f.Values, value)
	return nil
}

// Value returns the last driven value, or -1 if the line was never driven.
func (f *FakeLine) Value() int {
	if len(f.Values) == 0 {
		return -1
	}
	return f.Values[len(f.Values)-1]
}

// Close marks the line as closed.
func (f *FakeLine) Close() error {
	f.Closed = true
	return nil
}
