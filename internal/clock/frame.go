package clock

// Frame is what the engine hands to the display driver: a four-digit value
// (hour*100 + minute), the colon state, and whether there is anything
// trustworthy to show at all.
type Frame struct {
	// Value is displayHour*100 + minute: 0..2359 in 24-hour mode, 100..1259
	// in 12-hour mode.
	Value int

	// ColonOn blinks the colon at 1 Hz: on during even seconds.
	ColonOn bool

	// NoSignal marks the degraded no-fix state. Value is meaningless and
	// the driver renders its no-signal pattern instead.
	NoSignal bool
}

// MakeFrame formats a composed local time for the display.
func MakeFrame(displayHour, minute, second int) Frame {
	return Frame{
		Value:   displayHour*100 + minute,
		ColonOn: second%2 == 0,
	}
}

// NoSignalFrame is shown while no valid fix is available.
func NoSignalFrame() Frame { return Frame{NoSignal: true} }
