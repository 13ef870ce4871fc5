package protocol

import (
	"fmt"
	"time"
)

// Direction is the instruction for a single motor.
type Direction int

// Direction codes as sent to the motor driver.
const (
	None  Direction = 0
	Up    Direction = 1
	Down  Direction = 2
	Reset Direction = 3
)

// Wire words for each direction. Matching is case-sensitive.
const (
	WordNone  = "None"
	WordUp    = "Up"
	WordDown  = "Down"
	WordReset = "Reset"
)

// String returns the wire word for the direction.
func (d Direction) String() string {
	switch d {
	case None:
		return WordNone
	case Up:
		return WordUp
	case Down:
		return WordDown
	case Reset:
		return WordReset
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Valid reports whether d is one of the four known directions.
func (d Direction) Valid() bool {
	return d >= None && d <= Reset
}

// ParseDirection maps a wire word to its direction.
func ParseDirection(word string) (Direction, bool) {
	switch word {
	case WordNone:
		return None, true
	case WordUp:
		return Up, true
	case WordDown:
		return Down, true
	case WordReset:
		return Reset, true
	default:
		return None, false
	}
}

// Command is one motor's entry in the command table.
type Command struct {
	Direction Direction
	// Turns is carried on the wire within ±MaxMagnitude; Encode clamps
	// larger values.
	Turns int

	// Elapsed and IgnoreFor are owned by the motor driver while a job runs
	// and cleared when the job completes. They are not part of the wire format.
	Elapsed   time.Duration
	IgnoreFor time.Duration
}

// Table holds one command per motor, indexed by motor number.
type Table []Command

// NewTable creates a table for n motors, all set to None.
func NewTable(n int) Table {
	if n < 0 {
		n = 0
	}
	return make(Table, n)
}

// ResetTimers clears the per-job timing fields of every entry.
func (t Table) ResetTimers() {
	for i := range t {
		t[i].Elapsed = 0
		t[i].IgnoreFor = 0
	}
}

// Equal reports whether both tables carry the same directions and turns.
func (t Table) Equal(other Table) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i].Direction != other[i].Direction || t[i].Turns != other[i].Turns {
			return false
		}
	}
	return true
}
