package protocol

import (
	"testing"
	"time"
)

func TestParseDirection_Known(t *testing.T) {
	tests := []struct {
		word     string
		expected Direction
	}{
		{"None", None},
		{"Up", Up},
		{"Down", Down},
		{"Reset", Reset},
	}

	for _, tc := range tests {
		d, ok := ParseDirection(tc.word)
		if !ok || d != tc.expected {
			t.Errorf("ParseDirection(%q) = %v, %v, want %v, true", tc.word, d, ok, tc.expected)
		}
		if d.String() != tc.word {
			t.Errorf("%v.String() = %q, want %q", d, d.String(), tc.word)
		}
	}
}

func TestParseDirection_Unknown(t *testing.T) {
	unknown := []string{"", "up", "UP", "down", "Sideways", "Up ", " Up", "5"}
	for _, word := range unknown {
		if _, ok := ParseDirection(word); ok {
			t.Errorf("ParseDirection(%q) ok = true, want false", word)
		}
	}
}

func TestDirection_Codes(t *testing.T) {
	codes := map[Direction]int{None: 0, Up: 1, Down: 2, Reset: 3}
	for d, code := range codes {
		if int(d) != code {
			t.Errorf("%v = %d, want %d", d, int(d), code)
		}
		if !d.Valid() {
			t.Errorf("%v.Valid() = false, want true", d)
		}
	}
	if Direction(4).Valid() || Direction(-1).Valid() {
		t.Error("out of range directions reported valid")
	}
	if got := Direction(7).String(); got != "Direction(7)" {
		t.Errorf("Direction(7).String() = %q, want %q", got, "Direction(7)")
	}
}

func TestNewTable(t *testing.T) {
	table := NewTable(3)
	if len(table) != 3 {
		t.Fatalf("NewTable(3) length = %d, want 3", len(table))
	}
	for i, cmd := range table {
		if cmd.Direction != None || cmd.Turns != 0 {
			t.Errorf("NewTable(3)[%d] = %+v, want zero command", i, cmd)
		}
	}
	if len(NewTable(-1)) != 0 {
		t.Error("NewTable(-1) should be empty")
	}
}

func TestTable_ResetTimers(t *testing.T) {
	table := Table{
		{Direction: Up, Turns: 2, Elapsed: time.Second, IgnoreFor: time.Minute},
		{Direction: Down, Turns: 1, Elapsed: 3 * time.Second},
	}
	table.ResetTimers()

	for i, cmd := range table {
		if cmd.Elapsed != 0 || cmd.IgnoreFor != 0 {
			t.Errorf("table[%d] timers = %v, %v, want 0, 0", i, cmd.Elapsed, cmd.IgnoreFor)
		}
	}
	if table[0].Direction != Up || table[0].Turns != 2 {
		t.Errorf("ResetTimers changed command to %+v", table[0])
	}
}
