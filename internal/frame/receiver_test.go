package frame

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func feedAll(r *Receiver, data string) (frames []string) {
	for i := 0; i < len(data); i++ {
		if r.Feed(data[i]) {
			frames = append(frames, r.Frame())
			r.Release()
		}
	}
	return frames
}

func TestReceiver_SingleFrame(t *testing.T) {
	r := NewReceiver(DefaultCapacity)
	ready, err := r.Poll(strings.NewReader("<Up,5,Down,3>"))
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if !ready {
		t.Fatal("Poll() ready = false, want true")
	}
	if got := r.Frame(); got != "Up,5,Down,3" {
		t.Errorf("Frame() = %q, want %q", got, "Up,5,Down,3")
	}
	if r.State() != Idle {
		t.Errorf("State() = %v, want %v", r.State(), Idle)
	}
}

func TestReceiver_ByteAtATime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"plain", "<Up,1>", []string{"Up,1"}},
		{"leading garbage", "xyz>,<Up,1>", []string{"Up,1"}},
		{"two frames", "<Up,1>junk<Down,2>", []string{"Up,1", "Down,2"}},
		{"empty frame", "<>", []string{""}},
		{"nested start stored", "<a<b>", []string{"a<b"}},
		{"unterminated", "<Up,1", nil},
		{"no start", "Up,1>", nil},
	}

	for _, tc := range tests {
		r := NewReceiver(DefaultCapacity)
		frames := feedAll(r, tc.input)
		if len(frames) != len(tc.expected) {
			t.Errorf("%s: frames = %q, want %q", tc.name, frames, tc.expected)
			continue
		}
		for i := range frames {
			if frames[i] != tc.expected[i] {
				t.Errorf("%s: frame %d = %q, want %q", tc.name, i, frames[i], tc.expected[i])
			}
		}
	}
}

func TestReceiver_Backpressure(t *testing.T) {
	r := NewReceiver(DefaultCapacity)
	src := strings.NewReader("<Up,1><Down,2>")

	ready, err := r.Poll(src)
	if err != nil || !ready {
		t.Fatalf("Poll() = %v, %v, want true, nil", ready, err)
	}
	rest := src.Len()
	if rest != len("<Down,2>") {
		t.Fatalf("bytes left after first frame = %d, want %d", rest, len("<Down,2>"))
	}

	// Pending frame blocks further reads, however often we poll.
	for i := 0; i < 3; i++ {
		if _, err := r.Poll(src); err != nil {
			t.Fatalf("Poll() error = %v", err)
		}
	}
	if src.Len() != rest {
		t.Errorf("Poll() consumed %d bytes while frame pending", rest-src.Len())
	}
	if r.Frame() != "Up,1" {
		t.Errorf("Frame() = %q, want %q", r.Frame(), "Up,1")
	}
	if !r.Feed(Start) || r.Frame() != "Up,1" {
		t.Errorf("Feed() while pending changed frame to %q", r.Frame())
	}

	r.Release()
	ready, err = r.Poll(src)
	if err != nil || !ready {
		t.Fatalf("Poll() after Release = %v, %v, want true, nil", ready, err)
	}
	if r.Frame() != "Down,2" {
		t.Errorf("Frame() = %q, want %q", r.Frame(), "Down,2")
	}
}

func TestReceiver_PartialFrameAcrossPolls(t *testing.T) {
	r := NewReceiver(DefaultCapacity)
	var buf bytes.Buffer

	buf.WriteString("<Up,")
	if ready, _ := r.Poll(&buf); ready {
		t.Fatal("Poll() ready = true on partial frame")
	}
	if r.State() != InProgress {
		t.Errorf("State() = %v, want %v", r.State(), InProgress)
	}

	buf.WriteString("7>")
	if ready, _ := r.Poll(&buf); !ready {
		t.Fatal("Poll() ready = false after end marker")
	}
	if r.Frame() != "Up,7" {
		t.Errorf("Frame() = %q, want %q", r.Frame(), "Up,7")
	}
}

func TestReceiver_EmptySource(t *testing.T) {
	r := NewReceiver(DefaultCapacity)
	ready, err := r.Poll(strings.NewReader(""))
	if ready || err != nil {
		t.Errorf("Poll(empty) = %v, %v, want false, nil", ready, err)
	}
	if r.Frame() != "" {
		t.Errorf("Frame() with nothing pending = %q, want empty", r.Frame())
	}
}

func TestReceiver_OverflowClamps(t *testing.T) {
	tests := []struct {
		capacity int
		input    string
		expected string
	}{
		{4, "<abc>", "abc"},
		{4, "<abcd>", "abc"},
		{4, "<abcdefghij>", "abc"},
		{2, "<abc>", "a"},
		{8, "<Up,100,Down,100>", "Up,100,"},
	}

	for _, tc := range tests {
		r := NewReceiver(tc.capacity)
		frames := feedAll(r, tc.input)
		if len(frames) != 1 {
			t.Fatalf("cap %d %q: frames = %q, want one frame", tc.capacity, tc.input, frames)
		}
		if frames[0] != tc.expected {
			t.Errorf("cap %d %q: frame = %q, want %q", tc.capacity, tc.input, frames[0], tc.expected)
		}
		if len(frames[0]) > tc.capacity-1 {
			t.Errorf("cap %d: frame length %d exceeds %d", tc.capacity, len(frames[0]), tc.capacity-1)
		}
	}
}

func TestReceiver_OverflowThenNextFrame(t *testing.T) {
	r := NewReceiver(4)
	frames := feedAll(r, "<abcdef><xy>")
	if len(frames) != 2 || frames[0] != "abc" || frames[1] != "xy" {
		t.Errorf("frames = %q, want [abc xy]", frames)
	}
}

func TestReceiver_MinimumCapacity(t *testing.T) {
	r := NewReceiver(0)
	if r.Capacity() != 2 {
		t.Errorf("Capacity() = %d, want 2", r.Capacity())
	}
	frames := feedAll(r, "<abc>")
	if len(frames) != 1 || frames[0] != "a" {
		t.Errorf("frames = %q, want [a]", frames)
	}
}

type failingSource struct{}

var errBroken = errors.New("broken")

func (failingSource) Len() int                { return 1 }
func (failingSource) ReadByte() (byte, error) { return 0, errBroken }

func TestReceiver_SourceError(t *testing.T) {
	r := NewReceiver(DefaultCapacity, WithLogger(zaptest.NewLogger(t)))
	_, err := r.Poll(failingSource{})
	if !errors.Is(err, errBroken) {
		t.Errorf("Poll() error = %v, want %v", err, errBroken)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{Idle, "idle"},
		{InProgress, "in-progress"},
		{State(9), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.state.String(); got != tc.expected {
			t.Errorf("State(%d).String() = %q, want %q", tc.state, got, tc.expected)
		}
	}
}
