package frame

import (
	"errors"
	"io"

	"go.uber.org/zap"
)

// Source is a byte stream that reports how many bytes can be read
// without blocking. *bytes.Reader, *bytes.Buffer and *strings.Reader
// satisfy it, as does the serial port wrapper.
type Source interface {
	io.ByteReader
	Len() int
}

// State is the receiver's position relative to frame markers.
type State int

const (
	// Idle discards bytes until a start marker arrives.
	Idle State = iota
	// InProgress accumulates bytes until an end marker arrives.
	InProgress
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InProgress:
		return "in-progress"
	default:
		return "unknown"
	}
}

// Receiver extracts marker-delimited frames from a byte stream.
//
// At most one completed frame is held at a time. Once a frame completes the
// receiver stops consuming input until Release is called, so a frame is never
// overwritten before it has been handled.
type Receiver struct {
	buf    []byte
	cursor int
	size   int
	state  State
	ready  bool
	log    *zap.Logger
}

// Option configures a Receiver.
type Option func(*Receiver)

// WithLogger sets the logger used for the diagnostic echo of completed frames.
func WithLogger(log *zap.Logger) Option {
	return func(r *Receiver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewReceiver creates a receiver whose buffer holds capacity bytes.
// A frame keeps at most capacity-1 payload bytes. Capacities below 2 are
// raised to 2.
func NewReceiver(capacity int, opts ...Option) *Receiver {
	if capacity < 2 {
		capacity = 2
	}
	r := &Receiver{
		buf: make([]byte, capacity),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Poll consumes the bytes src currently has available, stopping early when a
// frame completes. It does nothing while a completed frame is pending.
// Returns whether a frame is ready.
func (r *Receiver) Poll(src Source) (bool, error) {
	for !r.ready && src.Len() > 0 {
		b, err := src.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return r.ready, err
		}
		r.Feed(b)
	}
	return r.ready, nil
}

// Feed advances the receiver by one byte and reports whether a frame is
// ready. The byte is ignored while a completed frame is pending.
func (r *Receiver) Feed(b byte) bool {
	if r.ready {
		return true
	}

	switch r.state {
	case Idle:
		if b == Start {
			r.cursor = 0
			r.state = InProgress
		}
	case InProgress:
		if b == End {
			r.complete()
			break
		}
		r.buf[r.cursor] = b
		r.cursor++
		// Overflow overwrites the last slot, which complete() then cuts off.
		if r.cursor >= len(r.buf) {
			r.cursor = len(r.buf) - 1
		}
	}
	return r.ready
}

func (r *Receiver) complete() {
	r.size = r.cursor
	r.cursor = 0
	r.state = Idle
	r.ready = true
	r.log.Debug("frame received", zap.ByteString("payload", r.payload()))
}

func (r *Receiver) payload() []byte {
	return r.buf[:r.size]
}

// Ready reports whether a completed frame is waiting to be released.
func (r *Receiver) Ready() bool {
	return r.ready
}

// State returns the receiver's marker state.
func (r *Receiver) State() State {
	return r.state
}

// Frame returns the payload of the pending frame, or "" when none is ready.
func (r *Receiver) Frame() string {
	if !r.ready {
		return ""
	}
	return string(r.payload())
}

// Release hands the pending frame back so the receiver resumes reading.
func (r *Receiver) Release() {
	r.ready = false
	r.size = 0
}

// Capacity returns the buffer size the receiver was created with.
func (r *Receiver) Capacity() int {
	return len(r.buf)
}
