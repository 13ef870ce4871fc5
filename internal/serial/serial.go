package serial

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"go.bug.st/serial"
)

const (
	defaultReadTimeout = 100 * time.Millisecond
	pollTimeout        = 5 * time.Millisecond
)

// Port wraps a serial port connected to a motor array.
type Port struct {
	port     serial.Port
	portName string
	baudRate int
	pending  []byte
	chunk    []byte
}

// Open opens a serial port with the specified baud rate.
func Open(portName string, baudRate int) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", portName, err)
	}

	// Set read timeout
	if err := port.SetReadTimeout(defaultReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return &Port{
		port:     port,
		portName: portName,
		baudRate: baudRate,
		chunk:    make([]byte, 256),
	}, nil
}

// Close closes the serial port.
func (p *Port) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Write writes data to the serial port.
func (p *Port) Write(data []byte) (int, error) {
	return p.port.Write(data)
}

// Read reads data from the serial port, returning bytes already pulled in by
// Len first. A read that times out returns 0, nil.
func (p *Port) Read(buf []byte) (int, error) {
	if len(p.pending) > 0 {
		n := copy(buf, p.pending)
		p.pending = p.pending[n:]
		return n, nil
	}
	return p.port.Read(buf)
}

// ReadWithTimeout reads data with a specific timeout.
func (p *Port) ReadWithTimeout(buf []byte, timeout time.Duration) (int, error) {
	if len(p.pending) > 0 {
		return p.Read(buf)
	}
	if err := p.port.SetReadTimeout(timeout); err != nil {
		return 0, err
	}
	defer p.port.SetReadTimeout(defaultReadTimeout)

	return p.port.Read(buf)
}

// Len reports how many received bytes can be read without blocking. When
// nothing is buffered it waits at most a few milliseconds for new input.
func (p *Port) Len() int {
	if len(p.pending) == 0 {
		n, err := p.ReadWithTimeout(p.chunk, pollTimeout)
		if err == nil && n > 0 {
			p.pending = append(p.pending, p.chunk[:n]...)
		}
	}
	return len(p.pending)
}

// ReadByte returns the next received byte, or io.EOF when none is buffered.
func (p *Port) ReadByte() (byte, error) {
	if len(p.pending) == 0 && p.Len() == 0 {
		return 0, io.EOF
	}
	b := p.pending[0]
	p.pending = p.pending[1:]
	return b, nil
}

// Flush discards any buffered data.
func (p *Port) Flush() error {
	p.pending = nil
	return p.port.ResetInputBuffer()
}

// SetDTR sets the DTR signal.
func (p *Port) SetDTR(value bool) error {
	return p.port.SetDTR(value)
}

// ResetBoard pulses DTR, which restarts boards wired for auto-reset, and
// drops whatever the board sent before the reset.
func (p *Port) ResetBoard() error {
	if err := p.SetDTR(false); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	if err := p.SetDTR(true); err != nil {
		return err
	}

	// Flush any garbage from reset
	return p.Flush()
}

// PortName returns the port name.
func (p *Port) PortName() string {
	return p.portName
}

// BaudRate returns the current baud rate.
func (p *Port) BaudRate() int {
	return p.baudRate
}

// ListPorts returns a list of available serial ports.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	return ports, nil
}

// Glob returns the device paths matching pattern, sorted.
func Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad port pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}
