package detect

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bigbag/motorlink/internal/protocol"
	"github.com/bigbag/motorlink/internal/serial"
	"github.com/bigbag/motorlink/internal/state"
)

var (
	// ErrNoArrays is returned when no device matches the port pattern.
	ErrNoArrays = errors.New("no arrays found")
	// ErrTooManyArrays is returned when more devices match than are allowed.
	ErrTooManyArrays = errors.New("number of arrays found greater than max number of arrays")
)

// FrameReader reads one complete frame payload.
type FrameReader interface {
	ReadFrame(ctx context.Context) (string, error)
}

// FindArrays lists the device paths matching pattern, assuming every match
// is an array.
func FindArrays(pattern string, maxArrays int) ([]string, error) {
	ports, err := serial.Glob(pattern)
	if err != nil {
		return nil, err
	}

	if len(ports) == 0 {
		return nil, fmt.Errorf("%w at %s", ErrNoArrays, pattern)
	}
	if len(ports) > maxArrays {
		return nil, fmt.Errorf("%w: found %d, max %d", ErrTooManyArrays, len(ports), maxArrays)
	}
	return ports, nil
}

// OpenArrays opens every port, pulsing DTR first when reset is set.
// On failure the ports opened so far are closed.
func OpenArrays(ports []string, baudRate int, reset bool, log *zap.Logger) ([]*serial.Port, error) {
	if log == nil {
		log = zap.NewNop()
	}

	opened := make([]*serial.Port, 0, len(ports))
	closeAll := func() {
		for _, p := range opened {
			p.Close()
		}
	}

	for i, name := range ports {
		port, err := serial.Open(name, baudRate)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("serial port %d: %w", i, err)
		}
		opened = append(opened, port)

		if reset {
			if err := port.ResetBoard(); err != nil {
				closeAll()
				return nil, fmt.Errorf("failed to reset %s: %w", name, err)
			}
		}
		log.Info("serial port ready", zap.Int("index", i), zap.String("port", name), zap.Int("baud", baudRate))
	}
	return opened, nil
}

// WaitReady reads frames until the device announces itself, discarding
// anything left over from before its reset.
func WaitReady(ctx context.Context, r FrameReader) (protocol.ReadyInfo, error) {
	for {
		msg, err := r.ReadFrame(ctx)
		if err != nil {
			return protocol.ReadyInfo{}, fmt.Errorf("waiting for ready message: %w", err)
		}

		info, err := protocol.ParseReady(msg)
		if errors.Is(err, protocol.ErrNotReady) {
			continue
		}
		return info, err
	}
}

// LintArrays checks the announced array numbers are unique and in
// [0, MaxArrays), and motor counts are in [1, MaxMotors].
func LintArrays(infos []protocol.ReadyInfo, limits state.Limits) error {
	seen := make(map[int]bool, len(infos))
	for _, info := range infos {
		if seen[info.Array] {
			return fmt.Errorf("array numbers failed: duplicate array %d", info.Array)
		}
		seen[info.Array] = true
	}

	for _, info := range infos {
		if info.Array < 0 || info.Array >= limits.MaxArrays {
			return fmt.Errorf("array numbers failed: array %d out of range or too many arrays connected", info.Array)
		}
	}

	for _, info := range infos {
		if info.Motors < 1 || info.Motors > limits.MaxMotors {
			return fmt.Errorf("motor numbers failed: array %d has %d motors, want 1..%d", info.Array, info.Motors, limits.MaxMotors)
		}
	}
	return nil
}
