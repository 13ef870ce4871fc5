package device

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bigbag/motorlink/internal/protocol"
)

// SimMotors is an in-memory motor bank. Each turn takes TurnDuration;
// after a move the motor ignores further input for Settle.
type SimMotors struct {
	TurnDuration time.Duration
	Settle       time.Duration

	positions []int
	log       *zap.Logger
}

// NewSimMotors creates n simulated motors at position 0.
func NewSimMotors(n int, turn time.Duration, log *zap.Logger) *SimMotors {
	if log == nil {
		log = zap.NewNop()
	}
	return &SimMotors{
		TurnDuration: turn,
		positions:    make([]int, n),
		log:          log,
	}
}

// Drive moves motor by cmd. Up lowers the position, Down raises it and Reset
// returns it to 0.
func (s *SimMotors) Drive(ctx context.Context, motor int, cmd *protocol.Command) error {
	if motor < 0 || motor >= len(s.positions) {
		return fmt.Errorf("no motor %d", motor)
	}

	if !cmd.Direction.Valid() {
		return fmt.Errorf("motor %d: unknown direction %v", motor, cmd.Direction)
	}

	turns := cmd.Turns
	if turns < 0 {
		turns = -turns
	}
	target := s.positions[motor]
	switch cmd.Direction {
	case protocol.Up:
		target -= turns
	case protocol.Down:
		target += turns
	case protocol.Reset:
		turns = target
		if turns < 0 {
			turns = -turns
		}
		target = 0
	default:
		return nil
	}

	d := time.Duration(turns) * s.TurnDuration
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	s.log.Debug("motor moved",
		zap.Int("motor", motor),
		zap.Stringer("direction", cmd.Direction),
		zap.Int("turns", turns),
		zap.Int("from", s.positions[motor]),
		zap.Int("to", target),
	)
	s.positions[motor] = target
	cmd.Elapsed = d
	cmd.IgnoreFor = s.Settle
	return nil
}

// Neutral implements Motors.
func (s *SimMotors) Neutral(motor int) error {
	if motor < 0 || motor >= len(s.positions) {
		return fmt.Errorf("no motor %d", motor)
	}
	return nil
}

// Positions returns a copy of every motor's position.
func (s *SimMotors) Positions() []int {
	return append([]int(nil), s.positions...)
}
