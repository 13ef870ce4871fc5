package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigbag/motorlink/internal/protocol"
)

func TestSimMotors_Drive(t *testing.T) {
	m := NewSimMotors(2, 0, nil)
	ctx := context.Background()

	require.NoError(t, m.Drive(ctx, 0, &protocol.Command{Direction: protocol.Down, Turns: 5}))
	require.NoError(t, m.Drive(ctx, 1, &protocol.Command{Direction: protocol.Up, Turns: 2}))
	assert.Equal(t, []int{5, -2}, m.Positions())

	require.NoError(t, m.Drive(ctx, 0, &protocol.Command{Direction: protocol.Up, Turns: 3}))
	require.NoError(t, m.Drive(ctx, 1, &protocol.Command{Direction: protocol.None, Turns: 9}))
	assert.Equal(t, []int{2, -2}, m.Positions())

	require.NoError(t, m.Drive(ctx, 1, &protocol.Command{Direction: protocol.Reset}))
	assert.Equal(t, []int{2, 0}, m.Positions())
}

func TestSimMotors_Timing(t *testing.T) {
	m := NewSimMotors(1, time.Millisecond, nil)
	m.Settle = 10 * time.Millisecond

	cmd := &protocol.Command{Direction: protocol.Down, Turns: 3}
	require.NoError(t, m.Drive(context.Background(), 0, cmd))
	assert.Equal(t, 3*time.Millisecond, cmd.Elapsed)
	assert.Equal(t, 10*time.Millisecond, cmd.IgnoreFor)
}

func TestSimMotors_Cancelled(t *testing.T) {
	m := NewSimMotors(1, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Drive(ctx, 0, &protocol.Command{Direction: protocol.Up, Turns: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{0}, m.Positions())
}

func TestSimMotors_UnknownMotor(t *testing.T) {
	m := NewSimMotors(1, 0, nil)
	assert.Error(t, m.Drive(context.Background(), 3, &protocol.Command{Direction: protocol.Up}))
	assert.Error(t, m.Neutral(-1))
	assert.NoError(t, m.Neutral(0))
}

func TestSimMotors_UnknownDirection(t *testing.T) {
	m := NewSimMotors(1, 0, nil)
	err := m.Drive(context.Background(), 0, &protocol.Command{Direction: protocol.Direction(7), Turns: 2})
	assert.Error(t, err)
	assert.Equal(t, []int{0}, m.Positions())
}
