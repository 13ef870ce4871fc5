package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/bigbag/motorlink/internal/frame"
	"github.com/bigbag/motorlink/internal/protocol"
)

const lineEnding = "\r\n"

// Motors drives the motor bank of one array.
type Motors interface {
	// Drive runs cmd on motor and may record its timing fields.
	Drive(ctx context.Context, motor int, cmd *protocol.Command) error
	// Neutral puts motor back into its idle state.
	Neutral(motor int) error
}

// JobHook runs after every motor finished a job.
type JobHook func(table protocol.Table)

// Config describes the array a Device runs.
type Config struct {
	Array         int
	Motors        int
	FrameCapacity int
	PollInterval  time.Duration
}

// Device is the control loop of an array: it receives command frames,
// decodes them into its command table, drives the motors and reports back.
type Device struct {
	cfg     Config
	rx      *frame.Receiver
	table   protocol.Table
	motors  Motors
	out     io.Writer
	jobDone JobHook
	log     *zap.Logger
}

// New creates a Device writing its reports to out.
func New(cfg Config, motors Motors, out io.Writer, log *zap.Logger) *Device {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.FrameCapacity == 0 {
		cfg.FrameCapacity = frame.DefaultCapacity
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Millisecond
	}
	log = log.With(zap.Int("array", cfg.Array))

	return &Device{
		cfg:     cfg,
		rx:      frame.NewReceiver(cfg.FrameCapacity, frame.WithLogger(log)),
		table:   protocol.NewTable(cfg.Motors),
		motors:  motors,
		out:     out,
		jobDone: protocol.Table.ResetTimers,
		log:     log,
	}
}

// SetJobHook replaces the hook run after each completed job.
// The default clears the table's timing fields.
func (d *Device) SetJobHook(hook JobHook) {
	d.jobDone = hook
}

// Table returns the device's command table.
func (d *Device) Table() protocol.Table {
	return d.table
}

// Announce tells the host the device is listening.
func (d *Device) Announce() error {
	msg := protocol.ReadyMessage(d.cfg.Array, d.cfg.Motors)
	d.log.Info("announcing", zap.String("message", msg))
	return d.write(string(frame.Encode(msg)))
}

// Step polls src once and handles a frame if one completed.
// Returns whether a frame was handled.
func (d *Device) Step(ctx context.Context, src frame.Source) (bool, error) {
	ready, err := d.rx.Poll(src)
	if err != nil {
		return false, fmt.Errorf("failed to read input: %w", err)
	}
	if !ready {
		return false, nil
	}
	defer d.rx.Release()

	payload := d.rx.Frame()
	if err := d.write(string(frame.Start) + protocol.Echo(payload) + lineEnding); err != nil {
		return true, err
	}

	if err := protocol.Decode(payload, d.table); err != nil {
		d.log.Warn("rejected frame", zap.Error(err))
		return true, d.write(protocol.InvalidInputMessage + lineEnding + string(frame.End))
	}

	if err := d.runJob(ctx); err != nil {
		d.log.Error("job failed", zap.Error(err))
		if werr := d.write(protocol.JobFailedMessage + lineEnding + string(frame.End)); werr != nil {
			return true, werr
		}
		// Only shutdown ends the loop; a failed job is reported and the next frame is read.
		return true, ctx.Err()
	}
	return true, d.write(protocol.FinishedMessage + lineEnding + string(frame.End))
}

// Run polls src until ctx is cancelled.
func (d *Device) Run(ctx context.Context, src frame.Source) error {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := d.Step(ctx, src); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *Device) runJob(ctx context.Context) error {
	d.log.Info("job started", zap.String("commands", protocol.Encode(d.table)))

	var errs []error
	for i := range d.table {
		if err := d.motors.Drive(ctx, i, &d.table[i]); err != nil {
			return fmt.Errorf("motor %d: %w", i, err)
		}
	}
	for i := range d.table {
		if err := d.motors.Neutral(i); err != nil {
			errs = append(errs, fmt.Errorf("motor %d neutral: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if d.jobDone != nil {
		d.jobDone(d.table)
	}
	d.log.Info("job finished")
	return nil
}

func (d *Device) write(s string) error {
	if _, err := io.WriteString(d.out, s); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
