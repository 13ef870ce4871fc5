package host

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bigbag/motorlink/internal/state"
)

// StateFiles names the CSV files holding desired and current positions.
type StateFiles struct {
	Desired string
	Current string
}

func (c *Controller) prepareState(files StateFiles, limits state.Limits) error {
	for _, path := range []string{files.Desired, files.Current} {
		if err := state.Check(path); err != nil {
			return err
		}
	}
	for _, path := range []string{files.Desired, files.Current} {
		if _, err := state.Lint(path, limits); err != nil {
			return err
		}
		c.log.Info("linted", zap.String("file", path))
	}
	return nil
}

// Apply moves every array from the current state to the desired state.
// When every array finished, the desired state becomes the current one.
func (c *Controller) Apply(ctx context.Context, files StateFiles, limits state.Limits) ([]Result, error) {
	if err := c.prepareState(files, limits); err != nil {
		return nil, err
	}

	desired, err := state.Load(files.Desired)
	if err != nil {
		return nil, err
	}
	current, err := state.Load(files.Current)
	if err != nil {
		return nil, err
	}

	payloads, err := state.Plan(desired, current, c.Arrays())
	if err != nil {
		return nil, err
	}

	results, err := c.Run(ctx, payloads)
	if err != nil {
		return nil, err
	}
	if failed := Failed(results); len(failed) > 0 {
		return results, fmt.Errorf("%d of %d arrays failed, current state left unchanged", len(failed), len(results))
	}

	if err := state.Copy(files.Desired, files.Current); err != nil {
		return results, err
	}
	return results, nil
}

// Reset zeroes the current state and raises every motor by turns.
func (c *Controller) Reset(ctx context.Context, files StateFiles, limits state.Limits, turns int) ([]Result, error) {
	if err := c.prepareState(files, limits); err != nil {
		return nil, err
	}
	if err := state.Save(files.Current, state.Zero(limits)); err != nil {
		return nil, err
	}

	return c.Run(ctx, state.ResetPlan(c.Arrays(), turns))
}

// Manual sends hand-typed frames such as "<Up,1>;<Up,1>" unchecked,
// one per array in connection order.
func (c *Controller) Manual(ctx context.Context, text string) ([]Result, error) {
	return c.Run(ctx, state.SplitManual(text))
}
