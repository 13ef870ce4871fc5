package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bigbag/motorlink/internal/detect"
	"github.com/bigbag/motorlink/internal/protocol"
	"github.com/bigbag/motorlink/internal/state"
)

// ErrTooManyPayloads is returned when more payloads than arrays are given.
var ErrTooManyPayloads = errors.New("more commands than connected arrays")

// Options bounds how long the controller waits on arrays.
type Options struct {
	ConnectTimeout time.Duration
	ExecuteTimeout time.Duration
}

// Result is the outcome of one array's job.
type Result struct {
	Port    string
	Array   int
	Payload string
	Reply   protocol.Reply
	Err     error
}

// ProgressCallback is called as each array finishes. Calls never overlap.
type ProgressCallback func(r Result)

// Controller drives every connected array.
type Controller struct {
	links    []*Link
	opts     Options
	log      *zap.Logger
	progress ProgressCallback
}

// New creates a controller over links.
func New(links []*Link, opts Options, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{links: links, opts: opts, log: log}
}

// SetProgressCallback sets the progress callback function.
func (c *Controller) SetProgressCallback(cb ProgressCallback) {
	c.progress = cb
}

// Links returns the controller's links in connection order.
func (c *Controller) Links() []*Link {
	return c.links
}

// Arrays returns what each link announced, in connection order.
func (c *Controller) Arrays() []protocol.ReadyInfo {
	infos := make([]protocol.ReadyInfo, len(c.links))
	for i, l := range c.links {
		infos[i] = l.Info()
	}
	return infos
}

// Connect waits for every array's ready announcement, then lints the
// announced numbers against limits.
func (c *Controller) Connect(ctx context.Context, limits state.Limits) error {
	g, ctx := errgroup.WithContext(ctx)
	for i, l := range c.links {
		g.Go(func() error {
			ctx, cancel := withTimeout(ctx, c.opts.ConnectTimeout)
			defer cancel()

			if _, err := l.WaitReady(ctx); err != nil {
				return fmt.Errorf("serial port %d %s: %w", i, l.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return detect.LintArrays(c.Arrays(), limits)
}

// Run sends payloads[i] to the i-th array concurrently and waits for every
// reply. A failing array does not stop the others; its error is recorded in
// its Result. The returned error is set only when ctx itself ended.
func (c *Controller) Run(ctx context.Context, payloads []string) ([]Result, error) {
	if len(payloads) > len(c.links) {
		return nil, fmt.Errorf("%w: %d commands, %d arrays", ErrTooManyPayloads, len(payloads), len(c.links))
	}

	results := make([]Result, len(payloads))
	var mu sync.Mutex
	var g errgroup.Group

	for i, payload := range payloads {
		l := c.links[i]
		g.Go(func() error {
			execCtx, cancel := withTimeout(ctx, c.opts.ExecuteTimeout)
			defer cancel()

			c.log.Info("sending", zap.Int("array", l.Info().Array), zap.String("payload", payload))
			reply, err := l.Execute(execCtx, payload)
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("execution failed: %w", err)
			}

			r := Result{Port: l.Name(), Array: l.Info().Array, Payload: payload, Reply: reply, Err: err}
			results[i] = r

			mu.Lock()
			defer mu.Unlock()
			if c.progress != nil {
				c.progress(r)
			}
			// Per-array timeouts stay in the Result; only the caller's ctx fails the run.
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("run interrupted: %w", err)
	}

	return results, nil
}

// Close closes every link's connection that can be closed.
func (c *Controller) Close() error {
	var errs []error
	for _, l := range c.links {
		if cl, ok := l.conn.(interface{ Close() error }); ok {
			if err := cl.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", l.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
