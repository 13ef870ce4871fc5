package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bigbag/motorlink/internal/detect"
	"github.com/bigbag/motorlink/internal/host"
)

func stateFiles() host.StateFiles {
	return host.StateFiles{Desired: cfg.State.Desired, Current: cfg.State.Current}
}

// connect opens every array port and waits for each array to announce itself.
func connect(ctx context.Context) (*host.Controller, error) {
	ports := portsFlag
	if len(ports) == 0 {
		var err error
		ports, err = detect.FindArrays(cfg.Serial.Pattern, cfg.Limits.MaxArrays)
		if err != nil {
			return nil, err
		}
	} else if len(ports) > cfg.Limits.MaxArrays {
		return nil, fmt.Errorf("%w: %d ports, max %d", detect.ErrTooManyArrays, len(ports), cfg.Limits.MaxArrays)
	}
	fmt.Printf("Found %d array(s) of max %d\n", len(ports), cfg.Limits.MaxArrays)

	opened, err := detect.OpenArrays(ports, cfg.Serial.Baud, cfg.Serial.ResetOnOpen, log)
	if err != nil {
		return nil, err
	}

	links := make([]*host.Link, len(opened))
	for i, p := range opened {
		links[i] = host.NewLink(p.PortName(), p, log)
	}
	c := host.New(links, host.Options{
		ConnectTimeout: cfg.Timeouts.Connect,
		ExecuteTimeout: cfg.Timeouts.Execute,
	}, log)

	fmt.Println("Waiting for arrays...")
	if err := c.Connect(ctx, cfg.StateLimits()); err != nil {
		c.Close()
		return nil, err
	}

	for _, l := range c.Links() {
		info := l.Info()
		fmt.Printf("  %s: array %d, %d motors\n", l.Name(), info.Array, info.Motors)
	}
	return c, nil
}

// track shows a progress bar that advances as each array reports back.
func track(c *host.Controller) *progressbar.ProgressBar {
	bar := progressbar.NewOptions(len(c.Links()),
		progressbar.OptionSetDescription("Executing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)
	c.SetProgressCallback(func(r host.Result) {
		bar.Add(1)
	})
	return bar
}

func printResults(results []host.Result) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("  array %d (%s): %v\n", r.Array, r.Port, r.Err)
			continue
		}
		fmt.Printf("  array %d (%s): <%s> %s\n", r.Array, r.Port, r.Payload, r.Reply.Status)
	}
}

type job func(ctx context.Context, c *host.Controller) ([]host.Result, error)

func execute(ctx context.Context, c *host.Controller, name string, fn job) error {
	bar := track(c)
	results, err := fn(ctx, c)
	bar.Finish()

	printResults(results)
	if err != nil {
		fmt.Printf("%s failed: %v\n", name, err)
		return err
	}
	if failed := host.Failed(results); len(failed) > 0 {
		fmt.Printf("%s failed on %d array(s)\n", name, len(failed))
		return fmt.Errorf("%s failed on %d array(s)", name, len(failed))
	}
	fmt.Printf("%s complete!\n", name)
	return nil
}

func applyJob(ctx context.Context, c *host.Controller) ([]host.Result, error) {
	return c.Apply(ctx, stateFiles(), cfg.StateLimits())
}

func resetJob(ctx context.Context, c *host.Controller) ([]host.Result, error) {
	return c.Reset(ctx, stateFiles(), cfg.StateLimits(), cfg.Limits.ResetTurns)
}

func manualJob(text string) job {
	return func(ctx context.Context, c *host.Controller) ([]host.Result, error) {
		return c.Manual(ctx, text)
	}
}

func withArrays(cmd *cobra.Command, name string, fn job) error {
	ctx := cmd.Context()
	c, err := connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	return execute(ctx, c, name, fn)
}

func runApply(cmd *cobra.Command, args []string) error {
	return withArrays(cmd, "Apply", applyJob)
}

func runReset(cmd *cobra.Command, args []string) error {
	return withArrays(cmd, "Reset", resetJob)
}

func runSend(cmd *cobra.Command, args []string) error {
	return withArrays(cmd, "Send", manualJob(args[0]))
}

const shellPrompt = "Enter 1 to apply the desired state, 2 to reset, 3 for manual input or exit to quit: "

func runShell(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	in := bufio.NewScanner(os.Stdin)
	prompt := func(text string) (string, bool) {
		fmt.Print(text)
		if !in.Scan() {
			return "", false
		}
		return strings.TrimSpace(in.Text()), true
	}

	for {
		choice, ok := prompt(shellPrompt)
		if !ok {
			return in.Err()
		}

		switch strings.ToLower(choice) {
		case "1":
			err = execute(ctx, c, "Apply", applyJob)
		case "2":
			err = execute(ctx, c, "Reset", resetJob)
		case "3":
			text, ok := prompt("Frames (e.g. <Up,1>;<Down,2>): ")
			if !ok {
				return in.Err()
			}
			err = execute(ctx, c, "Send", manualJob(text))
		case "exit", "quit", "q":
			fmt.Println("Goodbye!")
			return nil
		case "":
			continue
		default:
			fmt.Printf("Unknown choice %q\n", choice)
			continue
		}

		if errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			log.Warn("command failed", zap.String("choice", choice), zap.Error(err))
		}
	}
}
