package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bigbag/motorlink/internal/config"
	"github.com/bigbag/motorlink/internal/logging"
	"github.com/bigbag/motorlink/internal/serial"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFlag   string
	logLevelFlag string
	portsFlag    []string
	baudFlag     int
	arrayFlag    int
	motorsFlag   int
)

var (
	cfg *config.Config
	log *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "motorlink",
		Short: "Drive motor arrays over serial links",
		Long: `motorlink sends motor commands to microcontroller arrays over serial
ports and waits for each array to report back.

Arrays are found by the serial.pattern glob (default /dev/ttyU*). Desired and
current motor positions live in two CSV files; apply moves every array from
the current state to the desired one.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				log.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")

	// Interactive shell
	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Connect to arrays and prompt for commands",
		RunE:  runShell,
	}

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Move arrays from the current state to the desired state",
		RunE:  runApply,
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Zero the current state and raise every motor",
		RunE:  runReset,
	}

	sendCmd := &cobra.Command{
		Use:   "send <frames>",
		Short: "Send frames such as '<Up,1>;<Up,1>' unchecked, one per array",
		Args:  cobra.ExactArgs(1),
		RunE:  runSend,
	}

	for _, c := range []*cobra.Command{shellCmd, applyCmd, resetCmd, sendCmd} {
		c.Flags().StringSliceVarP(&portsFlag, "port", "p", nil, "Serial ports (auto-detect if not specified)")
		c.Flags().IntVarP(&baudFlag, "baud", "b", 0, "Baud rate (default from config)")
	}

	// Simulated array
	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a simulated array on a serial port",
		Long: `Run the array side of the link on a serial port with simulated motors.

Pair it with a virtual serial line (for example socat) to exercise the host
commands without hardware.`,
		RunE: runSimulate,
	}
	simulateCmd.Flags().StringSliceVarP(&portsFlag, "port", "p", nil, "Serial port to serve")
	simulateCmd.Flags().IntVarP(&baudFlag, "baud", "b", 0, "Baud rate (default from config)")
	simulateCmd.Flags().IntVar(&arrayFlag, "array", -1, "Array number to announce (default from config)")
	simulateCmd.Flags().IntVar(&motorsFlag, "motors", 0, "Number of motors (default from config)")
	simulateCmd.MarkFlagRequired("port")

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("motorlink %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available serial ports",
		RunE:  runList,
	}

	rootCmd.AddCommand(shellCmd, applyCmd, resetCmd, sendCmd, simulateCmd, versionCmd, listCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configFlag)
	if err != nil {
		return err
	}

	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	if baudFlag > 0 {
		cfg.Serial.Baud = baudFlag
	}

	log = logging.New(cfg.Logging)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ports, err := serial.ListPorts()
	if err != nil {
		return err
	}

	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}

	fmt.Println("Available serial ports:")
	for _, p := range ports {
		fmt.Printf("  %s\n", p)
	}

	return nil
}
