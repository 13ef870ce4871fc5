package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bigbag/motorlink/internal/device"
	"github.com/bigbag/motorlink/internal/serial"
)

func runSimulate(cmd *cobra.Command, args []string) error {
	if len(portsFlag) != 1 {
		return errors.New("simulate serves exactly one port")
	}

	dc := cfg.Device
	if arrayFlag >= 0 {
		dc.Array = arrayFlag
	}
	if motorsFlag > 0 {
		dc.Motors = motorsFlag
	}

	port, err := serial.Open(portsFlag[0], cfg.Serial.Baud)
	if err != nil {
		return err
	}
	defer port.Close()

	motors := device.NewSimMotors(dc.Motors, dc.TurnDuration, log)
	motors.Settle = dc.Settle

	dev := device.New(device.Config{
		Array:         dc.Array,
		Motors:        dc.Motors,
		FrameCapacity: dc.FrameCapacity,
		PollInterval:  dc.PollInterval,
	}, motors, port, log)

	if err := dev.Announce(); err != nil {
		return err
	}
	fmt.Printf("Array %d with %d motors serving %s at %d baud\n", dc.Array, dc.Motors, port.PortName(), port.BaudRate())

	err = dev.Run(cmd.Context(), port)
	log.Info("simulation stopped", zap.Ints("positions", motors.Positions()), zap.Error(err))
	return err
}
