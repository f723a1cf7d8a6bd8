/*
Copyright 2024 SerialLink Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"

	"github.com/Shoaibashk/serialmon/config"
	"github.com/Shoaibashk/serialmon/internal/metrics"
	"github.com/Shoaibashk/serialmon/internal/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// opener is swapped out by tests
var opener monitor.Opener

func newMonitorCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	monitorCmd := &cobra.Command{
		Use:   "monitor [DEVICE]",
		Short: "Print lines from a serial device for a fixed duration",
		Long: `Open a serial device, print every line it sends to standard output and
stop once the duration has elapsed.

Lines are written exactly as received, including their terminator. Bytes
that are not valid in the chosen encoding are dropped (or replaced with
--errors replace). A read window that passes without data prints nothing.

Example:
  serialmon monitor /dev/cu.usbserial-130              # 115200 baud for 20s
  serialmon monitor /dev/ttyUSB0 -b 9600 --duration 1m
  serialmon monitor COM3 --read-timeout 500ms --encoding latin1`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMonitor,
	}

	flags := monitorCmd.Flags()
	flags.StringP("device", "d", "", "serial device path (e.g., /dev/ttyUSB0 or COM3)")
	flags.IntP("baud", "b", defaults.Serial.BaudRate, "baud rate")
	flags.Int("data-bits", defaults.Serial.DataBits, "data bits (5, 6, 7, 8)")
	flags.String("stop-bits", defaults.Serial.StopBits, "stop bits (1, 1.5, 2)")
	flags.String("parity", defaults.Serial.Parity, "parity (none, odd, even, mark, space)")
	flags.Duration("read-timeout", defaults.Monitor.ReadTimeout, "maximum wait for one line")
	flags.DurationP("duration", "t", defaults.Monitor.Duration, "total run time")
	flags.String("encoding", defaults.Monitor.Encoding, "text encoding of the device output")
	flags.String("errors", defaults.Monitor.Errors, "undecodable bytes: ignore or replace")

	bindings := map[string]string{
		"monitor.device":       "device",
		"serial.baud_rate":     "baud",
		"serial.data_bits":     "data-bits",
		"serial.stop_bits":     "stop-bits",
		"serial.parity":        "parity",
		"monitor.read_timeout": "read-timeout",
		"monitor.duration":     "duration",
		"monitor.encoding":     "encoding",
		"monitor.errors":       "errors",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("Failed to bind %s flag: %v", flag, err))
		}
	}

	return monitorCmd
}

// RegisterMonitorCommand adds the monitor command to the root command
func RegisterMonitorCommand(root *cobra.Command) {
	root.AddCommand(newMonitorCmd())
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if len(args) == 1 {
		cfg.Monitor.Device = args[0]
	}

	if cfg.Monitor.Device == "" {
		return fmt.Errorf("device is required (pass DEVICE, --device or SERIALMON_MONITOR_DEVICE)")
	}

	portCfg, err := cfg.ToPortConfig()
	if err != nil {
		return err
	}

	m, err := monitor.New(monitor.Options{
		Device:      cfg.Monitor.Device,
		Port:        portCfg,
		Duration:    cfg.Monitor.Duration,
		Encoding:    cfg.Monitor.Encoding,
		Errors:      cfg.Monitor.Errors,
		MaxLineSize: cfg.Monitor.MaxLineSize,
		Output:      cmd.OutOrStdout(),
	}, logger)
	if err != nil {
		return err
	}
	if opener != nil {
		m.SetOpener(opener)
	}

	// Arguments are fine from here on; failures are runtime errors.
	cmd.SilenceUsage = true

	if cfg.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("failed to register prometheus metrics: %w", err)
		}
		srv, err := metrics.Start(cfg.Metrics.Address, cfg.Metrics.Path, prometheus.DefaultGatherer)
		if err != nil {
			return fmt.Errorf("failed to start metrics endpoint: %w", err)
		}
		defer func() {
			if err := srv.Stop(); err != nil {
				logger.Warn("metrics endpoint shutdown failed", "err", err)
			}
		}()
		logger.Info("serving metrics", "address", srv.Addr(), "path", cfg.Metrics.Path)

		l := logger
		go func() {
			if err, ok := <-srv.Err(); ok {
				l.Error("metrics endpoint stopped", "err", err)
			}
		}()
	}

	_, err = m.Run(cmd.Context())
	return err
}
