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
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Shoaibashk/serialmon/internal/serial"
	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

// portLister replaces the OS port enumerator when set
var portLister func() ([]*enumerator.PortDetails, error)

func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [PORT]",
		Short: "Scan and list available serial ports",
		Long: `Scan the system for serial ports to find the DEVICE to monitor.

Example:
  serialmon scan              # List all ports
  serialmon scan --json       # Output as JSON
  serialmon scan --details    # Show hardware details
  serialmon scan /dev/ttyUSB0 # Show a single port`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}

	scanCmd.Flags().Bool("json", false, "output in JSON format")
	scanCmd.Flags().Bool("details", false, "show detailed port information")
	return scanCmd
}

// RegisterScanCommand adds the scan command to the root command
func RegisterScanCommand(root *cobra.Command) {
	root.AddCommand(newScanCmd())
}

func runScan(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	details, _ := cmd.Flags().GetBool("details")

	scanner, err := serial.NewScanner(appConfig.Serial.ExcludePatterns)
	if err != nil {
		return fmt.Errorf("invalid exclude pattern: %w", err)
	}
	if portLister != nil {
		scanner.SetLister(portLister)
	}

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		port, err := scanner.GetPort(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printPortsJSON(out, []serial.PortInfo{*port})
		}
		return printPortsTable(out, []serial.PortInfo{*port}, true)
	}

	ports, err := scanner.Scan()
	if err != nil {
		return fmt.Errorf("failed to list ports: %w", err)
	}
	logger.Debug("scanned serial ports", "count", len(ports))

	if jsonOutput {
		return printPortsJSON(out, ports)
	}
	return printPortsTable(out, ports, details)
}

func printPortsTable(out io.Writer, ports []serial.PortInfo, details bool) error {
	if len(ports) == 0 {
		_, err := fmt.Fprintln(out, "No serial ports found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if details {
		fmt.Fprintln(w, "PORT\tDESCRIPTION\tHARDWARE ID\tPRODUCT\tSERIAL\tTYPE")
		fmt.Fprintln(w, "----\t-----------\t-----------\t-------\t------\t----")
		for _, port := range ports {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				port.Name,
				truncate(port.Description, 20),
				truncate(port.HardwareID, 24),
				truncate(port.Product, 15),
				truncate(port.SerialNumber, 15),
				port.Type,
			)
		}
	} else {
		fmt.Fprintln(w, "PORT\tDESCRIPTION\tTYPE")
		fmt.Fprintln(w, "----\t-----------\t----")
		for _, port := range ports {
			fmt.Fprintf(w, "%s\t%s\t%s\n", port.Name, truncate(port.Description, 40), port.Type)
		}
	}

	return w.Flush()
}

func printPortsJSON(out io.Writer, ports []serial.PortInfo) error {
	if ports == nil {
		ports = []serial.PortInfo{}
	}

	data, err := json.MarshalIndent(ports, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
