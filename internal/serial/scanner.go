// Package serial provides serial device access for the monitor: exclusive
// connections, bounded line reads and port discovery.
package serial

import (
	"fmt"
	"regexp"
	"runtime"
	"sort"

	"go.bug.st/serial/enumerator"
)

// PortType represents the type of serial port
type PortType int

const (
	PortTypeUnknown PortType = iota
	PortTypeUSB
	PortTypeNative
	PortTypeBluetooth
	PortTypeVirtual
)

// String returns the string representation of PortType
func (p PortType) String() string {
	switch p {
	case PortTypeUSB:
		return "USB"
	case PortTypeNative:
		return "Native"
	case PortTypeBluetooth:
		return "Bluetooth"
	case PortTypeVirtual:
		return "Virtual"
	default:
		return "Unknown"
	}
}

// PortInfo contains information about a serial port
type PortInfo struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	HardwareID   string   `json:"hardware_id,omitempty"`
	Product      string   `json:"product,omitempty"`
	SerialNumber string   `json:"serial_number,omitempty"`
	VID          string   `json:"vid,omitempty"`
	PID          string   `json:"pid,omitempty"`
	PortType     PortType `json:"-"`
	Type         string   `json:"port_type"`
}

// Scanner handles serial port discovery and enumeration
type Scanner struct {
	excludePatterns []*regexp.Regexp
	list            func() ([]*enumerator.PortDetails, error)
	goos            string
}

// NewScanner creates a new port scanner. Ports whose name matches any of
// excludePatterns are skipped.
func NewScanner(excludePatterns []string) (*Scanner, error) {
	s := &Scanner{
		list: enumerator.GetDetailedPortsList,
		goos: runtime.GOOS,
	}

	for _, pattern := range excludePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		s.excludePatterns = append(s.excludePatterns, re)
	}

	return s, nil
}

// SetLister replaces the function used to enumerate ports
func (s *Scanner) SetLister(list func() ([]*enumerator.PortDetails, error)) {
	s.list = list
}

// Scan discovers all available serial ports, sorted by name
func (s *Scanner) Scan() ([]PortInfo, error) {
	ports, err := s.list()
	if err != nil {
		return nil, err
	}

	result := make([]PortInfo, 0, len(ports))
	for _, port := range ports {
		if s.isExcluded(port.Name) {
			continue
		}

		info := PortInfo{
			Name:         port.Name,
			Product:      port.Product,
			SerialNumber: port.SerialNumber,
			VID:          port.VID,
			PID:          port.PID,
			PortType:     s.detectPortType(port),
			Description:  buildDescription(port),
		}
		info.Type = info.PortType.String()

		if port.VID != "" && port.PID != "" {
			info.HardwareID = "USB\\VID_" + port.VID + "&PID_" + port.PID
		}

		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// GetPort returns information about a specific port. An unknown or excluded
// name yields ErrPortNotFound.
func (s *Scanner) GetPort(name string) (*PortInfo, error) {
	ports, err := s.Scan()
	if err != nil {
		return nil, err
	}

	for _, port := range ports {
		if port.Name == name {
			return &port, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrPortNotFound, name)
}

func (s *Scanner) isExcluded(name string) bool {
	for _, pattern := range s.excludePatterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}

var (
	windowsBluetooth = regexp.MustCompile(`(?i)bluetooth|bth`)
	linuxBluetooth   = regexp.MustCompile(`^/dev/rfcomm`)
	darwinBluetooth  = regexp.MustCompile(`^/dev/.*Bluetooth`)
	linuxVirtual     = regexp.MustCompile(`^/dev/(pts/|pty|tnt)`)
)

func (s *Scanner) detectPortType(port *enumerator.PortDetails) PortType {
	if port.IsUSB {
		return PortTypeUSB
	}

	switch s.goos {
	case "windows":
		if windowsBluetooth.MatchString(port.Name) {
			return PortTypeBluetooth
		}
	case "linux":
		if linuxBluetooth.MatchString(port.Name) {
			return PortTypeBluetooth
		}
		if linuxVirtual.MatchString(port.Name) {
			return PortTypeVirtual
		}
	case "darwin":
		if darwinBluetooth.MatchString(port.Name) {
			return PortTypeBluetooth
		}
	}

	return PortTypeNative
}

func buildDescription(port *enumerator.PortDetails) string {
	if port.Product != "" {
		return port.Product
	}
	if port.IsUSB {
		return "USB Serial Device"
	}
	return "Serial Port"
}
