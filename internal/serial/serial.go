package serial

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Parity represents the parity setting for serial communication
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// String returns the string representation of Parity
func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	case ParityMark:
		return "mark"
	case ParitySpace:
		return "space"
	default:
		return "unknown"
	}
}

// StopBits represents the stop bits setting
type StopBits int

const (
	StopBits1 StopBits = iota
	StopBits1Half
	StopBits2
)

// String returns the string representation of StopBits
func (s StopBits) String() string {
	switch s {
	case StopBits1:
		return "1"
	case StopBits1Half:
		return "1.5"
	case StopBits2:
		return "2"
	default:
		return "unknown"
	}
}

// PortConfig represents serial port configuration
type PortConfig struct {
	BaudRate      int
	DataBits      int
	StopBits      StopBits
	Parity        Parity
	ReadTimeoutMs int
}

// DefaultConfig returns the reference monitor configuration: 115200 8N1 with
// a one second read window.
func DefaultConfig() PortConfig {
	return PortConfig{
		BaudRate:      115200,
		DataBits:      8,
		StopBits:      StopBits1,
		Parity:        ParityNone,
		ReadTimeoutMs: 1000,
	}
}

// ReadTimeout returns the per-read window as a duration
func (c PortConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMs) * time.Millisecond
}

// Validate checks if the configuration is valid
func (c PortConfig) Validate() error {
	if c.BaudRate < 1 {
		return fmt.Errorf("%w: baud rate must be positive, got %d", ErrInvalidConfig, c.BaudRate)
	}

	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("%w: data bits must be 5-8, got %d", ErrInvalidConfig, c.DataBits)
	}

	if c.StopBits < StopBits1 || c.StopBits > StopBits2 {
		return fmt.Errorf("%w: invalid stop bits value", ErrInvalidConfig)
	}

	if c.Parity < ParityNone || c.Parity > ParitySpace {
		return fmt.Errorf("%w: invalid parity value", ErrInvalidConfig)
	}

	if c.ReadTimeoutMs < 1 {
		return fmt.Errorf("%w: read timeout must be positive, got %dms", ErrInvalidConfig, c.ReadTimeoutMs)
	}

	return nil
}

// ToSerialMode converts PortConfig to serial.Mode for the underlying library
func (c PortConfig) ToSerialMode() *serial.Mode {
	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
	}

	switch c.StopBits {
	case StopBits1:
		mode.StopBits = serial.OneStopBit
	case StopBits1Half:
		mode.StopBits = serial.OnePointFiveStopBits
	case StopBits2:
		mode.StopBits = serial.TwoStopBits
	}

	switch c.Parity {
	case ParityNone:
		mode.Parity = serial.NoParity
	case ParityOdd:
		mode.Parity = serial.OddParity
	case ParityEven:
		mode.Parity = serial.EvenParity
	case ParityMark:
		mode.Parity = serial.MarkParity
	case ParitySpace:
		mode.Parity = serial.SpaceParity
	}

	return mode
}

// PortStatistics contains statistics about a connection
type PortStatistics struct {
	BytesReceived uint64
	Reads         uint64
	EmptyReads    uint64
	Errors        uint64
	OpenedAt      time.Time
	LastActivity  time.Time
}

// ParseParity converts a parity string into a Parity enum.
func ParseParity(value string) (Parity, error) {
	switch strings.ToLower(value) {
	case "", "none", "n":
		return ParityNone, nil
	case "odd", "o":
		return ParityOdd, nil
	case "even", "e":
		return ParityEven, nil
	case "mark", "m":
		return ParityMark, nil
	case "space", "s":
		return ParitySpace, nil
	default:
		return ParityNone, fmt.Errorf("%w: invalid parity %q", ErrInvalidConfig, value)
	}
}

// ParseStopBits converts a stop bits string ("1", "1.5", "2") into a StopBits enum.
func ParseStopBits(value string) (StopBits, error) {
	switch value {
	case "", "1":
		return StopBits1, nil
	case "1.5":
		return StopBits1Half, nil
	case "2":
		return StopBits2, nil
	default:
		return StopBits1, fmt.Errorf("%w: invalid stop bits %q", ErrInvalidConfig, value)
	}
}
