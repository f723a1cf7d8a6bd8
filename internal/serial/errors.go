package serial

import "errors"

var (
	// ErrDeviceOpen is returned when the serial device cannot be opened
	// (missing, busy, permission denied or rejected configuration).
	ErrDeviceOpen = errors.New("serial device open failed")

	// ErrRead is returned when the device fails during a read. A read timeout
	// is not an error; it yields zero bytes.
	ErrRead = errors.New("serial read failed")

	// ErrClosed is returned when operations are attempted on a closed connection
	ErrClosed = errors.New("serial connection is closed")

	// ErrInvalidConfig is returned for port configuration that fails validation
	ErrInvalidConfig = errors.New("invalid port configuration")

	// ErrPortNotFound is returned when a named port is not present on the system
	ErrPortNotFound = errors.New("serial port not found")
)
