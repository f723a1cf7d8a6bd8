package serial

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.bug.st/serial"
)

// Port is the subset of an OS serial port used by a connection.
// go.bug.st/serial ports satisfy it.
type Port interface {
	Read(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Conn is an open, exclusively owned serial connection
type Conn struct {
	ID     string
	Path   string
	Config PortConfig

	port      Port
	timeout   time.Duration
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
	stats     PortStatistics
}

// Open opens the serial device at path with the given configuration. Any
// failure is reported as ErrDeviceOpen wrapping the cause, and no handle is
// left open.
func Open(path string, config PortConfig) (*Conn, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceOpen, path, err)
	}

	// go.bug.st/serial takes TIOCEXCL on unix, so the handle is exclusive.
	port, err := serial.Open(path, config.ToSerialMode())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceOpen, path, err)
	}

	if err := port.SetReadTimeout(config.ReadTimeout()); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: %s: failed to set read timeout: %w", ErrDeviceOpen, path, err)
	}

	conn := NewConn(path, port, config)
	conn.timeout = config.ReadTimeout()
	return conn, nil
}

// NewConn wraps an already open port. The caller hands ownership of port to
// the returned connection.
func NewConn(path string, port Port, config PortConfig) *Conn {
	now := time.Now()
	return &Conn{
		ID:     uuid.New().String(),
		Path:   path,
		Config: config,
		port:   port,
		stats: PortStatistics{
			OpenedAt:     now,
			LastActivity: now,
		},
	}
}

// Read performs a single read bounded by the configured read timeout. A
// timeout yields zero bytes and a nil error.
func (c *Conn) Read(p []byte) (int, error) {
	return c.ReadWithin(p, c.Config.ReadTimeout())
}

// ReadWithin performs a single read that waits at most window for data.
func (c *Conn) ReadWithin(p []byte, window time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}

	if window != c.timeout {
		if err := c.port.SetReadTimeout(window); err != nil {
			c.stats.Errors++
			return 0, fmt.Errorf("%w: %s: failed to set read timeout: %w", ErrRead, c.Path, err)
		}
		c.timeout = window
	}

	n, err := c.port.Read(p)
	c.stats.Reads++
	if err != nil {
		c.stats.Errors++
		return 0, fmt.Errorf("%w: %s: %w", ErrRead, c.Path, err)
	}

	if n == 0 {
		c.stats.EmptyReads++
		return 0, nil
	}

	c.stats.BytesReceived += uint64(n)
	c.stats.LastActivity = time.Now()
	return n, nil
}

// Stats returns a snapshot of the connection statistics
func (c *Conn) Stats() PortStatistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// IsClosed returns whether the connection has been closed
func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close releases the device. It is safe to call more than once; later calls
// return the result of the first.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		// Closing the port first unblocks a read that holds mu.
		c.closeErr = c.port.Close()
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
	})
	return c.closeErr
}
