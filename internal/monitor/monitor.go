// Package monitor implements the timed serial read session: open a device,
// copy decoded lines to an output until a wall-clock deadline, release the
// device.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Shoaibashk/serialmon/internal/metrics"
	"github.com/Shoaibashk/serialmon/internal/serial"
	"github.com/charmbracelet/log"
)

// Opener opens the device for a run. serial.Open is used unless replaced.
type Opener func(path string, config serial.PortConfig) (*serial.Conn, error)

// Options configures a run
type Options struct {
	Device      string
	Port        serial.PortConfig
	Duration    time.Duration
	Encoding    string
	Errors      string
	MaxLineSize int
	Output      io.Writer
}

// Summary describes a finished run
type Summary struct {
	SessionID  string
	Lines      uint64
	Bytes      uint64
	EmptyReads uint64
	Anomalies  uint64
	Elapsed    time.Duration
}

// Monitor runs one timed read session
type Monitor struct {
	opts    Options
	decoder *Decoder
	open    Opener
	logger  *log.Logger
	now     func() time.Time
}

// New validates opts and returns a monitor. A nil logger discards log output;
// a nil Output writes to stdout.
func New(opts Options, logger *log.Logger) (*Monitor, error) {
	if opts.Device == "" {
		return nil, errors.New("device path is required")
	}
	if opts.Duration < 0 {
		return nil, fmt.Errorf("duration must not be negative, got %s", opts.Duration)
	}

	decoder, err := NewDecoder(opts.Encoding, opts.Errors)
	if err != nil {
		return nil, err
	}

	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Monitor{
		opts:    opts,
		decoder: decoder,
		open:    serial.Open,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// SetOpener replaces the function used to open the device
func (m *Monitor) SetOpener(open Opener) {
	m.open = open
}

// Run opens the device and copies lines to the output until the duration has
// elapsed. The deadline and ctx are checked between reads, so a run can
// overrun by at most one read window. The device is released on every exit
// path. Open failures match serial.ErrDeviceOpen and device failures match
// serial.ErrRead; cancelling ctx ends the run without error.
func (m *Monitor) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	conn, err := m.open(m.opts.Device, m.opts.Port)
	if err != nil {
		if !errors.Is(err, serial.ErrDeviceOpen) {
			err = fmt.Errorf("%w: %s: %w", serial.ErrDeviceOpen, m.opts.Device, err)
		}
		return summary, err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			m.logger.Warn("failed to release device", "device", m.opts.Device, "err", err)
		}
	}()

	summary.SessionID = conn.ID
	logger := m.logger.With("session", conn.ID)
	logger.Info("monitoring serial device",
		"device", m.opts.Device,
		"baud", m.opts.Port.BaudRate,
		"read_timeout", m.opts.Port.ReadTimeout(),
		"duration", m.opts.Duration,
		"encoding", m.decoder.Name(),
	)

	lines := serial.NewLineReader(conn, '\n', m.opts.MaxLineSize)
	start := m.now()

	for m.now().Sub(start) < m.opts.Duration {
		if ctx.Err() != nil {
			logger.Info("monitor interrupted", "reason", context.Cause(ctx))
			break
		}

		line, err := lines.ReadLine()
		if err != nil {
			metrics.IncReadErrors()
			summary.Elapsed = m.now().Sub(start)
			logger.Error("device read failed", "err", err, "elapsed", summary.Elapsed)
			return summary, err
		}

		if len(line) == 0 {
			summary.EmptyReads++
			metrics.IncEmptyReads()
			continue
		}

		if err := m.emit(logger, line, &summary); err != nil {
			return summary, err
		}
	}

	// Lines already taken from the device past the deadline.
	for rest := lines.Buffered(); rest != nil; rest = lines.Buffered() {
		if err := m.emit(logger, rest, &summary); err != nil {
			return summary, err
		}
	}

	summary.Elapsed = m.now().Sub(start)
	logger.Info("monitor finished",
		"lines", summary.Lines,
		"bytes", summary.Bytes,
		"empty_reads", summary.EmptyReads,
		"decode_anomalies", summary.Anomalies,
		"elapsed", summary.Elapsed.Round(time.Millisecond),
	)

	return summary, nil
}

func (m *Monitor) emit(logger *log.Logger, line []byte, summary *Summary) error {
	text, anomaly := m.decoder.Decode(line)
	if anomaly {
		summary.Anomalies++
		metrics.IncDecodeAnomalies()
		logger.Debug("undecodable bytes in line", "raw", fmt.Sprintf("%q", line))
	}

	summary.Lines++
	summary.Bytes += uint64(len(line))
	metrics.ObserveLine(len(line))

	if _, err := io.WriteString(m.opts.Output, text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Run reads lines from devicePath for duration and writes them to stdout,
// using 8N1 framing and UTF-8 decoding that drops undecodable bytes.
func Run(ctx context.Context, devicePath string, baudRate int, readTimeout, duration time.Duration) error {
	port := serial.DefaultConfig()
	port.BaudRate = baudRate
	port.ReadTimeoutMs = int(readTimeout / time.Millisecond)

	m, err := New(Options{
		Device:   devicePath,
		Port:     port,
		Duration: duration,
		Output:   os.Stdout,
	}, nil)
	if err != nil {
		return err
	}

	_, err = m.Run(ctx)
	return err
}
