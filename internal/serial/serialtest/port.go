// Package serialtest provides a scripted serial port for tests.
package serialtest

import (
	"errors"
	"sync"
	"time"
)

// ErrPortClosed is returned by Read after Close
var ErrPortClosed = errors.New("serialtest: port closed")

// Step is one scripted device event. The port waits Delay, then delivers
// Data or fails with Err. A Delay longer than the read timeout produces
// empty reads until the remaining delay fits in one window.
type Step struct {
	Data  []byte
	Err   error
	Delay time.Duration
}

// Chunk is a step delivering data immediately
func Chunk(data string) Step {
	return Step{Data: []byte(data)}
}

// Port is a scripted implementation of serial.Port. Once the script is
// exhausted every read behaves like a timeout.
type Port struct {
	mu         sync.Mutex
	steps      []Step
	timeout    time.Duration
	closed     bool
	closeCalls int
	reads      int
}

// New returns a port that plays steps in order
func New(steps ...Step) *Port {
	return &Port{steps: steps, timeout: time.Second}
}

// SetReadTimeout implements serial.Port
func (p *Port) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	p.timeout = t
	return nil
}

// Read implements serial.Port
func (p *Port) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrPortClosed
	}
	p.reads++
	timeout := p.timeout

	if len(p.steps) == 0 {
		p.mu.Unlock()
		time.Sleep(timeout)
		return 0, nil
	}

	step := &p.steps[0]
	if step.Delay > timeout {
		step.Delay -= timeout
		p.mu.Unlock()
		time.Sleep(timeout)
		return 0, nil
	}

	delay := step.Delay
	step.Delay = 0
	if step.Err != nil {
		err := step.Err
		p.steps = p.steps[1:]
		p.mu.Unlock()
		time.Sleep(delay)
		return 0, err
	}

	n := copy(b, step.Data)
	if n < len(step.Data) {
		step.Data = step.Data[n:]
	} else {
		p.steps = p.steps[1:]
	}
	p.mu.Unlock()

	time.Sleep(delay)
	return n, nil
}

// Close implements serial.Port
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeCalls++
	p.closed = true
	return nil
}

// Closed reports whether Close was called
func (p *Port) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// CloseCalls returns how many times Close was called
func (p *Port) CloseCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCalls
}

// Reads returns how many reads were attempted while open
func (p *Port) Reads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}
