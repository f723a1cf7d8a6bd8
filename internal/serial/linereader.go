package serial

import (
	"bytes"
	"time"
	"unicode/utf8"
)

const (
	// DefaultMaxLineSize bounds a single line; longer input is returned in
	// chunks of at most this size, never splitting a UTF-8 sequence.
	DefaultMaxLineSize = 4096

	readChunkSize = 1024
)

// LineReader reads newline-terminated lines from a connection. Each call is
// bounded by one read-timeout window, so a line may come back partial (or
// empty) when the device goes quiet.
type LineReader struct {
	conn      *Conn
	delimiter byte
	maxLine   int
	pending   []byte
	chunk     []byte
	now       func() time.Time
}

// NewLineReader creates a new line-based reader
func NewLineReader(conn *Conn, delimiter byte, maxLineSize int) *LineReader {
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}

	return &LineReader{
		conn:      conn,
		delimiter: delimiter,
		maxLine:   maxLineSize,
		pending:   make([]byte, 0, maxLineSize),
		chunk:     make([]byte, readChunkSize),
		now:       time.Now,
	}
}

// ReadLine returns the bytes up to and including the next delimiter, or
// whatever arrived before the read window elapsed. A zero-length result with
// a nil error means the window passed without data. Bytes that arrive after
// the delimiter are kept for the next call.
func (lr *LineReader) ReadLine() ([]byte, error) {
	deadline := lr.now().Add(lr.conn.Config.ReadTimeout())

	for {
		if line := lr.nextHeld(); line != nil {
			return line, nil
		}

		remaining := deadline.Sub(lr.now())
		if remaining <= 0 {
			return lr.take(len(lr.pending)), nil
		}

		n, err := lr.conn.ReadWithin(lr.chunk, remaining)
		if err != nil {
			lr.pending = lr.pending[:0]
			return nil, err
		}

		if n == 0 {
			return lr.take(len(lr.pending)), nil
		}

		lr.pending = append(lr.pending, lr.chunk[:n]...)
	}
}

// Buffered returns the next line held from earlier reads without touching
// the device: up to and including a delimiter if one is held, otherwise the
// remaining bytes. It returns nil once nothing is held.
func (lr *LineReader) Buffered() []byte {
	if line := lr.nextHeld(); line != nil {
		return line
	}
	return lr.take(len(lr.pending))
}

// nextHeld returns a complete line, or a full-size chunk, from pending.
func (lr *LineReader) nextHeld() []byte {
	if i := bytes.IndexByte(lr.pending, lr.delimiter); i >= 0 && i < lr.maxLine {
		return lr.take(i + 1)
	}

	if len(lr.pending) >= lr.maxLine {
		return lr.take(runeAligned(lr.pending[:lr.maxLine]))
	}

	return nil
}

// runeAligned returns the length of the longest prefix of b that does not end
// inside a multi-byte UTF-8 sequence. Invalid input is not shortened.
func runeAligned(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if i == 0 || utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}

func (lr *LineReader) take(n int) []byte {
	if n == 0 {
		return nil
	}

	line := make([]byte, n)
	copy(line, lr.pending[:n])
	rest := copy(lr.pending, lr.pending[n:])
	lr.pending = lr.pending[:rest]
	return line
}
