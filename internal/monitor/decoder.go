package monitor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Error modes for undecodable bytes
const (
	ErrorsIgnore  = "ignore"
	ErrorsReplace = "replace"
)

const replacementChar = string(utf8.RuneError)

// Decoder turns raw line bytes into text without ever failing. Undecodable
// sequences are dropped (ignore) or replaced with U+FFFD (replace).
type Decoder struct {
	name   string
	enc    encoding.Encoding
	ignore bool
}

// NewDecoder returns a decoder for the named IANA encoding. An empty name
// means UTF-8.
func NewDecoder(name, errorMode string) (*Decoder, error) {
	d := &Decoder{name: "utf-8"}

	switch strings.ToLower(errorMode) {
	case "", ErrorsIgnore:
		d.ignore = true
	case ErrorsReplace:
	default:
		return nil, fmt.Errorf("unknown decode error mode %q (want %s or %s)", errorMode, ErrorsIgnore, ErrorsReplace)
	}

	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return d, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is not supported", name)
	}

	if canonical, err := ianaindex.IANA.Name(enc); err == nil {
		d.name = strings.ToLower(canonical)
	} else {
		d.name = strings.ToLower(name)
	}
	d.enc = enc
	return d, nil
}

// Name returns the canonical encoding name
func (d *Decoder) Name() string {
	return d.name
}

// Decode converts b to text. The second result reports whether any bytes
// could not be decoded.
func (d *Decoder) Decode(b []byte) (string, bool) {
	if d.enc == nil {
		return d.decodeUTF8(b)
	}

	out, err := d.enc.NewDecoder().Bytes(b)
	if err != nil {
		// x/text decoders substitute rather than fail; fall back to the
		// UTF-8 path if one does not.
		return d.decodeUTF8(b)
	}

	text := string(out)
	if !strings.Contains(text, replacementChar) {
		return text, false
	}
	if d.ignore {
		return strings.ReplaceAll(text, replacementChar, ""), true
	}
	return text, true
}

func (d *Decoder) decodeUTF8(b []byte) (string, bool) {
	if utf8.Valid(b) {
		return string(b), false
	}
	if d.ignore {
		return strings.ToValidUTF8(string(b), ""), true
	}

	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), replacementChar), true
	}
	return string(out), true
}
