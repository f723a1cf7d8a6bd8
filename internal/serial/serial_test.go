package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 115200, cfg.BaudRate)
	assert.Equal(t, time.Second, cfg.ReadTimeout())
}

func TestPortConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PortConfig)
	}{
		{"zero baud", func(c *PortConfig) { c.BaudRate = 0 }},
		{"data bits too low", func(c *PortConfig) { c.DataBits = 4 }},
		{"data bits too high", func(c *PortConfig) { c.DataBits = 9 }},
		{"bad stop bits", func(c *PortConfig) { c.StopBits = StopBits(7) }},
		{"bad parity", func(c *PortConfig) { c.Parity = Parity(-1) }},
		{"zero read timeout", func(c *PortConfig) { c.ReadTimeoutMs = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestToSerialMode(t *testing.T) {
	cfg := PortConfig{
		BaudRate:      9600,
		DataBits:      7,
		StopBits:      StopBits2,
		Parity:        ParityEven,
		ReadTimeoutMs: 100,
	}

	assert.Equal(t, &serial.Mode{
		BaudRate: 9600,
		DataBits: 7,
		StopBits: serial.TwoStopBits,
		Parity:   serial.EvenParity,
	}, cfg.ToSerialMode())
}

func TestParseParity(t *testing.T) {
	tests := []struct {
		in      string
		want    Parity
		wantErr bool
	}{
		{"", ParityNone, false},
		{"none", ParityNone, false},
		{"ODD", ParityOdd, false},
		{"e", ParityEven, false},
		{"mark", ParityMark, false},
		{"space", ParitySpace, false},
		{"sometimes", ParityNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseParity(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotEqual(t, "unknown", got.String())
		})
	}
}

func TestParseStopBits(t *testing.T) {
	got, err := ParseStopBits("1.5")
	require.NoError(t, err)
	assert.Equal(t, StopBits1Half, got)
	assert.Equal(t, "1.5", got.String())

	_, err = ParseStopBits("3")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
