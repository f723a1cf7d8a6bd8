package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderUTF8(t *testing.T) {
	tests := []struct {
		name        string
		mode        string
		in          []byte
		want        string
		wantAnomaly bool
	}{
		{"valid", ErrorsIgnore, []byte("hello\n"), "hello\n", false},
		{"valid multibyte", ErrorsIgnore, []byte("temp 21\xc2\xb0C\n"), "temp 21°C\n", false},
		{"literal replacement char kept", ErrorsIgnore, []byte("\xef\xbf\xbd\n"), "\uFFFD\n", false},
		{"ignore drops invalid", ErrorsIgnore, []byte("caf\xc3\n"), "caf\n", true},
		{"ignore drops lone high bytes", ErrorsIgnore, []byte("\xff\xfeok\r\n"), "ok\r\n", true},
		{"replace substitutes", ErrorsReplace, []byte("caf\xc3\n"), "caf\uFFFD\n", true},
		{"empty", ErrorsIgnore, nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDecoder("utf-8", tt.mode)
			require.NoError(t, err)

			got, anomaly := d.Decode(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantAnomaly, anomaly)
		})
	}
}

func TestDecoderDefaults(t *testing.T) {
	d, err := NewDecoder("", "")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", d.Name())

	got, anomaly := d.Decode([]byte("a\x80b"))
	assert.Equal(t, "ab", got)
	assert.True(t, anomaly)
}

func TestDecoderLatin1(t *testing.T) {
	d, err := NewDecoder("ISO-8859-1", ErrorsIgnore)
	require.NoError(t, err)

	got, anomaly := d.Decode([]byte("caf\xe9\n"))
	assert.Equal(t, "café\n", got)
	assert.False(t, anomaly)
}

func TestDecoderRejectsUnknown(t *testing.T) {
	_, err := NewDecoder("klingon-8", ErrorsIgnore)
	assert.Error(t, err)

	_, err = NewDecoder("utf-8", "strict")
	assert.Error(t, err)
}
