package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetCmd rebuilds the command tree and global state between tests
func resetCmd(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	viper.Reset()
	t.Setenv("HOME", t.TempDir())
	cfgFile = ""
	opener = nil
	portLister = nil
	appConfig = nil
	logCloser = nil
	rootCmd = newRootCmd()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	t.Cleanup(viper.Reset)
	return stdout, stderr
}

func TestRootExecute(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{
			name:    "help flag",
			args:    []string{"--help"},
			wantErr: false,
		},
		{
			name:    "version command",
			args:    []string{"version"},
			wantErr: false,
		},
		{
			name:    "invalid flag",
			args:    []string{"--invalid-flag"},
			wantErr: true,
		},
		{
			name:    "no arguments (should show help)",
			args:    []string{},
			wantErr: false,
		},
		{
			name:    "unknown log level",
			args:    []string{"--log-level", "chatty", "version"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetCmd(t)
			rootCmd.SetArgs(tt.args)

			err := rootCmd.Execute()

			if tt.wantErr {
				assert.Error(t, err, "Expected error for args: %v", tt.args)
			} else {
				assert.NoError(t, err, "Unexpected error for args: %v", tt.args)
			}
		})
	}
}

func TestRootExecuteContext(t *testing.T) {
	resetCmd(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rootCmd.SetArgs([]string{"version", "--short"})
	assert.NoError(t, ExecuteContext(ctx))
}

func TestVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		version string
		args    []string
		want    string
	}{
		{
			name:    "full output",
			version: "dev",
			args:    []string{"version"},
			want:    "serialmon dev\n",
		},
		{
			name:    "short output",
			version: "v1.0.0",
			args:    []string{"version", "--short"},
			want:    "v1.0.0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _ := resetCmd(t)

			oldVersion := Version
			Version = tt.version
			t.Cleanup(func() { Version = oldVersion })

			rootCmd.SetArgs(tt.args)
			require.NoError(t, rootCmd.Execute())

			assert.Contains(t, stdout.String(), tt.want)
		})
	}
}

func TestHelpFlag(t *testing.T) {
	stdout, _ := resetCmd(t)

	rootCmd.SetArgs([]string{"--help"})
	err := rootCmd.Execute()

	assert.NoError(t, err)
	output := stdout.String()
	assert.Contains(t, output, "serialmon", "Help output should contain serialmon")
	assert.Contains(t, output, "Usage", "Help output should contain Usage")
	assert.Contains(t, output, "monitor")
	assert.Contains(t, output, "scan")
}

func TestVerboseFlag(t *testing.T) {
	resetCmd(t)

	rootCmd.SetArgs([]string{"--verbose", "version"})
	require.NoError(t, rootCmd.Execute())

	assert.True(t, IsVerbose())
	assert.Equal(t, "debug", appConfig.Logging.Level)
}
