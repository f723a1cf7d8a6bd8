/*
Copyright 2024 SerialLink Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/Shoaibashk/serialmon/config"
	"github.com/Shoaibashk/serialmon/internal/logging"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is the application version
	Version = "dev"

	// Commit is the git commit the binary was built from
	Commit = "none"

	// BuildDate is the build timestamp
	BuildDate = "unknown"

	// cfgFile is the path to the config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = newRootCmd()

	// appConfig and logger are populated before any subcommand runs
	appConfig *config.Config
	logger    = log.New(io.Discard)
	logCloser io.Closer
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "serialmon",
		Short: "serialmon - timed serial line monitor",
		Long: `serialmon reads lines from a serial device for a fixed duration and
prints them to standard output. Logs go to standard error.`,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.serialmon/config.yaml)")
	root.PersistentFlags().Bool("verbose", false, "verbose output (debug logging)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	if err := viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level")); err != nil {
		panic(err)
	}

	// Register subcommands
	RegisterVersionCommand(root)
	RegisterMonitorCommand(root)
	RegisterScanCommand(root)

	return root
}

// Execute executes the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext executes the root command with a context. The log file, if
// any, is closed whether or not the command succeeded.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeLog(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close log file: %w", cerr)
	}
	return err
}

// IsVerbose reports whether --verbose was given
func IsVerbose() bool {
	return viper.GetBool("verbose")
}

// loadConfig reads in config file and ENV variables and builds the logger
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := config.InitViper(cfgFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if IsVerbose() {
		cfg.Logging.Level = "debug"
	}

	l, closer, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	appConfig = cfg
	logger = l
	logCloser = closer

	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("loaded config file", "path", used)
	}
	return nil
}

func closeLog() error {
	if logCloser == nil {
		return nil
	}
	err := logCloser.Close()
	logCloser = nil
	logger = log.New(io.Discard)
	return err
}
