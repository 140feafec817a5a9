package cli

import (
	"path/filepath"

	"github.com/artpar/coinfav/internal/app"
	"github.com/artpar/coinfav/internal/config"
	"github.com/artpar/coinfav/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// LogFile is the TUI log file name under the data directory.
const LogFile = "coinfav.log"

type runMode int

const (
	modeCLI runMode = iota
	modeTUI
)

// loadConfig reads the config file and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagValue(cmd, flagConfig))
	if err != nil {
		return config.Config{}, err
	}

	if v := flagValue(cmd, flagDataDir); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := flagValue(cmd, flagBackend); v != "" {
		cfg.Storage.Backend = v
	}
	if flagValue(cmd, flagEphemeral) == "true" {
		cfg.Storage.Backend = config.BackendMemory
	}
	if v := flagValue(cmd, flagLogLevel); v != "" {
		cfg.Log.Level = v
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func flagValue(cmd *cobra.Command, name string) string {
	f := cmd.Flag(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

// openApp builds the App for a command. The TUI logs to a file because
// stderr is covered by the alt screen; other commands log to stderr.
func openApp(cmd *cobra.Command, mode runMode) (*app.App, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	logOpts := logging.Options{Level: cfg.Log.Level, File: cfg.Log.File}
	if logOpts.File == "" {
		switch mode {
		case modeTUI:
			if cfg.Storage.DataDir != "" {
				logOpts.File = filepath.Join(cfg.Storage.DataDir, LogFile)
			}
		default:
			logOpts.Output = cmd.ErrOrStderr()
		}
	}

	logger, closeLog, err := logging.New(logOpts)
	if err != nil {
		return nil, nil, err
	}

	application, err := app.New(app.WithConfig(cfg), app.WithLogger(logger))
	if err != nil {
		closeLog()
		return nil, nil, err
	}

	return application, func() {
		if err := application.Close(); err != nil {
			logger.Warn("failed to close app", zap.Error(err))
		}
		closeLog()
	}, nil
}
