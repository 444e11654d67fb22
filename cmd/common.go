package cmd

import (
	"errors"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/smazurov/barspacing/internal/config"
	"github.com/smazurov/barspacing/internal/logging"
)

// commonFlags are shared by the one-shot commands.
type commonFlags struct {
	configFile string
	logLevel   string
	logJSON    bool
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "barspacing.toml", "Path to configuration file")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Override the global log level")
	cmd.Flags().BoolVar(&f.logJSON, "log-json", false, "Use JSON log format")
}

// settings loads the configuration file, falling back to defaults when it
// does not exist, and initializes logging from it.
func (f *commonFlags) settings() (config.Settings, error) {
	s, err := config.LoadSettings(f.configFile)
	if errors.Is(err, fs.ErrNotExist) {
		s, err = config.DefaultSettings(), nil
	}

	logCfg := s.LoggingConfig()
	if f.logLevel != "" {
		logCfg.Level = f.logLevel
	}
	if f.logJSON {
		logCfg.Format = "json"
	}
	logging.Initialize(logCfg)

	return s, err
}
