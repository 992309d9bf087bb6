package util

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Configuration struct {
	Version   string
	BuildDate string
	Commit    string

	LogLevel     string `toml:"log_level"`
	LogFile      string `toml:"log_file"`
	TraceDB      string `toml:"trace_db"`
	StepLimit    int    `toml:"step_limit"`
	DebugProgram bool   `toml:"debug_program"`
}

// LoadConfigFile overlays values from a TOML config file onto cfg. A missing
// file is not an error; command-line flags applied afterwards win.
func LoadConfigFile(path string, cfg *Configuration) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	return nil
}
