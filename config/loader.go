package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// LoadConfig loads configuration with priority: CLI flags > Config file > Defaults
//
// configPath may be empty, in which case the standard locations are searched.
// flags may be nil. The returned path is the file that was loaded, or empty.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, string, error) {
	// 1. Start with defaults
	cfg := DefaultConfig()

	// 2. Explicit file, else the first standard location that exists
	if configPath == "" {
		configPath = FindConfigFile()
	}

	if configPath != "" {
		fileCfg, err := LoadConfigFile(configPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg = fileCfg
	}

	// 3. Merge CLI flags (highest priority, overwrites everything)
	if err := cfg.MergeFromFlags(flags); err != nil {
		return nil, "", err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, configPath, nil
}
