package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads powdersave settings.
// Search order: customPath -> ~/.powdersave/settings.yaml -> ./configs/settings.yaml -> embedded default
// Keys absent from the file keep their default values.
func Load(customPath string) (Settings, error) {
	cfg := DefaultSettings()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		if err := cfg.Validate(); err != nil {
			return cfg, fmt.Errorf("invalid config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("settings.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			candidate := DefaultSettings()
			if err := yaml.Unmarshal(data, &candidate); err == nil && candidate.Validate() == nil {
				return candidate, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile("configs/settings.yaml"); err == nil {
		candidate := DefaultSettings()
		if err := yaml.Unmarshal(data, &candidate); err == nil && candidate.Validate() == nil {
			return candidate, nil
		}
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultSettingsYAML, &cfg); err != nil {
		return DefaultSettings(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// Validate checks value ranges that the codec relies on.
func (s Settings) Validate() error {
	if s.Canvas.MaxBlockWidth <= 0 || s.Canvas.MaxBlockWidth > 0xFFFF {
		return fmt.Errorf("canvas.max_block_width %d out of range 1..65535", s.Canvas.MaxBlockWidth)
	}
	if s.Canvas.MaxBlockHeight <= 0 || s.Canvas.MaxBlockHeight > 0xFFFF {
		return fmt.Errorf("canvas.max_block_height %d out of range 1..65535", s.Canvas.MaxBlockHeight)
	}
	switch s.Codec.CompressionLevel {
	case "fastest", "default", "better", "best":
	default:
		return fmt.Errorf("codec.compression_level %q is not one of fastest, default, better, best", s.Codec.CompressionLevel)
	}
	switch s.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", s.Log.Level)
	}
	if s.Preview.BlocksPerChar <= 0 {
		return fmt.Errorf("preview.blocks_per_char must be positive")
	}
	return nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".powdersave", filename)
}
