package config

import (
	_ "embed"
)

//go:embed defaults/settings.yaml
var defaultSettingsYAML []byte

// DefaultSettings returns the built-in settings. The canvas limit matches a
// 612x384 pixel simulation area at 4 pixels per block.
func DefaultSettings() Settings {
	return Settings{
		Canvas: CanvasSettings{
			MaxBlockWidth:  153,
			MaxBlockHeight: 96,
		},
		Codec: CodecSettings{
			TargetVersion:    "1.4",
			CompressionLevel: "default",
			WantAuthors:      true,
		},
		Library: LibrarySettings{
			DBPath: "~/.powdersave/library.db",
		},
		Log: LogSettings{
			Level: "info",
		},
		Preview: PreviewSettings{
			BlocksPerChar:      2,
			SSHAddress:         ":23235",
			IdleTimeoutMinutes: 30,
		},
	}
}

// GetDefaultYAML returns the embedded default settings document.
func GetDefaultYAML() []byte {
	return defaultSettingsYAML
}
