// Package config provides YAML-based settings loading for the save tools:
// canvas limits, codec defaults, library location, logging and preview.
package config

// Settings contains all configuration for powdersave.
type Settings struct {
	Canvas  CanvasSettings  `yaml:"canvas"`
	Codec   CodecSettings   `yaml:"codec"`
	Library LibrarySettings `yaml:"library"`
	Log     LogSettings     `yaml:"log"`
	Preview PreviewSettings `yaml:"preview"`
}

// CanvasSettings bounds the dimensions a save may declare, in blocks.
type CanvasSettings struct {
	MaxBlockWidth  int `yaml:"max_block_width"`
	MaxBlockHeight int `yaml:"max_block_height"`
}

// CodecSettings defines encoder/decoder defaults.
type CodecSettings struct {
	TargetVersion    string `yaml:"target_version"`    // "major.minor"
	CompressionLevel string `yaml:"compression_level"` // fastest, default, better, best
	WantAuthors      bool   `yaml:"want_authors"`
}

// LibrarySettings locates the save library database.
type LibrarySettings struct {
	DBPath string `yaml:"db_path"`
}

// LogSettings configures the structured logger.
type LogSettings struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// PreviewSettings configures the terminal preview and its SSH server.
type PreviewSettings struct {
	BlocksPerChar      int    `yaml:"blocks_per_char"`
	SSHAddress         string `yaml:"ssh_address"`
	HostKeyPath        string `yaml:"host_key_path"`
	IdleTimeoutMinutes int    `yaml:"idle_timeout_minutes"`
}
