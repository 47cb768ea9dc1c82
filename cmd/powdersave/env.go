package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"

	"github.com/vovakirdan/powdersave/internal/config"
	"github.com/vovakirdan/powdersave/internal/core"
	"github.com/vovakirdan/powdersave/internal/elements"
	"github.com/vovakirdan/powdersave/internal/gamesave"
)

// maxInputSize bounds how much a save file may contain before decoding.
const maxInputSize = 64 << 20

// Loaded once per invocation by the root command.
var (
	settings config.Settings
	table    *elements.Table
	logger   *log.Logger
)

// loadEnv reads settings and the element table and sets up logging.
func loadEnv() error {
	var err error
	settings, err = config.Load(flagConfig)
	if err != nil {
		return err
	}

	level := settings.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "powdersave",
		Level:           lvl,
	})

	table, err = elements.Load(flagElements)
	if err != nil {
		return err
	}
	logger.Debug("environment loaded", "elements", table.Len(), "config", flagConfig)
	return nil
}

// dbPath returns the library location, the flag winning over settings.
func dbPath() string {
	if flagDBPath != "" {
		return flagDBPath
	}
	return settings.Library.DBPath
}

// decodeOptions builds codec options from settings.
func decodeOptions(s config.Settings, l *log.Logger) gamesave.DecodeOptions {
	return gamesave.DecodeOptions{
		Limits: gamesave.Limits{
			MaxBlockSize: core.V(s.Canvas.MaxBlockWidth, s.Canvas.MaxBlockHeight),
		},
		SkipAuthors: !s.Codec.WantAuthors,
		Logger:      l,
	}
}

// encodeOptions builds encoder options from settings; target and level
// override the settings when non-empty.
func encodeOptions(s config.Settings, tbl *elements.Table, target, level string) (gamesave.EncodeOptions, error) {
	if target == "" {
		target = s.Codec.TargetVersion
	}
	if level == "" {
		level = s.Codec.CompressionLevel
	}
	v, err := gamesave.ParseVersion(target)
	if err != nil {
		return gamesave.EncodeOptions{}, err
	}
	lvl, err := gamesave.ParseCompressionLevel(level)
	if err != nil {
		return gamesave.EncodeOptions{}, err
	}
	return gamesave.EncodeOptions{Table: tbl, Target: v, Level: lvl}, nil
}

// readInput reads a file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(io.LimitReader(r, maxInputSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxInputSize {
		return nil, fmt.Errorf("%s is larger than %d bytes", path, maxInputSize)
	}
	return data, nil
}

// writeOutput writes data to a file, or stdout for "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// loadSave reads and decodes a save file.
func loadSave(path string) (*gamesave.GameSave, []byte, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, nil, err
	}
	gs, err := gamesave.Decode(data, table, decodeOptions(settings, logger))
	if err != nil {
		return nil, data, err
	}
	if gs.FromNewerVersion {
		logger.Warn("save is from a newer version; unknown content was skipped", "file", path, "version", gs.Version)
	}
	if names := gs.MissingElements.Names(); len(names) > 0 {
		logger.Warn("save uses elements this table does not know", "file", path, "missing", names)
	}
	return gs, data, nil
}

// storeSave encodes gs and writes it out.
func storeSave(gs *gamesave.GameSave, path, target, level string) error {
	opts, err := encodeOptions(settings, table, target, level)
	if err != nil {
		return err
	}
	data, fromNewer, err := gs.Serialise(opts)
	if err != nil {
		return err
	}
	if fromNewer {
		logger.Warn("save needs a newer version than requested", "target", opts.Target, "required", gs.RequiredVersion())
	}
	logger.Debug("encoded save", "bytes", len(data), "level", levelName(opts.Level))
	return writeOutput(path, data)
}

func levelName(l zstd.EncoderLevel) string {
	if l == 0 {
		return zstd.SpeedDefault.String()
	}
	return l.String()
}
