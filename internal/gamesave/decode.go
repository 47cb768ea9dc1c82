package gamesave

import (
	"bytes"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/powdersave/internal/elements"
)

// DecodeOptions controls Decode.
type DecodeOptions struct {
	// Limits bounds the accepted canvas. Zero means DefaultLimits.
	Limits Limits
	// SkipAuthors drops attribution metadata instead of parsing it.
	SkipAuthors bool
	// Logger receives debug notes about skipped or repaired content.
	Logger *log.Logger
}

func (o DecodeOptions) withDefaults() DecodeOptions {
	o.Limits = o.Limits.orDefault()
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// Format names the on-disk layout of a save.
type Format int

const (
	FormatUnknown Format = iota
	FormatLegacy
	FormatTagged
)

func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "PSv"
	case FormatTagged:
		return "OPS1"
	default:
		return "unknown"
	}
}

// DetectFormat inspects the magic bytes.
func DetectFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, taggedMagic):
		return FormatTagged
	case bytes.HasPrefix(data, legacyMagic):
		return FormatLegacy
	default:
		return FormatUnknown
	}
}

// Decode parses a save in either format. On failure it returns a *ParseError
// and no save. Elements the table does not know are kept under sentinel IDs
// and listed in MissingElements; they do not fail the decode.
func Decode(data []byte, table *elements.Table, opts DecodeOptions) (gs *GameSave, err error) {
	if table == nil {
		return nil, parseErrorf(ParseInternalError, "no element table")
	}
	opts = opts.withDefaults()

	defer func() {
		if r := recover(); r != nil {
			gs = nil
			err = parseErrorf(ParseInternalError, "decoder panic: %v", r)
		}
	}()

	format := DetectFormat(data)
	switch format {
	case FormatTagged:
		gs, err = decodeTagged(data, table, opts)
	case FormatLegacy:
		gs, err = decodeLegacy(data, table, opts)
	default:
		return nil, parseErrorf(ParseCorrupt, "unrecognised save format")
	}
	if err != nil {
		return nil, err
	}
	gs.Limits = opts.Limits
	if verr := gs.Validate(); verr != nil {
		return nil, parseErrorf(ParseInternalError, "decoded save is inconsistent: %v", verr)
	}

	opts.Logger.Debug("decoded save",
		"format", format,
		"version", gs.Version,
		"blocks", gs.BlockSize,
		"particles", len(gs.Particles),
		"missing", gs.MissingElements.Len(),
		"newer", gs.FromNewerVersion)
	return gs, nil
}
