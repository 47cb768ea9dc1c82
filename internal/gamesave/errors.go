package gamesave

import (
	"errors"
	"fmt"
)

// ParseResult classifies why a save could not be decoded.
type ParseResult int

const (
	ParseOK ParseResult = iota
	ParseCorrupt
	ParseWrongVersion
	ParseInvalidDimensions
	ParseInternalError
	// ParseMissingElement is recorded in GameSave.MissingElements and never
	// returned from Decode.
	ParseMissingElement
)

// String returns a human-readable name for the result.
func (r ParseResult) String() string {
	switch r {
	case ParseOK:
		return "ok"
	case ParseCorrupt:
		return "corrupt"
	case ParseWrongVersion:
		return "wrong version"
	case ParseInvalidDimensions:
		return "invalid dimensions"
	case ParseInternalError:
		return "internal error"
	case ParseMissingElement:
		return "missing element"
	default:
		return "unknown"
	}
}

// ParseError is returned by Decode. No partially decoded save accompanies it.
type ParseError struct {
	Result  ParseResult
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gamesave: %s: %s", e.Result, e.Message)
}

func parseErrorf(result ParseResult, format string, args ...any) *ParseError {
	return &ParseError{Result: result, Message: fmt.Sprintf(format, args...)}
}

// ParseResultOf extracts the ParseResult from err, or ParseOK if err is not a
// *ParseError.
func ParseResultOf(err error) ParseResult {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Result
	}
	return ParseOK
}

// BuildError is returned when a save cannot be encoded or mutated honestly.
type BuildError struct {
	Message string
	Err     error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gamesave: %s: %v", e.Message, e.Err)
	}
	return "gamesave: " + e.Message
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

func buildErrorf(format string, args ...any) *BuildError {
	return &BuildError{Message: fmt.Sprintf(format, args...)}
}
