package chunkjson

import (
	"log/slog"

	eng "github.com/reoring/chunkjson/internal/engine"
)

// DefaultMaxDepth bounds the decode stack when Options.MaxDepth is zero.
const DefaultMaxDepth = 10000

// Severity expresses the severity level for duplicate object keys inside a
// chunk line.
type Severity int

const (
	Ignore Severity = iota // Last value wins.
	Warn                   // Last value wins; a warning is logged.
	Reject                 // The line is rejected as malformed input.
)

// Options bundles decoding options. The zero value is usable.
type Options struct {
	// MaxDepth bounds the depth of fragment decoding (references followed
	// plus literal nesting). Zero selects DefaultMaxDepth; negative disables
	// the bound. Reference cycles are rejected regardless.
	MaxDepth int
	// MaxNesting bounds the JSON nesting depth of a single input line.
	// Zero disables the bound.
	MaxNesting int
	// MaxLineBytes bounds the length of a single input line. Zero disables
	// the bound.
	MaxLineBytes int64
	// MaxPatches bounds the number of patch lines. Zero disables the bound.
	MaxPatches int
	// OnDuplicateKey controls duplicate keys inside chunk objects.
	OnDuplicateKey Severity
	// Driver tokenizes input lines. Nil selects the current global driver.
	Driver JSONDriver
	// Logger receives debug records about decoding progress. Nil discards.
	Logger *slog.Logger
}

// Object is a JSON object that preserves member order. Decoded objects and
// object chunks are both represented as *Object.
type Object = eng.Object

// Member is one key/value pair of an Object.
type Member = eng.Member

// NewObject returns an empty Object with room for n members.
func NewObject(n int) *Object { return eng.NewObject(n) }

func optionsFrom(opts []Options) Options {
	var opt Options
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.MaxDepth == 0 {
		opt.MaxDepth = DefaultMaxDepth
	}
	if opt.Driver == nil {
		opt.Driver = getJSONDriver()
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.DiscardHandler)
	}
	return opt
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Reject:
		return eng.DupError
	case Warn:
		return eng.DupWarn
	default:
		return eng.DupIgnore
	}
}
