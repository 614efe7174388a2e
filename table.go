package chunkjson

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	eng "github.com/reoring/chunkjson/internal/engine"
)

// PushMarker is the string that, in position 0 of an array chunk, makes the
// array stand for the chunk referenced by its second element.
const PushMarker = "P"

// Table is the append-only chunk table of one decode. Chunks are nil, bool,
// string, json.Number, []any or *Object.
type Table struct {
	chunks []any
	parse  lineParser
}

// NewTable returns a table holding chunks. Number chunks and references must
// be json.Number (as produced by the line parser) or int/int64.
func NewTable(chunks []any, opts ...Options) *Table {
	opt := optionsFrom(opts)
	return &Table{chunks: chunks, parse: newLineParser(opt)}
}

// ParseTable parses the chunk-table line into a new Table.
func ParseTable(line string, opts ...Options) (*Table, error) {
	opt := optionsFrom(opts)
	p := newLineParser(opt)
	chunks, err := p.parseArray(line)
	if err != nil {
		return nil, err
	}
	return &Table{chunks: chunks, parse: p}, nil
}

// Len returns the current number of chunks.
func (t *Table) Len() int { return len(t.chunks) }

// Chunk returns the raw chunk at absolute index i.
func (t *Table) Chunk(i int) (any, bool) {
	if i < 0 || i >= len(t.chunks) {
		return nil, false
	}
	return t.chunks[i], true
}

// Resolve turns a reference into an absolute index against the current
// table length.
func (t *Table) Resolve(ref any) (int, error) {
	i, ok := referenceInt(ref)
	if !ok {
		return 0, newError(CodeInvalidIndex, -1, "invalid index %s", describe(ref))
	}
	return resolveIndex(i, len(t.chunks))
}

// resolveIndex maps i onto [0, n): non-negative indices are absolute,
// negative ones count from the end (-n is index 0).
func resolveIndex(i int64, n int) (int, error) {
	if i >= 0 {
		if i < int64(n) {
			return int(i), nil
		}
		return 0, newError(CodeIndexOutOfBounds, -1, "index out of bounds: %d (table length %d)", i, n)
	}
	if i != math.MinInt64 && -i <= int64(n) {
		return n - int(-i), nil
	}
	return 0, newError(CodeIndexOutOfBounds, -1, "index out of bounds: %d (table length %d)", i, n)
}

// referenceInt extracts an integer from a reference position. Only integer
// text qualifies; 1.0, 1e2 and -0 do not.
func referenceInt(ref any) (int64, bool) {
	switch v := ref.(type) {
	case json.Number:
		if v == "-0" {
			return 0, false
		}
		i, err := strconv.ParseInt(string(v), 10, 64)
		return i, err == nil
	case int:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

func isReference(v any) bool {
	switch v.(type) {
	case json.Number, int, int64:
		return true
	}
	return false
}

// Patch describes one applied patch line.
type Patch struct {
	Placeholder int // absolute index of the rewritten placeholder
	At          int // index of the first appended chunk
	Appended    int // number of appended chunks
}

// ApplyPatch applies one "P<digits>:<json-array>" line: the placeholder's
// second element is set to the current table length and the payload is
// appended after it.
func (t *Table) ApplyPatch(line string) (Patch, error) {
	label, payload, ok := strings.Cut(line, ":")
	if !ok {
		return Patch{}, newError(CodeMalformedPatchLine, -1, "invalid patch line format: missing ':'")
	}
	digits, ok := scanLabel(strings.TrimSpace(label), 'P')
	if !ok {
		return Patch{}, newError(CodeMalformedPatchLine, -1, "invalid P-index format %q", strings.TrimSpace(label))
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Patch{}, wrapError(CodeInvalidIndex, err, "invalid P-index %s", digits)
	}
	idx, err := resolveIndex(n, len(t.chunks))
	if err != nil {
		return Patch{}, err
	}
	arr, ok := t.chunks[idx].([]any)
	if !ok {
		return Patch{}, newError(CodeInvalidPlaceholder, idx, "placeholder chunk is %s, not an array", describe(t.chunks[idx]))
	}
	if len(arr) != 2 {
		return Patch{}, newError(CodeInvalidPlaceholder, idx, "placeholder array length is %d, not 2", len(arr))
	}
	extra, err := t.parse.parseArray(payload)
	if err != nil {
		return Patch{}, err
	}
	at := len(t.chunks)
	arr[1] = json.Number(strconv.Itoa(at))
	t.chunks = append(t.chunks, extra...)
	return Patch{Placeholder: idx, At: at, Appended: len(extra)}, nil
}

// scanLabel reports whether s is prefix followed by one or more ASCII
// digits, and returns the digits.
func scanLabel(s string, prefix byte) (string, bool) {
	if len(s) < 2 || s[0] != prefix {
		return "", false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", false
		}
	}
	return s[1:], true
}

// lineParser parses one input line into a chunk list.
type lineParser struct {
	driver  JSONDriver
	enforce eng.EnforceOptions
}

func newLineParser(opt Options) lineParser {
	dup := toEngineDup(opt.OnDuplicateKey)
	var sink func(eng.SimpleIssue)
	if dup == eng.DupWarn {
		logger := opt.Logger
		sink = func(si eng.SimpleIssue) {
			logger.Warn("duplicate key in chunk object", "path", si.Path, "message", si.Message)
		}
	}
	return lineParser{
		driver:  opt.Driver,
		enforce: eng.EnforceOptions{OnDuplicate: dup, MaxDepth: opt.MaxNesting, IssueSink: sink},
	}
}

func (p lineParser) parseArray(text string) ([]any, error) {
	src := eng.WrapWithEnforcement(p.driver.NewBytes([]byte(strings.TrimSpace(text))), p.enforce)
	v, err := eng.DecodeSingleValue(src)
	if err != nil {
		var ie eng.IssueError
		if errors.As(err, &ie) {
			return nil, newError(CodeMalformedInput, -1, "invalid JSON array: %s at %s", ie.Message, ie.Path)
		}
		if err == io.ErrUnexpectedEOF {
			return nil, newError(CodeMalformedInput, -1, "invalid JSON array: unexpected end of input")
		}
		return nil, wrapError(CodeMalformedInput, err, "invalid JSON array")
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, newError(CodeMalformedInput, -1, "invalid JSON array: got %s", describe(v))
	}
	return arr, nil
}

// describe names the JSON shape of v for error messages.
func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case string:
		return strconv.Quote(t)
	case json.Number:
		return string(t)
	case int, int64:
		return "an integer"
	case []any:
		return "an array of " + strconv.Itoa(len(t))
	case *Object:
		return "an object"
	}
	return "a missing value"
}
