package chunkjson

import (
	"bytes"
	"encoding/json"
	"io"
	"unicode/utf8"

	j "github.com/goccy/go-json"
	"github.com/tidwall/pretty"
)

// DefaultIndent matches the original tool's four-space pretty printer.
const DefaultIndent = "    "

// WriteOptions controls how a decoded value is rendered.
type WriteOptions struct {
	Indent   string // Empty selects DefaultIndent.
	SortKeys bool   // Sort object members by key instead of keeping input order.
	Compact  bool   // Single line, no indentation.
}

// Marshal renders v as compact JSON. Object members keep their order. HTML
// characters and U+2028/U+2029 are written unescaped.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := appendValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalIndent renders v with one element per line, followed by a newline.
func MarshalIndent(v any, opt WriteOptions) ([]byte, error) {
	compact, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	if opt.Compact {
		if opt.SortKeys {
			compact = pretty.Ugly(pretty.PrettyOptions(compact, &pretty.Options{SortKeys: true}))
		}
		return append(compact, '\n'), nil
	}
	indent := opt.Indent
	if indent == "" {
		indent = DefaultIndent
	}
	// Width 0 keeps pretty from folding short arrays onto one line.
	return pretty.PrettyOptions(compact, &pretty.Options{Indent: indent, SortKeys: opt.SortKeys}), nil
}

// WriteJSON renders v completely before writing it to w in one call, so a
// rendering failure leaves w untouched.
func WriteJSON(w io.Writer, v any, opt WriteOptions) error {
	out, err := MarshalIndent(v, opt)
	if err != nil {
		return attribute(wrapError(CodeIOFailure, err, "failed to encode JSON data"), PhaseWrite, 0)
	}
	if _, err := w.Write(out); err != nil {
		return attribute(wrapError(CodeIOFailure, err, "failed to write JSON data"), PhaseWrite, 0)
	}
	return nil
}

func appendValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(string(t))
	case string:
		return appendScalar(buf, t)
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Object:
		if t == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		for i, m := range t.Members {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendScalar(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := appendValue(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return appendScalar(buf, t)
	}
	return nil
}

// rawText writes strings the way they were read: no HTML escaping and no
// escaping of U+2028/U+2029. Invalid UTF-8 still gets replaced.
var rawText = []j.EncodeOptionFunc{j.DisableHTMLEscape(), j.DisableNormalizeUTF8()}

func appendScalar(buf *bytes.Buffer, v any) error {
	opts := rawText[:1]
	if s, ok := v.(string); ok && utf8.ValidString(s) {
		opts = rawText
	}
	b, err := j.MarshalWithOption(v, opts...)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
