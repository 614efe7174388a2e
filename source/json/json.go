// Package json tokenizes input lines with encoding/json. It is the fallback
// driver for environments that avoid go-json.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	eng "github.com/reoring/chunkjson/internal/engine"
)

// container tracks what the next token inside an open container is.
type container uint8

const (
	inArray container = iota
	objectKey
	objectValue
)

var delimKinds = map[json.Delim]eng.Kind{
	'{': eng.KindBeginObject,
	'}': eng.KindEndObject,
	'[': eng.KindBeginArray,
	']': eng.KindEndArray,
}

type lineSource struct {
	dec    *json.Decoder
	open   []container
	offset int64
}

// NewReader returns a TokenSource over r. Numbers keep their literal text.
func NewReader(r io.Reader) eng.TokenSource {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &lineSource{dec: dec, offset: -1}
}

// NewBytes returns a TokenSource over one input line.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *lineSource) NextToken() (eng.Token, error) {
	raw, err := s.dec.Token()
	if err != nil {
		return eng.Token{}, withOffset(err)
	}
	s.offset = s.dec.InputOffset()
	tok := eng.Token{Offset: s.offset}

	switch v := raw.(type) {
	case json.Delim:
		tok.Kind = delimKinds[v]
		switch v {
		case '{':
			s.open = append(s.open, objectKey)
			return tok, nil
		case '[':
			s.open = append(s.open, inArray)
			return tok, nil
		}
		// The decoder rejects unbalanced closers before they get here.
		s.open = s.open[:len(s.open)-1]
	case string:
		if n := len(s.open); n > 0 && s.open[n-1] == objectKey {
			s.open[n-1] = objectValue
			tok.Kind, tok.String = eng.KindKey, v
			return tok, nil
		}
		tok.Kind, tok.String = eng.KindString, v
	case bool:
		tok.Kind, tok.Bool = eng.KindBool, v
	case json.Number:
		tok.Kind, tok.Number = eng.KindNumber, string(v)
	default:
		tok.Kind = eng.KindNull
	}
	if n := len(s.open); n > 0 && s.open[n-1] == objectValue {
		s.open[n-1] = objectKey
	}
	return tok, nil
}

func (s *lineSource) Location() int64 { return s.offset }

// withOffset adds the byte position to syntax errors. Other errors, io.EOF
// included, pass through unchanged.
func withOffset(err error) error {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return fmt.Errorf("%w (byte %d)", err, se.Offset)
	}
	return err
}
