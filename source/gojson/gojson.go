// Package gojson adapts github.com/goccy/go-json's token stream to
// engine.TokenSource. It is the default driver.
//
// go-json's Decoder.Token skips commas and colons without checking them, so
// input is validated as a whole before it is tokenized.
package gojson

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"

	eng "github.com/reoring/chunkjson/internal/engine"
)

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

type source struct {
	dec   *j.Decoder
	stack []frame
}

// ErrInvalid is returned for input that go-json rejects without a more
// specific error.
var ErrInvalid = errors.New("gojson: invalid JSON")

// NewReader reads r fully and tokenizes it with go-json.
func NewReader(r io.Reader) eng.TokenSource {
	b, err := io.ReadAll(r)
	if err != nil {
		return errSource{err: err}
	}
	return NewBytes(b)
}

// NewBytes validates b and wraps it into an engine.TokenSource using go-json.
func NewBytes(b []byte) eng.TokenSource {
	if len(bytes.TrimSpace(b)) == 0 {
		return errSource{err: io.ErrUnexpectedEOF}
	}
	if !j.Valid(b) {
		var probe any
		if err := j.Unmarshal(b, &probe); err != nil {
			return errSource{err: err}
		}
		return errSource{err: ErrInvalid}
	}
	dec := j.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return &source{dec: dec}
}

type errSource struct{ err error }

func (e errSource) NextToken() (eng.Token, error) { return eng.Token{}, e.err }
func (e errSource) Location() int64              { return 0 }

func (s *source) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return eng.Token{}, err
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return eng.Token{Kind: eng.KindBeginObject, Offset: s.dec.InputOffset()}, nil
		case '}':
			s.pop()
			return eng.Token{Kind: eng.KindEndObject, Offset: s.dec.InputOffset()}, nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return eng.Token{Kind: eng.KindBeginArray, Offset: s.dec.InputOffset()}, nil
		case ']':
			s.pop()
			return eng.Token{Kind: eng.KindEndArray, Offset: s.dec.InputOffset()}, nil
		}
	case string:
		if n := len(s.stack); n > 0 {
			top := &s.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				top.expectingKey = false
				return eng.Token{Kind: eng.KindKey, String: v, Offset: s.dec.InputOffset()}, nil
			}
		}
		s.valueDone()
		return eng.Token{Kind: eng.KindString, String: v, Offset: s.dec.InputOffset()}, nil
	case bool:
		s.valueDone()
		return eng.Token{Kind: eng.KindBool, Bool: v, Offset: s.dec.InputOffset()}, nil
	case j.Number:
		s.valueDone()
		// go-json hands out numbers that alias its read buffer.
		return eng.Token{Kind: eng.KindNumber, Number: strings.Clone(string(v)), Offset: s.dec.InputOffset()}, nil
	case float64:
		s.valueDone()
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64), Offset: s.dec.InputOffset()}, nil
	}
	s.valueDone()
	return eng.Token{Kind: eng.KindNull, Offset: s.dec.InputOffset()}, nil
}

func (s *source) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	s.valueDone()
}

func (s *source) valueDone() {
	if n := len(s.stack); n > 0 {
		top := &s.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
		}
	}
}

func (s *source) Location() int64 { return s.dec.InputOffset() }
