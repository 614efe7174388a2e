package engine_test

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	eng "github.com/reoring/chunkjson/internal/engine"
)

type sliceSource struct {
	toks []eng.Token
	i    int
}

func (s *sliceSource) NextToken() (eng.Token, error) {
	if s.i >= len(s.toks) {
		return eng.Token{}, io.EOF
	}
	t := s.toks[s.i]
	s.i++
	return t, nil
}

func (s *sliceSource) Location() int64 { return int64(s.i) }

func src(toks ...eng.Token) *sliceSource { return &sliceSource{toks: toks} }

var (
	bo   = eng.Token{Kind: eng.KindBeginObject}
	eo   = eng.Token{Kind: eng.KindEndObject}
	ba   = eng.Token{Kind: eng.KindBeginArray}
	ea   = eng.Token{Kind: eng.KindEndArray}
	null = eng.Token{Kind: eng.KindNull}
)

func key(s string) eng.Token { return eng.Token{Kind: eng.KindKey, String: s} }
func str(s string) eng.Token { return eng.Token{Kind: eng.KindString, String: s} }
func num(s string) eng.Token { return eng.Token{Kind: eng.KindNumber, Number: s} }

func TestDecodeValue_Tree(t *testing.T) {
	// {"z":[1,"a",null],"a":{}}
	v, err := eng.DecodeSingleValue(src(bo, key("z"), ba, num("1"), str("a"), null, ea, key("a"), bo, eo, eo))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	obj, ok := v.(*eng.Object)
	if !ok {
		t.Fatalf("expected *Object, got %T", v)
	}
	if keys := obj.Keys(); len(keys) != 2 || keys[0] != "z" || keys[1] != "a" {
		t.Fatalf("keys = %v", keys)
	}
	z, _ := obj.Get("z")
	arr, ok := z.([]any)
	if !ok || len(arr) != 3 || arr[0] != json.Number("1") || arr[1] != "a" || arr[2] != nil {
		t.Fatalf("z = %#v", z)
	}
	a, _ := obj.Get("a")
	if inner, ok := a.(*eng.Object); !ok || inner.Len() != 0 {
		t.Fatalf("a = %#v", a)
	}
}

func TestDecodeValue_Errors(t *testing.T) {
	if _, err := eng.DecodeValue(src()); err != io.ErrUnexpectedEOF {
		t.Fatalf("empty: got %v", err)
	}
	if _, err := eng.DecodeValue(src(ba, num("1"))); err != io.ErrUnexpectedEOF {
		t.Fatalf("truncated: got %v", err)
	}
	if _, err := eng.DecodeValue(src(bo, str("notakey"), eo)); err != io.ErrUnexpectedEOF {
		t.Fatalf("bad object: got %v", err)
	}
	if _, err := eng.DecodeSingleValue(src(ba, ea, null)); !errors.Is(err, eng.ErrTrailingData) {
		t.Fatalf("trailing: got %v", err)
	}
	// DecodeValue alone leaves the rest of the source unread.
	if _, err := eng.DecodeValue(src(ba, ea, null)); err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
}

func TestEnforcement(t *testing.T) {
	dup := func() *sliceSource {
		// [{"a":1,"b":{"a~/":1,"a~/":2},"a":3}]
		return src(ba, bo, key("a"), num("1"), key("b"), bo, key("a~/"), num("1"), key("a~/"), num("2"), eo, key("a"), num("3"), eo, ea)
	}

	if s := eng.WrapWithEnforcement(dup(), eng.EnforceOptions{}); s == nil {
		t.Fatalf("nil source")
	} else if _, ok := s.(*sliceSource); !ok {
		t.Fatalf("disabled options should return the inner source, got %T", s)
	}

	_, err := eng.DecodeSingleValue(eng.WrapWithEnforcement(dup(), eng.EnforceOptions{OnDuplicate: eng.DupError}))
	var ie eng.IssueError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IssueError, got %v", err)
	}
	if ie.Code != "duplicate_key" || ie.Path != "/0/b/a~0~1" {
		t.Fatalf("unexpected issue %+v", ie.SimpleIssue)
	}

	var warned []eng.SimpleIssue
	v, err := eng.DecodeSingleValue(eng.WrapWithEnforcement(dup(), eng.EnforceOptions{
		OnDuplicate: eng.DupWarn,
		IssueSink:   func(si eng.SimpleIssue) { warned = append(warned, si) },
	}))
	if err != nil {
		t.Fatalf("warn mode: %v", err)
	}
	if len(warned) != 2 || warned[0].Path != "/0/b/a~0~1" || warned[1].Path != "/0/a" {
		t.Fatalf("warnings = %+v", warned)
	}
	obj := v.([]any)[0].(*eng.Object)
	if a, _ := obj.Get("a"); a != json.Number("3") || obj.Keys()[0] != "a" {
		t.Fatalf("last value should win in place: %#v", obj.Members)
	}

	_, err = eng.DecodeSingleValue(eng.WrapWithEnforcement(dup(), eng.EnforceOptions{MaxDepth: 2}))
	if !errors.As(err, &ie) || ie.Code != "max_depth" || ie.Path != "/0/b" {
		t.Fatalf("expected max_depth at /0/b, got %v", err)
	}
	if _, err := eng.DecodeSingleValue(eng.WrapWithEnforcement(dup(), eng.EnforceOptions{MaxDepth: 3})); err != nil {
		t.Fatalf("depth 3 should pass: %v", err)
	}
}

func TestObject(t *testing.T) {
	var nilObj *eng.Object
	if nilObj.Len() != 0 || nilObj.Keys() != nil {
		t.Fatalf("nil object should be empty")
	}
	if _, ok := nilObj.Get("x"); ok {
		t.Fatalf("nil object has no members")
	}

	o := &eng.Object{Members: []eng.Member{{Key: "b", Value: 1}, {Key: "a", Value: 2}}}
	if v, ok := o.Get("a"); !ok || v != 2 {
		t.Fatalf("literal object lookup: %v %v", v, ok)
	}
	o.Set("c", 3)
	o.Set("b", 4)
	if keys := o.Keys(); len(keys) != 3 || keys[0] != "b" || keys[2] != "c" {
		t.Fatalf("keys = %v", keys)
	}
	s := o.Sorted()
	if keys := s.Keys(); keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Fatalf("sorted keys = %v", keys)
	}
	if v, _ := s.Get("b"); v != 4 {
		t.Fatalf("sorted b = %v", v)
	}
	if o.Keys()[0] != "b" {
		t.Fatalf("Sorted must not reorder the receiver")
	}
}
