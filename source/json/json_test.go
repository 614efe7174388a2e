package json_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	eng "github.com/reoring/chunkjson/internal/engine"
	jsonsrc "github.com/reoring/chunkjson/source/json"
)

func TestNewBytes_Decode(t *testing.T) {
	v, err := eng.DecodeSingleValue(jsonsrc.NewBytes([]byte(`[{"_2":-1,"_1":0},"P",1e3]`)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	arr := v.([]any)
	if len(arr) != 3 || arr[1] != "P" || arr[2] != json.Number("1e3") {
		t.Fatalf("got %#v", arr)
	}
	obj := arr[0].(*eng.Object)
	if keys := obj.Keys(); len(keys) != 2 || keys[0] != "_2" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestNewReader_Malformed(t *testing.T) {
	for _, in := range []string{`[1 2]`, `{"a" 1}`, `[1,]`, `[`, ``} {
		if _, err := eng.DecodeSingleValue(jsonsrc.NewReader(strings.NewReader(in))); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
	if _, err := eng.DecodeSingleValue(jsonsrc.NewBytes([]byte(`[1] [2]`))); !errors.Is(err, eng.ErrTrailingData) {
		t.Fatalf("got %v, want trailing data", err)
	}
}

func TestLocation(t *testing.T) {
	s := jsonsrc.NewBytes([]byte(`  [true]`))
	if s.Location() != -1 {
		t.Fatalf("location before first token = %d", s.Location())
	}
	if _, err := s.NextToken(); err != nil {
		t.Fatal(err)
	}
	if s.Location() != 3 {
		t.Fatalf("location after '[' = %d, want 3", s.Location())
	}
}

func TestNextToken_SyntaxErrorOffset(t *testing.T) {
	_, err := eng.DecodeSingleValue(jsonsrc.NewBytes([]byte(`[1,}`)))
	var se *json.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want a syntax error", err)
	}
	if !strings.Contains(err.Error(), "(byte ") {
		t.Fatalf("offset missing from %q", err)
	}
}

func TestNextToken_KeysAfterNestedValues(t *testing.T) {
	s := jsonsrc.NewBytes([]byte(`{"a":{"b":[]},"c":"d"}`))
	var kinds []eng.Kind
	for {
		tok, err := s.NextToken()
		if err != nil {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	want := []eng.Kind{
		eng.KindBeginObject, eng.KindKey, eng.KindBeginObject, eng.KindKey, eng.KindBeginArray,
		eng.KindEndArray, eng.KindEndObject, eng.KindKey, eng.KindString, eng.KindEndObject,
	}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d: kind %v, want %v", i, kinds[i], want[i])
		}
	}
}
