package chunkjson

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// Decoder reads one encoded document: the chunk-table line, then patch lines
// up to a blank line or end of input.
type Decoder struct {
	r    *bufio.Reader
	opt  Options
	line int
}

// NewDecoder returns a Decoder reading from r. When several Options are
// given the last one wins.
func NewDecoder(r io.Reader, opts ...Options) *Decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Decoder{r: br, opt: optionsFrom(opts)}
}

// Decode reads the encoded document from r and returns the value of its
// root chunk.
func Decode(ctx context.Context, r io.Reader, opts ...Options) (any, error) {
	return NewDecoder(r, opts...).Decode(ctx)
}

// DecodeString is Decode over an in-memory document.
func DecodeString(ctx context.Context, s string, opts ...Options) (any, error) {
	return Decode(ctx, strings.NewReader(s), opts...)
}

// Decode loads the table, applies all patch lines and resolves chunk 0.
// Nothing is returned unless every step succeeds.
func (d *Decoder) Decode(ctx context.Context) (any, error) {
	t, err := d.ReadTable(ctx)
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, attribute(newError(CodeIndexOutOfBounds, -1, "index out of bounds: 0 (table length 0)"), PhaseDecode, 0)
	}
	v, err := newFragmentDecoder(t, d.opt.MaxDepth).chunk(0)
	if err != nil {
		return nil, attribute(err, PhaseDecode, 0)
	}
	d.opt.Logger.Debug("decoded root chunk", "chunks", t.Len())
	return v, nil
}

// ReadTable loads the chunk table and applies the patch lines that follow
// it, without resolving any chunk.
func (d *Decoder) ReadTable(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, attribute(wrapError(CodeIOFailure, err, "decode canceled"), PhaseLoad, 0)
	}
	first, _, err := d.readLine()
	if err != nil {
		return nil, attribute(err, PhaseLoad, d.line)
	}
	t, err := ParseTable(first, d.opt)
	if err != nil {
		return nil, attribute(err, PhaseLoad, d.line)
	}
	d.opt.Logger.Debug("loaded chunk table", "chunks", t.Len())

	patches := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, attribute(wrapError(CodeIOFailure, err, "decode canceled"), PhasePatch, d.line)
		}
		line, eof, err := d.readLine()
		if err != nil {
			return nil, attribute(err, PhasePatch, d.line)
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		patches++
		if d.opt.MaxPatches > 0 && patches > d.opt.MaxPatches {
			return nil, attribute(newError(CodeLimitExceeded, -1, "more than %d patch lines", d.opt.MaxPatches), PhasePatch, d.line)
		}
		p, err := t.ApplyPatch(line)
		if err != nil {
			return nil, attribute(err, PhasePatch, d.line)
		}
		d.opt.Logger.Debug("applied patch", slog.Int("line", d.line), slog.Int("placeholder", p.Placeholder), slog.Int("at", p.At), slog.Int("appended", p.Appended))
		if eof {
			break
		}
	}
	return t, nil
}

// readLine returns the next line without its terminator. A final line
// without a newline is returned with eof set; reading past the end yields an
// empty line. MaxLineBytes is enforced while reading, so an oversized line
// is never buffered in full.
func (d *Decoder) readLine() (string, bool, error) {
	d.line++
	limit := d.opt.MaxLineBytes
	var line []byte
	for {
		frag, err := d.r.ReadSlice('\n')
		line = append(line, frag...)
		if limit > 0 && int64(len(bytes.TrimRight(line, "\r\n"))) > limit {
			return "", false, newError(CodeMalformedInput, -1, "line exceeds %d bytes", limit)
		}
		switch {
		case err == nil:
			return string(bytes.TrimRight(line, "\r\n")), false, nil
		case errors.Is(err, bufio.ErrBufferFull):
			// Line longer than the read buffer.
		case errors.Is(err, io.EOF):
			return string(bytes.TrimRight(line, "\r\n")), true, nil
		default:
			return "", false, wrapError(CodeIOFailure, err, "failed to read line")
		}
	}
}
