package chunkjson

import "strconv"

type frameKind uint8

const (
	frameChunk frameKind = iota
	frameArray
	frameObject
)

// frame is one pending step of a resolution. Chunk frames wait for the value
// of their chunk; array and object frames collect element values.
type frame struct {
	kind   frameKind
	chunk  int
	arr    []any
	obj    *Object
	next   int
	outArr []any
	outObj *Object
	key    string
}

// fragmentDecoder resolves chunks into plain values with an explicit frame
// stack, so the depth of a document is bounded by MaxDepth and not by the
// goroutine stack. It assumes the table no longer grows, which makes
// per-chunk results safe to memoize.
type fragmentDecoder struct {
	table    *Table
	maxDepth int
	stack    []frame
	memo     map[int]any
	active   map[int]bool
}

func newFragmentDecoder(t *Table, maxDepth int) *fragmentDecoder {
	return &fragmentDecoder{
		table:    t,
		maxDepth: maxDepth,
		memo:     make(map[int]any),
		active:   make(map[int]bool),
	}
}

// DecodeChunk fully dereferences the chunk at absolute index i. The result is
// built from nil, bool, string, json.Number, []any and *Object values; equal
// sub-results may be shared between places in the tree.
func (t *Table) DecodeChunk(i int, opts ...Options) (any, error) {
	opt := optionsFrom(opts)
	if i < 0 || i >= len(t.chunks) {
		return nil, newError(CodeIndexOutOfBounds, -1, "index out of bounds: %d (table length %d)", i, len(t.chunks))
	}
	return newFragmentDecoder(t, opt.MaxDepth).chunk(i)
}

func (d *fragmentDecoder) chunk(i int) (any, error) {
	v, ready, err := d.enterChunk(i)
	for {
		if err != nil {
			return nil, err
		}
		if ready {
			if len(d.stack) == 0 {
				return v, nil
			}
			top := &d.stack[len(d.stack)-1]
			switch top.kind {
			case frameChunk:
				d.memo[top.chunk] = v
				delete(d.active, top.chunk)
				d.pop()
				continue
			case frameArray:
				top.outArr = append(top.outArr, v)
			case frameObject:
				top.outObj.Set(top.key, v)
			}
			top.next++
		}
		// The top frame is a container here: chunk frames only ever wait
		// on a value.
		v, ready, err = d.advance(&d.stack[len(d.stack)-1])
	}
}

// advance starts resolving the next element of a container frame, or
// completes the frame when all elements are in.
func (d *fragmentDecoder) advance(top *frame) (any, bool, error) {
	switch top.kind {
	case frameArray:
		if top.next == len(top.arr) {
			out := top.outArr
			d.pop()
			return out, true, nil
		}
		item := top.arr[top.next]
		if isReference(item) {
			return d.enterRef(item)
		}
		return d.enterFragment(item)
	default:
		if top.next == len(top.obj.Members) {
			out := top.outObj
			d.pop()
			return out, true, nil
		}
		m := top.obj.Members[top.next]
		key, err := d.key(m.Key)
		if err != nil {
			return nil, false, err
		}
		top.key = key
		return d.enterRef(m.Value)
	}
}

func (d *fragmentDecoder) enterChunk(i int) (any, bool, error) {
	if v, ok := d.memo[i]; ok {
		return v, true, nil
	}
	if d.active[i] {
		return nil, false, newError(CodeCyclicReference, i, "cyclic reference")
	}
	if err := d.push(frame{kind: frameChunk, chunk: i}); err != nil {
		return nil, false, err
	}
	d.active[i] = true
	return d.enterFragment(d.table.chunks[i])
}

func (d *fragmentDecoder) enterRef(ref any) (any, bool, error) {
	i, err := d.table.Resolve(ref)
	if err != nil {
		return nil, false, err
	}
	return d.enterChunk(i)
}

// enterFragment returns scalars directly and pushes a frame for containers.
func (d *fragmentDecoder) enterFragment(f any) (any, bool, error) {
	switch v := f.(type) {
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok && s == PushMarker {
				if len(v) < 2 {
					return nil, false, newError(CodeInvalidIndex, -1, "missing index after push marker")
				}
				return d.enterRef(v[1])
			}
		}
		err := d.push(frame{kind: frameArray, arr: v, outArr: make([]any, 0, len(v))})
		return nil, false, err
	case *Object:
		err := d.push(frame{kind: frameObject, obj: v, outObj: NewObject(v.Len())})
		return nil, false, err
	default:
		// Scalars are immutable.
		return v, true, nil
	}
}

// key maps a "_<digits>" member key to the string held by the named chunk.
func (d *fragmentDecoder) key(k string) (string, error) {
	digits, ok := scanLabel(k, '_')
	if !ok {
		return "", newError(CodeInvalidKeyIndex, -1, "invalid K-index format %q", k)
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return "", wrapError(CodeInvalidIndex, err, "invalid K-index %s", k)
	}
	ki, err := resolveIndex(n, len(d.table.chunks))
	if err != nil {
		return "", err
	}
	s, ok := d.table.chunks[ki].(string)
	if !ok {
		return "", newError(CodeNotAString, ki, "key chunk is %s, not a string", describe(d.table.chunks[ki]))
	}
	return s, nil
}

func (d *fragmentDecoder) push(f frame) error {
	if d.maxDepth > 0 && len(d.stack) >= d.maxDepth {
		return newError(CodeDepthExceeded, -1, "decode depth exceeds %d", d.maxDepth)
	}
	d.stack = append(d.stack, f)
	return nil
}

func (d *fragmentDecoder) pop() { d.stack = d.stack[:len(d.stack)-1] }
