// Package chunkjson decodes the reference-based "chunk table" JSON encoding
// back into plain JSON.
//
// An encoded document is a JSON array on its first line (the chunk table),
// optionally followed by patch lines of the form
//
//	P<index>:<json-array>
//
// and a blank line. Inside array and object chunks every number is a
// reference to another chunk: non-negative numbers are absolute indices,
// negative numbers count from the end of the table as it is at the moment
// the reference is read. Object keys have the form _<index> and name the
// chunk holding the real key string. An array whose first element is "P"
// stands for the chunk its second element references; patch lines append
// chunks and point such a placeholder at them.
//
// Design policy:
//   - Keep only public APIs in the root package; put token plumbing under internal/.
//   - JSON tokenizing is pluggable (JSONDriver); go-json is the default.
//   - Every failure is an *Error carrying a Code and the Phase it happened in.
//
// Typical usage:
//
//	v, err := chunkjson.Decode(ctx, r)
//	if err != nil {
//		return err
//	}
//	err = chunkjson.WriteJSON(w, v, chunkjson.WriteOptions{})
package chunkjson
