package engine

import "sort"

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is a JSON object that keeps its members in insertion order.
type Object struct {
	Members []Member
	index   map[string]int
}

// NewObject returns an empty Object with room for n members.
func NewObject(n int) *Object {
	return &Object{Members: make([]Member, 0, n), index: make(map[string]int, n)}
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Members)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	i, ok := o.lookup(key)
	if !ok {
		return nil, false
	}
	return o.Members[i].Value, true
}

// Set stores value under key. An existing key keeps its position and only
// its value is replaced.
func (o *Object) Set(key string, value any) {
	if i, ok := o.lookup(key); ok {
		o.Members[i].Value = value
		return
	}
	if o.index == nil {
		o.index = make(map[string]int)
	}
	o.index[key] = len(o.Members)
	o.Members = append(o.Members, Member{Key: key, Value: value})
}

// Keys returns the member keys in order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.Members))
	for i, m := range o.Members {
		keys[i] = m.Key
	}
	return keys
}

// Sorted returns a copy with members ordered by key.
func (o *Object) Sorted() *Object {
	out := NewObject(o.Len())
	if o == nil {
		return out
	}
	out.Members = append(out.Members, o.Members...)
	sort.SliceStable(out.Members, func(i, j int) bool { return out.Members[i].Key < out.Members[j].Key })
	for i, m := range out.Members {
		out.index[m.Key] = i
	}
	return out
}

func (o *Object) lookup(key string) (int, bool) {
	if o.index == nil {
		// Objects built by literal construction carry no index yet.
		if len(o.Members) == 0 {
			return 0, false
		}
		o.index = make(map[string]int, len(o.Members))
		for i, m := range o.Members {
			o.index[m.Key] = i
		}
	}
	i, ok := o.index[key]
	return i, ok
}
