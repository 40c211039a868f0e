package models

import (
	"encoding/json"
	"iter"
)

// Kind identifies which variant of a JSON value a Value holds.
type Kind uint8

const (
	// KindAbsent is the zero Kind. It marks a Value that was never set,
	// which is not the same thing as an explicit JSON null.
	KindAbsent Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the lower-case JSON name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "absent"
	}
}

// IsContainer reports whether the kind is an array or an object.
func (k Kind) IsContainer() bool {
	return k == KindArray || k == KindObject
}

// Value is a JSON value. Numbers keep their raw text so no precision is lost
// for magnitudes a float64 or int64 cannot hold.
type Value struct {
	kind  Kind
	flag  bool
	text  string
	items []Value
	obj   *Object
}

// Null returns the JSON null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a JSON boolean.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Number returns a JSON number holding raw numeric text.
func Number(raw string) Value { return Value{kind: KindNumber, text: raw} }

// String returns a JSON string.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Array returns a JSON array with the given items.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// ObjectValue wraps an Object. A nil object becomes an empty one.
func ObjectValue(obj *Object) Value {
	if obj == nil {
		obj = NewObject()
	}
	return Value{kind: KindObject, obj: obj}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v was never assigned.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsNull reports whether v is an explicit JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean and whether v is a boolean.
func (v Value) AsBool() (bool, bool) { return v.flag, v.kind == KindBool }

// AsNumber returns the raw numeric text and whether v is a number.
func (v Value) AsNumber() (json.Number, bool) { return json.Number(v.text), v.kind == KindNumber }

// AsString returns the string and whether v is a string.
func (v Value) AsString() (string, bool) { return v.text, v.kind == KindString }

// Items returns the elements of an array, or nil for any other kind.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.items
}

// Object returns the object, or nil for any other kind.
func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Len returns the number of elements or members of a container and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return v.obj.Len()
	default:
		return 0
	}
}

// Text returns the scalar text of a number or string.
func (v Value) Text() string { return v.text }

// Interface converts v into plain Go values: nil, bool, json.Number, string,
// []any and map[string]any. Absent values convert to nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.flag
	case KindNumber:
		return json.Number(v.text)
	case KindString:
		return v.text
	case KindArray:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for name, member := range v.obj.All() {
			out[name] = member.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether v and other hold the same JSON value. Array order is
// significant, object member order is not.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.flag == other.flag
	case KindNumber, KindString:
		return v.text == other.text
	case KindArray:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.obj.Len() != other.obj.Len() {
			return false
		}
		for name, member := range v.obj.All() {
			theirs, ok := other.obj.Get(name)
			if !ok || !member.Equal(theirs) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Object is an ordered JSON object. Names are unique; setting an existing
// name replaces its value in place, so the last write wins while the member
// keeps the position of its first occurrence.
type Object struct {
	names  []string
	values []Value
	index  map[string]int
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

// Set stores v under name.
func (o *Object) Set(name string, v Value) {
	if i, ok := o.index[name]; ok {
		o.values[i] = v
		return
	}
	o.index[name] = len(o.names)
	o.names = append(o.names, name)
	o.values = append(o.values, v)
}

// Get returns the value stored under name.
func (o *Object) Get(name string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	i, ok := o.index[name]
	if !ok {
		return Value{}, false
	}
	return o.values[i], true
}

// Has reports whether name is a member of o.
func (o *Object) Has(name string) bool {
	_, ok := o.Get(name)
	return ok
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.names)
}

// Keys returns the member names in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.names))
	copy(out, o.names)
	return out
}

// All iterates over the members in insertion order.
func (o *Object) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if o == nil {
			return
		}
		for i, name := range o.names {
			if !yield(name, o.values[i]) {
				return
			}
		}
	}
}
