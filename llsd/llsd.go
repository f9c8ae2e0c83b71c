package llsd

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// MIME types for the three LLSD wire encodings.
const (
	XMLMimeType      = "application/llsd+xml"
	BinaryMimeType   = "application/llsd+binary"
	NotationMimeType = "application/llsd+notation"
)

// Kind identifies the dynamic type carried by a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindBoolean
	KindInteger
	KindReal
	KindString
	KindUUID
	KindDate
	KindURI
	KindBinary
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undef"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindUUID:
		return "uuid"
	case KindDate:
		return "date"
	case KindURI:
		return "uri"
	case KindBinary:
		return "binary"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a tagged LLSD value. The zero Value is Undefined. Values are
// treated as immutable once constructed; codecs and the llidl matcher only
// ever read them.
type Value struct {
	kind Kind
	b    bool
	i    int64
	r    float64
	s    string // string and uri payloads
	t    time.Time
	u    uuid.UUID
	bin  []byte
	arr  []Value
	m    map[string]Value
}

// ---- constructors ----

// Undef returns the undefined value.
func Undef() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInteger, i: i} }

// Real returns a real (float64) Value.
func Real(r float64) Value { return Value{kind: KindReal, r: r} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// UUID returns a uuid Value.
func UUID(u uuid.UUID) Value { return Value{kind: KindUUID, u: u} }

// Date returns a date Value. LLSD dates are UTC timestamps.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t.UTC()} }

// URI returns a uri Value. The tag is distinct from String even though the
// payload is string-like.
func URI(s string) Value { return Value{kind: KindURI, s: s} }

// Binary returns a binary Value wrapping b. The slice is not copied.
func Binary(b []byte) Value { return Value{kind: KindBinary, bin: b} }

// Array returns an array Value of the given elements.
func Array(elems ...Value) Value { return Value{kind: KindArray, arr: elems} }

// Map returns a map Value over members. The map is not copied.
func Map(members map[string]Value) Value {
	if members == nil {
		members = map[string]Value{}
	}
	return Value{kind: KindMap, m: members}
}

// ---- accessors ----

// Kind reports the dynamic type tag.
func (v Value) Kind() Kind { return v.kind }

// IsUndef reports whether v is the undefined value.
func (v Value) IsUndef() bool { return v.kind == KindUndefined }

// AsBool returns the boolean payload (false unless KindBoolean).
func (v Value) AsBool() bool { return v.b }

// AsInt returns the integer payload (0 unless KindInteger).
func (v Value) AsInt() int64 { return v.i }

// AsReal returns the real payload (0 unless KindReal).
func (v Value) AsReal() float64 { return v.r }

// AsString returns the string payload for KindString and KindURI.
func (v Value) AsString() string { return v.s }

// AsUUID returns the uuid payload (zero UUID unless KindUUID).
func (v Value) AsUUID() uuid.UUID { return v.u }

// AsDate returns the date payload (zero time unless KindDate).
func (v Value) AsDate() time.Time { return v.t }

// AsBinary returns the binary payload (nil unless KindBinary).
func (v Value) AsBinary() []byte { return v.bin }

// Len reports the element count for arrays and the member count for maps.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindMap:
		return len(v.m)
	default:
		return 0
	}
}

// Index returns the i-th array element, or Undef when out of range or not an
// array.
func (v Value) Index(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Undef()
	}
	return v.arr[i]
}

// Member returns the named map member, or Undef when absent or not a map.
func (v Value) Member(key string) Value {
	if v.kind != KindMap {
		return Undef()
	}
	return v.m[key]
}

// Has reports whether a map member with the given key is present.
func (v Value) Has(key string) bool {
	if v.kind != KindMap {
		return false
	}
	_, ok := v.m[key]
	return ok
}

// Keys returns the map's member names in sorted order; nil for non-maps.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Elems returns the underlying array slice; nil for non-arrays. Callers must
// not mutate it.
func (v Value) Elems() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Members returns the underlying member map; nil for non-maps. Callers must
// not mutate it.
func (v Value) Members() map[string]Value {
	if v.kind != KindMap {
		return nil
	}
	return v.m
}

// String reports the scalar payload as a string for diagnostics. Composite
// values report their kind and size.
func (v Value) String() string {
	switch v.kind {
	case KindUndefined:
		return "undef"
	case KindBoolean:
		if v.b {
			return "true"
		}
		return "false"
	case KindInteger:
		return fmt.Sprintf("%d", v.i)
	case KindReal:
		return fmt.Sprintf("%g", v.r)
	case KindString, KindURI:
		return v.s
	case KindUUID:
		return v.u.String()
	case KindDate:
		return formatDate(v.t)
	case KindBinary:
		return fmt.Sprintf("binary[%d]", len(v.bin))
	case KindArray:
		return fmt.Sprintf("array[%d]", len(v.arr))
	case KindMap:
		return fmt.Sprintf("map[%d]", len(v.m))
	default:
		return v.kind.String()
	}
}
