package llsd

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// FromAny builds a Value from the loosely typed trees produced by JSON and
// YAML decoders (map[string]any, []any, scalars). Native llsd, uuid and time
// values pass through with their exact kind.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Undef(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return Undef(), &SerializationError{Msg: fmt.Sprintf("integer overflow: %d", x)}
		}
		return Int(int64(x)), nil
	case float32:
		return Real(float64(x)), nil
	case float64:
		return Real(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Undef(), &SerializationError{Msg: "bad number: " + x.String()}
		}
		return Real(f), nil
	case string:
		return String(x), nil
	case []byte:
		return Binary(x), nil
	case time.Time:
		return Date(x), nil
	case uuid.UUID:
		return UUID(x), nil
	case []any:
		elems := make([]Value, len(x))
		for i, e := range x {
			ev, err := FromAny(e)
			if err != nil {
				return Undef(), err
			}
			elems[i] = ev
		}
		return Array(elems...), nil
	case map[string]any:
		members := make(map[string]Value, len(x))
		for k, e := range x {
			ev, err := FromAny(e)
			if err != nil {
				return Undef(), err
			}
			members[k] = ev
		}
		return Map(members), nil
	case map[any]any:
		// yaml.v3 historically produced this shape for nested maps.
		members := make(map[string]Value, len(x))
		for k, e := range x {
			ks, ok := k.(string)
			if !ok {
				return Undef(), &SerializationError{Msg: fmt.Sprintf("non-string map key: %v", k)}
			}
			ev, err := FromAny(e)
			if err != nil {
				return Undef(), err
			}
			members[ks] = ev
		}
		return Map(members), nil
	default:
		return Undef(), &SerializationError{Msg: fmt.Sprintf("cannot convert %T", v)}
	}
}

// MustFromAny is FromAny for test fixtures and literals; it panics on
// unconvertible input.
func MustFromAny(v any) Value {
	val, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return val
}

// Any projects a Value back onto the loose tree shape used by JSON and YAML
// encoders. Dates become canonical timestamp strings, uuids and uris strings,
// binary a byte slice.
func (v Value) Any() any {
	switch v.kind {
	case KindUndefined:
		return nil
	case KindBoolean:
		return v.b
	case KindInteger:
		return v.i
	case KindReal:
		return v.r
	case KindString, KindURI:
		return v.s
	case KindUUID:
		return v.u.String()
	case KindDate:
		return formatDate(v.t)
	case KindBinary:
		return v.bin
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Any()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.Any()
		}
		return out
	default:
		return nil
	}
}
