package llsd

import (
	"bytes"
	"encoding/base64"

	gojson "github.com/goccy/go-json"
)

// FormatJSON serializes v as plain JSON. Dates render as canonical timestamp
// strings, uuids and uris as strings, binary as a base64 string. The mapping
// is lossy (JSON has no distinct tags for those kinds); round-trips come back
// as strings.
func FormatJSON(v Value) ([]byte, error) {
	out, err := gojson.Marshal(jsonProject(v))
	if err != nil {
		return nil, &SerializationError{Msg: err.Error()}
	}
	return out, nil
}

// jsonProject is Any() with binary rendered base64 so the output stays a JSON
// string rather than an array of numbers.
func jsonProject(v Value) any {
	switch v.kind {
	case KindBinary:
		return base64.StdEncoding.EncodeToString(v.bin)
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = jsonProject(e)
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = jsonProject(e)
		}
		return out
	default:
		return v.Any()
	}
}

// ParseJSON decodes a JSON document into a Value. Numbers decode as integers
// when they fit without loss, reals otherwise.
func ParseJSON(data []byte) (Value, error) {
	var tree any
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&tree); err != nil {
		return Undef(), parseErrf(-1, "invalid json: %v", err)
	}
	v, err := FromAny(tree)
	if err != nil {
		return Undef(), parseErrf(-1, "invalid json tree: %v", err)
	}
	return v, nil
}
