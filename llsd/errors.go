package llsd

import "fmt"

// ParseError is returned when LLSD input cannot be decoded. Offset is the
// byte position at the failure point, or -1 when unknown.
type ParseError struct {
	Msg    string
	Offset int
}

func (e *ParseError) Error() string {
	if e.Offset < 0 {
		return "llsd: " + e.Msg
	}
	return fmt.Sprintf("llsd: %s at byte %d", e.Msg, e.Offset)
}

func parseErrf(offset int, format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Offset: offset}
}

// SerializationError is returned when a value cannot be represented in the
// requested encoding.
type SerializationError struct {
	Msg string
}

func (e *SerializationError) Error() string { return "llsd: " + e.Msg }
