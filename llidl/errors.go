package llidl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/llbase/go-llbase/llsd"
)

// ParseError describes a structural problem in LLIDL source text. Line and
// Char are 1-based; Char counts characters since the last newline.
type ParseError struct {
	Msg  string
	Line int
	Char int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, char %d: %s", e.Line, e.Char, e.Msg)
}

// AsParseError extracts a *ParseError from err using errors.As.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// MatchError reports a mismatch between an LLSD value and an LLIDL
// specification, annotated with the path of matcher kinds down to the first
// point of failure. Variant exhaustion produces one line per alternative.
type MatchError struct {
	Msg string
}

func (e *MatchError) Error() string { return e.Msg }

// AsMatchError extracts a *MatchError from err using errors.As.
func AsMatchError(err error) (*MatchError, bool) {
	var me *MatchError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}

// UnknownResourceError is returned when a Suite is queried for a resource
// name it does not define. This is a lookup failure, distinct from any match
// outcome.
type UnknownResourceError struct {
	Name string
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("resource name %q not found in suite", e.Name)
}

// ---- failure diagnostics ----

// failure captures the first comparison that fell below the active raise
// level. Callers annotate it with a path segment as each recursion level
// returns, so the full path exists only once the walk has unwound.
type failure struct {
	path    []segment
	kind    string // matcher description at the failure site
	value   string // rendered actual value
	outcome Result

	// variant exhaustion carries the failure of every alternative instead of
	// a single leaf.
	variant string
	alts    []*failure
}

type segment struct {
	kind string
	key  string
}

func leafFailure(kind string, actual llsd.Value, r Result) *failure {
	return &failure{kind: kind, value: actual.String(), outcome: r}
}

func (f *failure) push(kind, key string) {
	f.path = append([]segment{{kind: kind, key: key}}, f.path...)
}

// render produces one line per failing path, outermost segment first:
//
//	map::agent_id -> uuid (not-a-uuid) <<INCOMPATIBLE>>
func (f *failure) render(prefix []string) []string {
	parts := append([]string{}, prefix...)
	for _, s := range f.path {
		parts = append(parts, fmt.Sprintf("%s::%s", s.kind, s.key))
	}
	if f.alts != nil {
		parts = append(parts, "&"+f.variant)
		var lines []string
		for _, alt := range f.alts {
			lines = append(lines, alt.render(parts)...)
		}
		return lines
	}
	parts = append(parts, fmt.Sprintf("%s (%s)", f.kind, f.value))
	return []string{fmt.Sprintf("%s <<%s>>", strings.Join(parts, " -> "), f.outcome)}
}

func (f *failure) matchError() *MatchError {
	return &MatchError{Msg: strings.Join(f.render(nil), "\n")}
}
