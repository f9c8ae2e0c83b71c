package llidl

import (
	"github.com/llbase/go-llbase/llsd"
)

// Value is a single parsed LLIDL value specification. Values are immutable
// and safe for concurrent use.
//
// Match answers whether a concrete LLSD value conforms with every conversion
// valid; Valid additionally tolerates defaulted and additional drift. Check
// runs the same comparison but returns a diagnostic error describing the
// first point of failure when the threshold is not met.
type Value struct {
	root  *node
	suite *Suite // non-nil when the value belongs to a parsed suite
}

// Compare classifies actual against the specification, returning the raw
// lattice outcome. Comparison is a pure read-only walk: the same inputs
// always produce the same Result.
func (v *Value) Compare(actual llsd.Value) Result {
	r, _ := compare(v.root, actual, cmpOpts{suite: v.suite})
	return r
}

// Match reports whether actual conforms to the specification with the
// structure as expected and all conversions valid (outcome at least
// Converted).
func (v *Value) Match(actual llsd.Value) bool {
	return v.Compare(actual).AtLeast(Converted)
}

// Valid reports whether actual conforms structurally, accepting defaulted or
// additional data (outcome at least Mixed).
func (v *Value) Valid(actual llsd.Value) bool {
	return v.Compare(actual).AtLeast(Mixed)
}

// Check compares actual against the specification and returns a *MatchError
// describing the first failure when the outcome falls below level. A nil
// return means the threshold was met.
func (v *Value) Check(actual llsd.Value, level Result) error {
	r, f := compare(v.root, actual, cmpOpts{suite: v.suite, raising: true, level: level})
	if r.AtLeast(level) {
		return nil
	}
	if f != nil {
		return f.matchError()
	}
	return &MatchError{Msg: "did not match"}
}

// HasAdditional reports whether actual carries structure beyond the
// specification.
func (v *Value) HasAdditional(actual llsd.Value) bool {
	r := v.Compare(actual)
	return r == Additional || r == Mixed
}

// HasDefaulted reports whether actual is missing data the specification
// declares.
func (v *Value) HasDefaulted(actual llsd.Value) bool {
	r := v.Compare(actual)
	return r == Defaulted || r == Mixed
}

// Incompatible reports whether actual cannot be reconciled with the
// specification at all.
func (v *Value) Incompatible(actual llsd.Value) bool {
	return v.Compare(actual) == Incompatible
}
