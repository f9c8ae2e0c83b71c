// Package llidl parses LLIDL interface descriptions and checks concrete
// LLSD values against them.
//
// LLIDL describes the shape of LLSD data flowing through an interface:
// primitive types (undef, bool, int, real, string, date, uuid, uri, binary),
// literal selectors (true, false, integers, quoted names), arrays with an
// optional repeating tail, maps with fixed members, open dicts, and named
// variants. A suite groups the request and response descriptions of a set of
// named resources.
//
// Checking is graded rather than boolean. Comparing a value to a
// specification yields a Result on a small lattice: Matched (exact),
// Converted (legal LLSD conversions applied), Defaulted (data missing,
// defaults used), Additional (extra data present), Mixed (both kinds of
// drift), and Incompatible. Value.Match requires at least Converted;
// Value.Valid accepts anything above Incompatible. Value.Check returns a
// diagnostic error pinpointing the first failure below a chosen threshold.
//
// Typical use:
//
//	spec, err := llidl.ParseValue(`{ id: uuid, name: string }`)
//	if err != nil { ... }
//	if !spec.Match(actual) {
//		err := spec.Check(actual, llidl.Converted)
//		...
//	}
//
// Suites work the same way per resource:
//
//	suite, err := llidl.ParseSuite(src)
//	ok, err := suite.MatchResponse("agent/info", actual)
package llidl
