package llidl

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/llbase/go-llbase/llsd"
)

// nodeKind enumerates every specification node form. The set is closed:
// compare dispatches over it exhaustively, and each scalar comparison
// switches exhaustively over the LLSD value kinds.
type nodeKind uint8

const (
	nodeUndef nodeKind = iota
	nodeBool
	nodeInt
	nodeReal
	nodeString
	nodeDate
	nodeUUID
	nodeURI
	nodeBinary
	nodeTrue
	nodeFalse
	nodeNumber  // integer selector, e.g. 16
	nodeName    // string selector, e.g. "red"
	nodeArray   // fixed or repeating element sequence
	nodeMap     // fixed named members
	nodeDict    // open map, one value type over arbitrary keys
	nodeVariant // named alternative set resolved through the Suite
)

// node is one immutable specification tree node. Which fields apply depends
// on kind; nodes are never mutated after parsing.
type node struct {
	kind      nodeKind
	number    int64            // nodeNumber
	name      string           // nodeName selector text, nodeVariant name
	children  []*node          // nodeArray
	repeating bool             // nodeArray
	members   map[string]*node // nodeMap
	memberSeq []string         // nodeMap declaration order
	elem      *node            // nodeDict
}

func (n *node) describe() string {
	switch n.kind {
	case nodeUndef:
		return "undef"
	case nodeBool:
		return "bool"
	case nodeInt:
		return "int"
	case nodeReal:
		return "real"
	case nodeString:
		return "string"
	case nodeDate:
		return "date"
	case nodeUUID:
		return "uuid"
	case nodeURI:
		return "uri"
	case nodeBinary:
		return "binary"
	case nodeTrue:
		return "true"
	case nodeFalse:
		return "false"
	case nodeNumber:
		return strconv.FormatInt(n.number, 10)
	case nodeName:
		return fmt.Sprintf("%q", n.name)
	case nodeArray:
		return "array"
	case nodeMap:
		return "map"
	case nodeDict:
		return "dict"
	case nodeVariant:
		return "&" + n.name
	default:
		return "node"
	}
}

// cmpOpts threads the comparison environment through the recursive walk: the
// owning Suite for variant resolution (nil for free-standing values) and the
// optional raise threshold that switches on diagnostic collection.
type cmpOpts struct {
	suite   *Suite
	raising bool
	level   Result
}

func (o cmpOpts) below(r Result) bool { return o.raising && !r.AtLeast(o.level) }

// compare classifies actual against n, returning the lattice outcome and,
// when a raise level is active and violated, a diagnostic describing the
// first failure found.
func compare(n *node, actual llsd.Value, opt cmpOpts) (Result, *failure) {
	switch n.kind {
	case nodeUndef:
		// wildcard: everything matches
		return Matched, nil
	case nodeBool:
		return leaf(n, actual, opt, compareBool(actual))
	case nodeInt:
		return leaf(n, actual, opt, compareInt(actual))
	case nodeReal:
		return leaf(n, actual, opt, compareReal(actual))
	case nodeString:
		return leaf(n, actual, opt, compareString(actual))
	case nodeDate:
		return leaf(n, actual, opt, compareDate(actual))
	case nodeUUID:
		return leaf(n, actual, opt, compareUUID(actual))
	case nodeURI:
		return leaf(n, actual, opt, compareURI(actual))
	case nodeBinary:
		return leaf(n, actual, opt, compareBinary(actual))
	case nodeTrue:
		return leaf(n, actual, opt, compareTrue(actual))
	case nodeFalse:
		return leaf(n, actual, opt, compareFalse(actual))
	case nodeNumber:
		return leaf(n, actual, opt, compareNumber(n.number, actual))
	case nodeName:
		return leaf(n, actual, opt, compareName(n.name, actual))
	case nodeArray:
		return compareArray(n, actual, opt)
	case nodeMap:
		return compareMap(n, actual, opt)
	case nodeDict:
		return compareDict(n, actual, opt)
	case nodeVariant:
		return compareVariant(n, actual, opt)
	default:
		return Incompatible, nil
	}
}

func leaf(n *node, actual llsd.Value, opt cmpOpts, r Result) (Result, *failure) {
	if opt.below(r) {
		return r, leafFailure(n.describe(), actual, r)
	}
	return r, nil
}

// ---- scalar classification ----

// LLSD is weakly typed, so each rule expresses tolerance for
// cross-representation conversions while still flagging real incompatibility.

func compareBool(actual llsd.Value) Result {
	switch actual.Kind() {
	case llsd.KindUndefined:
		return Defaulted
	case llsd.KindBoolean:
		return Matched
	case llsd.KindInteger:
		if i := actual.AsInt(); i == 0 || i == 1 {
			return Converted
		}
		return Incompatible
	case llsd.KindReal:
		if r := actual.AsReal(); r == 0.0 || r == 1.0 {
			return Converted
		}
		return Incompatible
	case llsd.KindString:
		if s := actual.AsString(); s == "" || s == "true" {
			return Converted
		}
		return Incompatible
	case llsd.KindDate, llsd.KindUUID, llsd.KindURI, llsd.KindBinary,
		llsd.KindArray, llsd.KindMap:
		return Incompatible
	default:
		return Incompatible
	}
}

func compareInt(actual llsd.Value) Result {
	switch actual.Kind() {
	case llsd.KindUndefined:
		return Defaulted
	case llsd.KindBoolean:
		return Converted
	case llsd.KindInteger:
		return Matched
	case llsd.KindReal:
		if isExactIntegral(actual.AsReal()) {
			return Converted
		}
		return Incompatible
	case llsd.KindString:
		s := actual.AsString()
		if s == "" {
			return Defaulted
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && isExactIntegral(f) {
			return Converted
		}
		return Incompatible
	case llsd.KindDate, llsd.KindUUID, llsd.KindURI, llsd.KindBinary,
		llsd.KindArray, llsd.KindMap:
		return Incompatible
	default:
		return Incompatible
	}
}

func compareReal(actual llsd.Value) Result {
	switch actual.Kind() {
	case llsd.KindUndefined:
		return Defaulted
	case llsd.KindBoolean, llsd.KindInteger:
		return Converted
	case llsd.KindReal:
		return Matched
	case llsd.KindString:
		s := actual.AsString()
		if s == "" {
			return Defaulted
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return Converted
		}
		return Incompatible
	case llsd.KindDate, llsd.KindUUID, llsd.KindURI, llsd.KindBinary,
		llsd.KindArray, llsd.KindMap:
		return Incompatible
	default:
		return Incompatible
	}
}

func compareString(actual llsd.Value) Result {
	switch actual.Kind() {
	case llsd.KindUndefined:
		return Defaulted
	case llsd.KindString:
		return Matched
	case llsd.KindBinary:
		return Incompatible
	case llsd.KindBoolean, llsd.KindInteger, llsd.KindReal, llsd.KindDate,
		llsd.KindUUID, llsd.KindURI:
		// stringifiable scalars
		return Converted
	case llsd.KindArray, llsd.KindMap:
		// composites also count as stringifiable
		return Converted
	default:
		return Converted
	}
}

func compareDate(actual llsd.Value) Result {
	switch actual.Kind() {
	case llsd.KindUndefined:
		return Defaulted
	case llsd.KindDate:
		return Matched
	case llsd.KindString:
		s := actual.AsString()
		if s == "" {
			return Defaulted
		}
		if dateSelRE.MatchString(s) {
			return Converted
		}
		return Incompatible
	case llsd.KindBoolean, llsd.KindInteger, llsd.KindReal, llsd.KindUUID,
		llsd.KindURI, llsd.KindBinary, llsd.KindArray, llsd.KindMap:
		return Incompatible
	default:
		return Incompatible
	}
}

func compareUUID(actual llsd.Value) Result {
	switch actual.Kind() {
	case llsd.KindUndefined:
		return Defaulted
	case llsd.KindUUID:
		return Matched
	case llsd.KindString:
		s := actual.AsString()
		if s == "" {
			return Defaulted
		}
		if uuidSelRE.MatchString(s) {
			return Converted
		}
		return Incompatible
	case llsd.KindBoolean, llsd.KindInteger, llsd.KindReal, llsd.KindDate,
		llsd.KindURI, llsd.KindBinary, llsd.KindArray, llsd.KindMap:
		return Incompatible
	default:
		return Incompatible
	}
}

func compareURI(actual llsd.Value) Result {
	switch actual.Kind() {
	case llsd.KindUndefined:
		return Defaulted
	case llsd.KindURI:
		return Matched
	case llsd.KindString:
		if actual.AsString() == "" {
			return Defaulted
		}
		// any non-empty string is a candidate URI
		return Converted
	case llsd.KindBoolean, llsd.KindInteger, llsd.KindReal, llsd.KindDate,
		llsd.KindUUID, llsd.KindBinary, llsd.KindArray, llsd.KindMap:
		return Incompatible
	default:
		return Incompatible
	}
}

func compareBinary(actual llsd.Value) Result {
	switch actual.Kind() {
	case llsd.KindUndefined:
		return Defaulted
	case llsd.KindBinary:
		return Matched
	default:
		// no lossy conversion into binary
		return Incompatible
	}
}

// ---- selector classification ----

// Selectors accept exactly one literal; any other concrete value of the right
// kind is incompatible. They encode tagged-union discrimination.

func compareTrue(actual llsd.Value) Result {
	switch actual.Kind() {
	case llsd.KindBoolean:
		if actual.AsBool() {
			return Matched
		}
		return Incompatible
	case llsd.KindInteger:
		if actual.AsInt() == 1 {
			return Converted
		}
		return Incompatible
	case llsd.KindReal:
		if actual.AsReal() == 1.0 {
			return Converted
		}
		return Incompatible
	case llsd.KindString:
		if actual.AsString() == "true" {
			return Converted
		}
		return Incompatible
	default:
		// an absent value defaults to false, which cannot satisfy true
		return Incompatible
	}
}

func compareFalse(actual llsd.Value) Result {
	switch actual.Kind() {
	case llsd.KindUndefined:
		return Defaulted
	case llsd.KindBoolean:
		if !actual.AsBool() {
			return Matched
		}
		return Incompatible
	case llsd.KindInteger:
		if actual.AsInt() == 0 {
			return Converted
		}
		return Incompatible
	case llsd.KindReal:
		if actual.AsReal() == 0.0 {
			return Converted
		}
		return Incompatible
	case llsd.KindString:
		if actual.AsString() == "" {
			return Converted
		}
		return Incompatible
	default:
		return Incompatible
	}
}

func compareNumber(want int64, actual llsd.Value) Result {
	var got int64
	r := Converted
	switch actual.Kind() {
	case llsd.KindUndefined:
		got, r = 0, Defaulted
	case llsd.KindBoolean:
		if actual.AsBool() {
			got = 1
		}
	case llsd.KindInteger:
		got, r = actual.AsInt(), Matched
	case llsd.KindReal:
		// fractional reals truncate for selector comparison
		got = int64(actual.AsReal())
	case llsd.KindString:
		s := actual.AsString()
		if s == "" {
			got, r = 0, Defaulted
			break
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Incompatible
		}
		got = int64(f)
	default:
		return Incompatible
	}
	if got != want {
		return Incompatible
	}
	return r
}

func compareName(want string, actual llsd.Value) Result {
	switch actual.Kind() {
	case llsd.KindUndefined:
		if want == "" {
			return Defaulted
		}
		return Incompatible
	case llsd.KindString:
		if actual.AsString() == want {
			return Matched
		}
		return Incompatible
	default:
		return Incompatible
	}
}

// ---- composite comparison ----

// roundup rounds v up to the next multiple of m, with roundup(0, m) == 0 so a
// repeating array accepts the empty sequence.
func roundup(v, m int) int {
	if v <= 0 {
		return 0
	}
	return ((v-1)/m + 1) * m
}

func compareArray(n *node, actual llsd.Value, opt cmpOpts) (Result, *failure) {
	if actual.Kind() != llsd.KindArray && actual.Kind() != llsd.KindUndefined {
		return leaf(n, actual, opt, Incompatible)
	}

	r := Matched
	vlen := len(n.children)
	alen := actual.Len() // 0 for undef: treated as the empty sequence
	tlen := vlen
	if n.repeating {
		tlen = roundup(alen, vlen)
	} else if alen > vlen {
		r = r.And(Additional)
		if opt.below(r) {
			return r, leafFailure(n.describe(), actual, Additional)
		}
	}

	for i := 0; i < tlen; i++ {
		var ev llsd.Value
		if i < alen {
			ev = actual.Index(i)
		}
		cr, cf := compare(n.children[i%vlen], ev, opt)
		r = r.And(cr)
		if cf != nil {
			cf.push("array", strconv.Itoa(i))
			return r, cf
		}
	}
	return r, nil
}

func compareMap(n *node, actual llsd.Value, opt cmpOpts) (Result, *failure) {
	if actual.Kind() != llsd.KindMap && actual.Kind() != llsd.KindUndefined {
		return leaf(n, actual, opt, Incompatible)
	}

	r := Matched
	for _, name := range n.memberSeq {
		cr, cf := compare(n.members[name], actual.Member(name), opt)
		r = r.And(cr)
		if cf != nil {
			cf.push("map", name)
			return r, cf
		}
	}
	// extra keys are tolerated but flagged once
	for _, key := range actual.Keys() {
		if _, declared := n.members[key]; !declared {
			r = r.And(Additional)
			if opt.below(r) {
				return r, leafFailure(n.describe(), llsd.String(key), Additional)
			}
			break
		}
	}
	return r, nil
}

func compareDict(n *node, actual llsd.Value, opt cmpOpts) (Result, *failure) {
	if actual.Kind() != llsd.KindMap && actual.Kind() != llsd.KindUndefined {
		return leaf(n, actual, opt, Incompatible)
	}

	r := Matched
	for _, key := range actual.Keys() {
		cr, cf := compare(n.elem, actual.Member(key), opt)
		r = r.And(cr)
		if cf != nil {
			cf.push("dict", key)
			return r, cf
		}
	}
	return r, nil
}

func compareVariant(n *node, actual llsd.Value, opt cmpOpts) (Result, *failure) {
	if opt.suite == nil {
		return leaf(n, actual, opt, Incompatible)
	}
	r := Incompatible
	var alts []*failure
	for _, option := range opt.suite.variantOptions(n.name) {
		cr, cf := compare(option, actual, opt)
		r = r.Or(cr)
		if cf != nil {
			alts = append(alts, cf)
		}
	}
	if len(alts) > 0 && opt.below(r) {
		return r, &failure{variant: n.name, alts: alts}
	}
	return r, nil
}

// variantsReferenced accumulates every variant name reachable from n into
// refs. The suite parser uses it for the eager completeness check.
func variantsReferenced(n *node, refs map[string]bool) {
	switch n.kind {
	case nodeArray:
		for _, c := range n.children {
			variantsReferenced(c, refs)
		}
	case nodeMap:
		for _, c := range n.members {
			variantsReferenced(c, refs)
		}
	case nodeDict:
		variantsReferenced(n.elem, refs)
	case nodeVariant:
		refs[n.name] = true
	}
}

func isExactIntegral(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)
}

var (
	dateSelRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z`)
	uuidSelRE = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)
