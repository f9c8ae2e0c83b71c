package llidl

// Result classifies how well a concrete LLSD value conformed to a
// specification when compared.
//
// The six values form a lattice ordered by tier:
//
//	Matched > Converted > {Defaulted, Additional} > Mixed > Incompatible
//
// Defaulted and Additional share a tier but are distinct: a comparison that
// produced both collapses to Mixed. Threshold checks (AtLeast) operate on
// tiers, so both Defaulted and Additional satisfy AtLeast(Mixed) while
// neither equals the other.
type Result uint8

// The high nybble is the ordering tier, the low nybble disambiguates
// same-tier values.
const (
	// Incompatible: values were present that do not match and cannot be
	// converted.
	Incompatible Result = 0x00
	// Mixed: the structure drifted in both directions, some data defaulted
	// and some additional.
	Mixed Result = 0x10
	// Additional: the value carries structure beyond what the specification
	// declares; it will be ignored.
	Additional Result = 0x21
	// Defaulted: parts of the structure were missing or undef and read as
	// default values, typically data from an older schema revision.
	Defaulted Result = 0x22
	// Converted: the structure is as expected but some values needed a lossy
	// type conversion, typically data that passed through a more restrictive
	// type system.
	Converted Result = 0x30
	// Matched: the structure and every value type are exactly as specified.
	Matched Result = 0x40
)

func (r Result) tier() uint8 { return uint8(r) >> 4 }

// And folds r with o across sibling members or elements: the structurally
// worse outcome wins, and a tie between distinct same-tier outcomes
// (Defaulted vs Additional) collapses to Mixed.
func (r Result) And(o Result) Result {
	rt, ot := r.tier(), o.tier()
	if rt < ot {
		return r
	}
	if ot < rt {
		return o
	}
	if r != o {
		return Mixed
	}
	return r
}

// Or folds r with o across variant alternatives: the better outcome wins,
// keeping the receiver on ties.
func (r Result) Or(o Result) Result {
	if r.tier() >= o.tier() {
		return r
	}
	return o
}

// AtLeast reports whether r sits at or above level's tier. It is the
// threshold test behind Match (level Converted) and Valid (level Mixed).
func (r Result) AtLeast(level Result) bool { return r.tier() >= level.tier() }

func (r Result) String() string {
	switch r {
	case Incompatible:
		return "INCOMPATIBLE"
	case Mixed:
		return "MIXED"
	case Additional:
		return "ADDITIONAL"
	case Defaulted:
		return "DEFAULTED"
	case Converted:
		return "CONVERTED"
	case Matched:
		return "MATCHED"
	default:
		return "UNKNOWN"
	}
}
