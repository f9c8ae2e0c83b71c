package llidl_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/llbase/go-llbase/llidl"
	"github.com/llbase/go-llbase/llsd"
)

func parseV(t *testing.T, src string) *llidl.Value {
	t.Helper()
	v, err := llidl.ParseValue(src)
	if err != nil {
		t.Fatalf("ParseValue(%q): %v", src, err)
	}
	return v
}

type specCase struct {
	in   llsd.Value
	want llidl.Result
}

func checkSpec(t *testing.T, src string, cases []specCase) {
	t.Helper()
	v := parseV(t, src)
	for _, c := range cases {
		if got := v.Compare(c.in); got != c.want {
			t.Errorf("%s vs %s: got %v, want %v", src, c.in, got, c.want)
		}
	}
}

var (
	someUUID = uuid.MustParse("6cb93268-5148-423f-8618-eaa0884f5aa8")
	someDate = time.Date(2009, 2, 6, 22, 17, 38, 0, time.UTC)
)

// ---- primitive specifications ----

func TestUndefSpec(t *testing.T) {
	checkSpec(t, "undef", []specCase{
		{llsd.Undef(), llidl.Matched},
		{llsd.Bool(true), llidl.Matched},
		{llsd.Int(3), llidl.Matched},
		{llsd.Real(3.5), llidl.Matched},
		{llsd.String("lemon"), llidl.Matched},
		{llsd.UUID(someUUID), llidl.Matched},
		{llsd.MustFromAny([]any{1, 2}), llidl.Matched},
		{llsd.MustFromAny(map[string]any{"a": 1}), llidl.Matched},
	})
}

func TestBoolSpec(t *testing.T) {
	checkSpec(t, "bool", []specCase{
		{llsd.Undef(), llidl.Defaulted},
		{llsd.Bool(true), llidl.Matched},
		{llsd.Bool(false), llidl.Matched},
		{llsd.Int(0), llidl.Converted},
		{llsd.Int(1), llidl.Converted},
		{llsd.Int(3), llidl.Incompatible},
		{llsd.Real(0), llidl.Converted},
		{llsd.Real(1), llidl.Converted},
		{llsd.Real(0.5), llidl.Incompatible},
		{llsd.String(""), llidl.Converted},
		{llsd.String("true"), llidl.Converted},
		{llsd.String("false"), llidl.Incompatible},
		{llsd.UUID(someUUID), llidl.Incompatible},
		{llsd.MustFromAny([]any{true}), llidl.Incompatible},
	})
}

func TestIntSpec(t *testing.T) {
	checkSpec(t, "int", []specCase{
		{llsd.Undef(), llidl.Defaulted},
		{llsd.Bool(true), llidl.Converted},
		{llsd.Int(3), llidl.Matched},
		{llsd.Real(3), llidl.Converted},
		{llsd.Real(3.5), llidl.Incompatible},
		{llsd.String(""), llidl.Defaulted},
		{llsd.String("42"), llidl.Converted},
		{llsd.String("42.0"), llidl.Converted},
		{llsd.String("three"), llidl.Incompatible},
		{llsd.Date(someDate), llidl.Incompatible},
		{llsd.MustFromAny([]any{1}), llidl.Incompatible},
	})
}

func TestRealSpec(t *testing.T) {
	checkSpec(t, "real", []specCase{
		{llsd.Undef(), llidl.Defaulted},
		{llsd.Bool(false), llidl.Converted},
		{llsd.Int(3), llidl.Converted},
		{llsd.Real(3.5), llidl.Matched},
		{llsd.String(""), llidl.Defaulted},
		{llsd.String("1.5"), llidl.Converted},
		{llsd.String("huge"), llidl.Incompatible},
		{llsd.MustFromAny(map[string]any{}), llidl.Incompatible},
	})
}

func TestStringSpec(t *testing.T) {
	checkSpec(t, "string", []specCase{
		{llsd.Undef(), llidl.Defaulted},
		{llsd.String("lemon"), llidl.Matched},
		{llsd.String(""), llidl.Matched},
		{llsd.Bool(true), llidl.Converted},
		{llsd.Int(3), llidl.Converted},
		{llsd.Real(3.5), llidl.Converted},
		{llsd.Date(someDate), llidl.Converted},
		{llsd.UUID(someUUID), llidl.Converted},
		{llsd.URI("http://example.com/"), llidl.Converted},
		{llsd.Binary([]byte("raw")), llidl.Incompatible},
	})
}

func TestDateSpec(t *testing.T) {
	checkSpec(t, "date", []specCase{
		{llsd.Undef(), llidl.Defaulted},
		{llsd.Date(someDate), llidl.Matched},
		{llsd.String(""), llidl.Defaulted},
		{llsd.String("2009-02-06T22:17:38Z"), llidl.Converted},
		{llsd.String("2009-02-06T22:17:38.42Z"), llidl.Converted},
		{llsd.String("last tuesday"), llidl.Incompatible},
		{llsd.Int(3), llidl.Incompatible},
	})
}

func TestUUIDSpec(t *testing.T) {
	checkSpec(t, "uuid", []specCase{
		{llsd.Undef(), llidl.Defaulted},
		{llsd.UUID(someUUID), llidl.Matched},
		{llsd.String(""), llidl.Defaulted},
		{llsd.String("6cb93268-5148-423f-8618-eaa0884f5aa8"), llidl.Converted},
		{llsd.String("katamari"), llidl.Incompatible},
		{llsd.Int(3), llidl.Incompatible},
	})
}

func TestURISpec(t *testing.T) {
	checkSpec(t, "uri", []specCase{
		{llsd.Undef(), llidl.Defaulted},
		{llsd.URI("http://example.com/"), llidl.Matched},
		{llsd.String(""), llidl.Defaulted},
		{llsd.String("http://example.com/"), llidl.Converted},
		{llsd.Int(3), llidl.Incompatible},
	})
}

func TestBinarySpec(t *testing.T) {
	checkSpec(t, "binary", []specCase{
		{llsd.Undef(), llidl.Defaulted},
		{llsd.Binary([]byte{1, 2, 3}), llidl.Matched},
		{llsd.String("AAEC"), llidl.Incompatible},
		{llsd.Int(3), llidl.Incompatible},
	})
}

// ---- selector specifications ----

func TestTrueSelector(t *testing.T) {
	checkSpec(t, "true", []specCase{
		{llsd.Bool(true), llidl.Matched},
		{llsd.Bool(false), llidl.Incompatible},
		{llsd.Int(1), llidl.Converted},
		{llsd.Int(0), llidl.Incompatible},
		{llsd.Real(1), llidl.Converted},
		{llsd.String("true"), llidl.Converted},
		{llsd.String(""), llidl.Incompatible},
		// an absent value defaults to false, which can never be true
		{llsd.Undef(), llidl.Incompatible},
	})
}

func TestFalseSelector(t *testing.T) {
	checkSpec(t, "false", []specCase{
		{llsd.Undef(), llidl.Defaulted},
		{llsd.Bool(false), llidl.Matched},
		{llsd.Bool(true), llidl.Incompatible},
		{llsd.Int(0), llidl.Converted},
		{llsd.Int(1), llidl.Incompatible},
		{llsd.Real(0), llidl.Converted},
		{llsd.String(""), llidl.Converted},
		{llsd.String("false"), llidl.Incompatible},
	})
}

func TestNumberSelector(t *testing.T) {
	checkSpec(t, "16", []specCase{
		{llsd.Int(16), llidl.Matched},
		{llsd.Int(15), llidl.Incompatible},
		{llsd.Real(16), llidl.Converted},
		// fractions truncate before the comparison
		{llsd.Real(16.2), llidl.Converted},
		{llsd.String("16"), llidl.Converted},
		{llsd.String("seventeen"), llidl.Incompatible},
		{llsd.Undef(), llidl.Incompatible},
	})
}

func TestNameSelector(t *testing.T) {
	checkSpec(t, `"red"`, []specCase{
		{llsd.String("red"), llidl.Matched},
		{llsd.String("blue"), llidl.Incompatible},
		{llsd.Int(3), llidl.Incompatible},
		{llsd.Undef(), llidl.Incompatible},
	})
}

// ---- composite specifications ----

func TestFixedArray(t *testing.T) {
	checkSpec(t, "[ int, string ]", []specCase{
		{llsd.MustFromAny([]any{1, "a"}), llidl.Matched},
		{llsd.MustFromAny([]any{1}), llidl.Defaulted},
		{llsd.Undef(), llidl.Defaulted},
		{llsd.MustFromAny([]any{1, "a", true}), llidl.Additional},
		{llsd.MustFromAny([]any{1, 2}), llidl.Converted},
		{llsd.MustFromAny([]any{"one", "a"}), llidl.Incompatible},
		{llsd.Int(3), llidl.Incompatible},
	})
}

func TestRepeatingArray(t *testing.T) {
	checkSpec(t, "[ int, ... ]", []specCase{
		{llsd.MustFromAny([]any{}), llidl.Matched},
		{llsd.MustFromAny([]any{1, 2, 3}), llidl.Matched},
		{llsd.MustFromAny([]any{1, "two"}), llidl.Incompatible},
	})

	// a repeating group pads the tail with undef to a full period
	checkSpec(t, "[ int, string, ... ]", []specCase{
		{llsd.MustFromAny([]any{1, "a", 2, "b"}), llidl.Matched},
		{llsd.MustFromAny([]any{1, "a", 2}), llidl.Defaulted},
	})
}

func TestArrayDrift(t *testing.T) {
	v := parseV(t, "[ int, int, int ]")
	for _, short := range [][]any{{}, {1}, {1, 2}} {
		if !v.HasDefaulted(llsd.MustFromAny(short)) {
			t.Errorf("%v should read as defaulted", short)
		}
		if !v.Valid(llsd.MustFromAny(short)) {
			t.Errorf("%v should still be valid", short)
		}
	}
	if !v.Match(llsd.MustFromAny([]any{1, 2, 3})) {
		t.Error("full array should match")
	}
	if !v.HasAdditional(llsd.MustFromAny([]any{1, 2, 3, 4})) {
		t.Error("overlong array should read as additional")
	}
}

func TestFixedMap(t *testing.T) {
	checkSpec(t, "{ name: string, size: int }", []specCase{
		{llsd.MustFromAny(map[string]any{"name": "ball", "size": 2}), llidl.Matched},
		{llsd.MustFromAny(map[string]any{"name": "ball"}), llidl.Defaulted},
		{llsd.Undef(), llidl.Defaulted},
		{llsd.MustFromAny(map[string]any{"name": "ball", "size": 2, "hue": "red"}), llidl.Additional},
		{llsd.MustFromAny(map[string]any{"size": 2, "hue": "red"}), llidl.Mixed},
		{llsd.MustFromAny(map[string]any{"name": "ball", "size": "large"}), llidl.Incompatible},
		{llsd.Int(3), llidl.Incompatible},
	})
}

func TestOpenDict(t *testing.T) {
	checkSpec(t, "{ $: int }", []specCase{
		{llsd.MustFromAny(map[string]any{"a": 1, "b": 2}), llidl.Matched},
		{llsd.MustFromAny(map[string]any{"a": "36"}), llidl.Converted},
		{llsd.MustFromAny(map[string]any{"a": "bee"}), llidl.Incompatible},
		{llsd.MustFromAny(map[string]any{}), llidl.Matched},
		{llsd.Undef(), llidl.Matched},
		{llsd.MustFromAny(map[string]any{"a": "x"}), llidl.Incompatible},
		{llsd.MustFromAny([]any{1}), llidl.Incompatible},
	})
}

func TestNestedValue(t *testing.T) {
	v := parseV(t, "{ loc: [ real, real, real ], tags: { $: string } }")
	good := llsd.MustFromAny(map[string]any{
		"loc":  []any{128.0, 128.0, 24.0},
		"tags": map[string]any{"zone": "hub"},
	})
	if !v.Match(good) {
		t.Errorf("nested value should match: got %v", v.Compare(good))
	}
	bad := llsd.MustFromAny(map[string]any{
		"loc":  []any{128.0, "x", 24.0},
		"tags": map[string]any{"zone": "hub"},
	})
	if !v.Incompatible(bad) {
		t.Errorf("nested value should be incompatible: got %v", v.Compare(bad))
	}
}

// ---- thresholds and diagnostics ----

func TestMatchValidThresholds(t *testing.T) {
	v := parseV(t, "{ size: int }")
	exact := llsd.MustFromAny(map[string]any{"size": 42})
	extra := llsd.MustFromAny(map[string]any{"size": 42, "hue": "red"})
	wrong := llsd.MustFromAny(map[string]any{"size": "large"})

	if !v.Match(exact) || !v.Valid(exact) {
		t.Error("exact value should match and be valid")
	}
	if v.Match(extra) {
		t.Error("extra data should fail Match")
	}
	if !v.Valid(extra) {
		t.Error("extra data should still be valid")
	}
	if v.Match(wrong) || v.Valid(wrong) {
		t.Error("incompatible value should fail both thresholds")
	}
	if !v.HasAdditional(extra) {
		t.Error("HasAdditional should report the extra member")
	}
	if !v.HasDefaulted(llsd.MustFromAny(map[string]any{})) {
		t.Error("HasDefaulted should report the missing member")
	}
}

func TestCheckDiagnostics(t *testing.T) {
	v := parseV(t, "{ agent_id: uuid }")
	if err := v.Check(llsd.MustFromAny(map[string]any{"agent_id": someUUID}), llidl.Converted); err != nil {
		t.Fatalf("conforming value should pass Check: %v", err)
	}

	err := v.Check(llsd.MustFromAny(map[string]any{"agent_id": "katamari"}), llidl.Converted)
	if err == nil {
		t.Fatal("expected a match error")
	}
	me, ok := llidl.AsMatchError(err)
	if !ok {
		t.Fatalf("expected *MatchError, got %T", err)
	}
	if !strings.Contains(me.Msg, "map::agent_id") {
		t.Errorf("diagnostic missing path: %q", me.Msg)
	}
	if !strings.Contains(me.Msg, "<<INCOMPATIBLE>>") {
		t.Errorf("diagnostic missing outcome: %q", me.Msg)
	}
}

func TestCheckArrayPath(t *testing.T) {
	v := parseV(t, "[ int, int ]")
	err := v.Check(llsd.MustFromAny([]any{1, "two"}), llidl.Converted)
	if err == nil {
		t.Fatal("expected a match error")
	}
	if !strings.Contains(err.Error(), "array::1") {
		t.Errorf("diagnostic should name the failing index: %q", err.Error())
	}
}
