package llsd_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/llbase/go-llbase/llsd"
)

var (
	testUUID = uuid.MustParse("6cb93268-5148-423f-8618-eaa0884f5aa8")
	// the half-second fraction survives the binary codec's float64 date
	// representation exactly
	testDate = time.Date(2006, 2, 1, 14, 29, 53, 500000000, time.UTC)
)

// sample builds one value exercising every kind.
func sample() llsd.Value {
	return llsd.Map(map[string]llsd.Value{
		"undef":  llsd.Undef(),
		"flag":   llsd.Bool(true),
		"count":  llsd.Int(-42),
		"ratio":  llsd.Real(3.25),
		"name":   llsd.String("it's \\ tricky"),
		"id":     llsd.UUID(testUUID),
		"when":   llsd.Date(testDate),
		"link":   llsd.URI("http://example.com/x?a=1&b=2"),
		"blob":   llsd.Binary([]byte{0, 1, 254, 255}),
		"coords": llsd.Array(llsd.Real(128), llsd.Real(128), llsd.Real(24)),
	})
}

func equalValues(a, b llsd.Value) bool {
	return reflect.DeepEqual(a.Any(), b.Any())
}

func TestFromAny(t *testing.T) {
	cases := []struct {
		in   any
		kind llsd.Kind
	}{
		{nil, llsd.KindUndefined},
		{true, llsd.KindBoolean},
		{42, llsd.KindInteger},
		{int64(42), llsd.KindInteger},
		{3.5, llsd.KindReal},
		{"text", llsd.KindString},
		{[]byte{1, 2}, llsd.KindBinary},
		{testUUID, llsd.KindUUID},
		{testDate, llsd.KindDate},
		{[]any{1, "a"}, llsd.KindArray},
		{map[string]any{"k": 1}, llsd.KindMap},
	}
	for _, c := range cases {
		v, err := llsd.FromAny(c.in)
		if err != nil {
			t.Errorf("FromAny(%#v): %v", c.in, err)
			continue
		}
		if v.Kind() != c.kind {
			t.Errorf("FromAny(%#v): kind %v, want %v", c.in, v.Kind(), c.kind)
		}
	}

	if _, err := llsd.FromAny(struct{}{}); err == nil {
		t.Error("FromAny of a struct should fail")
	}
}

func TestValueAccessors(t *testing.T) {
	v := sample()
	if v.Kind() != llsd.KindMap || v.Len() != 10 {
		t.Fatalf("sample: kind %v len %d", v.Kind(), v.Len())
	}
	if !v.Has("flag") || v.Has("absent") {
		t.Error("Has misreports membership")
	}
	if got := v.Member("count").AsInt(); got != -42 {
		t.Errorf("count = %d", got)
	}
	// missing members read as undef
	if !v.Member("absent").IsUndef() {
		t.Error("absent member should be undef")
	}
	coords := v.Member("coords")
	if coords.Len() != 3 || coords.Index(1).AsReal() != 128 {
		t.Error("coords misread")
	}
	if !coords.Index(99).IsUndef() {
		t.Error("out of range index should be undef")
	}

	keys := v.Keys()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("Keys not sorted: %v", keys)
		}
	}
}

// ---- xml ----

func TestXMLRoundTrip(t *testing.T) {
	in := sample()
	data, err := llsd.FormatXML(in)
	if err != nil {
		t.Fatalf("FormatXML: %v", err)
	}
	out, err := llsd.ParseXML(data)
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}
	if !equalValues(in, out) {
		t.Errorf("round trip drifted:\n in: %#v\nout: %#v", in.Any(), out.Any())
	}

	pretty, err := llsd.FormatPrettyXML(in)
	if err != nil {
		t.Fatalf("FormatPrettyXML: %v", err)
	}
	out, err = llsd.ParseXML(pretty)
	if err != nil {
		t.Fatalf("ParseXML(pretty): %v", err)
	}
	if !equalValues(in, out) {
		t.Error("pretty round trip drifted")
	}
}

func TestParseXMLForms(t *testing.T) {
	cases := []struct {
		src  string
		want llsd.Value
	}{
		{"<llsd><undef /></llsd>", llsd.Undef()},
		{"<llsd><boolean>true</boolean></llsd>", llsd.Bool(true)},
		{"<llsd><boolean /></llsd>", llsd.Bool(false)},
		{"<llsd><integer>289</integer></llsd>", llsd.Int(289)},
		{"<llsd><integer /></llsd>", llsd.Int(0)},
		{"<llsd><real>-0.5</real></llsd>", llsd.Real(-0.5)},
		{"<llsd><string>foo &amp; bar</string></llsd>", llsd.String("foo & bar")},
		{"<llsd><string /></llsd>", llsd.String("")},
		{"<llsd><uuid /></llsd>", llsd.UUID(uuid.UUID{})},
		{"<llsd><date>2006-02-01T14:29:53.500Z</date></llsd>", llsd.Date(testDate)},
		{"<llsd><binary>AAH+/w==</binary></llsd>", llsd.Binary([]byte{0, 1, 254, 255})},
		{`<llsd><binary encoding="base16">00FF</binary></llsd>`, llsd.Binary([]byte{0, 255})},
		{"<llsd><map><key>name</key><string>bob</string></map></llsd>",
			llsd.Map(map[string]llsd.Value{"name": llsd.String("bob")})},
		{"<llsd><array><integer>1</integer><string>two</string></array></llsd>",
			llsd.Array(llsd.Int(1), llsd.String("two"))},
	}
	for _, c := range cases {
		got, err := llsd.ParseXML([]byte(c.src))
		if err != nil {
			t.Errorf("ParseXML(%q): %v", c.src, err)
			continue
		}
		if !equalValues(got, c.want) {
			t.Errorf("ParseXML(%q) = %#v, want %#v", c.src, got.Any(), c.want.Any())
		}
	}
}

func TestParseXMLErrors(t *testing.T) {
	for _, src := range []string{
		"",
		"<llsd>",
		"<llsd><dwarf>3</dwarf></llsd>",
		"<llsd><integer>drei</integer></llsd>",
	} {
		if _, err := llsd.ParseXML([]byte(src)); err == nil {
			t.Errorf("ParseXML(%q): expected error", src)
		}
	}
}

// ---- notation ----

func TestNotationRoundTrip(t *testing.T) {
	in := sample()
	data, err := llsd.FormatNotation(in)
	if err != nil {
		t.Fatalf("FormatNotation: %v", err)
	}
	out, err := llsd.ParseNotation(data)
	if err != nil {
		t.Fatalf("ParseNotation(%q): %v", data, err)
	}
	if !equalValues(in, out) {
		t.Errorf("round trip drifted:\n in: %#v\nout: %#v", in.Any(), out.Any())
	}
}

func TestParseNotationForms(t *testing.T) {
	cases := []struct {
		src  string
		want llsd.Value
	}{
		{"!", llsd.Undef()},
		{"true", llsd.Bool(true)},
		{"T", llsd.Bool(true)},
		{"f", llsd.Bool(false)},
		{"i42", llsd.Int(42)},
		{"i-3", llsd.Int(-3)},
		{"r3.25", llsd.Real(3.25)},
		{"u6cb93268-5148-423f-8618-eaa0884f5aa8", llsd.UUID(testUUID)},
		{"'simple'", llsd.String("simple")},
		{`"double"`, llsd.String("double")},
		{`'esc\'aped'`, llsd.String("esc'aped")},
		{`s(4)"a'b\"`, llsd.String(`a'b\`)},
		{`l"http://example.com/"`, llsd.URI("http://example.com/")},
		{`d"2006-02-01T14:29:53.500Z"`, llsd.Date(testDate)},
		{`b64"AAH+/w=="`, llsd.Binary([]byte{0, 1, 254, 255})},
		{`b16"00FF"`, llsd.Binary([]byte{0, 255})},
		{"[i1,i2,!]", llsd.Array(llsd.Int(1), llsd.Int(2), llsd.Undef())},
		{"[ i1 , i2 ]", llsd.Array(llsd.Int(1), llsd.Int(2))},
		{"{'a':i1,'b':'two'}", llsd.Map(map[string]llsd.Value{
			"a": llsd.Int(1), "b": llsd.String("two"),
		})},
	}
	for _, c := range cases {
		got, err := llsd.ParseNotation([]byte(c.src))
		if err != nil {
			t.Errorf("ParseNotation(%q): %v", c.src, err)
			continue
		}
		if !equalValues(got, c.want) {
			t.Errorf("ParseNotation(%q) = %#v, want %#v", c.src, got.Any(), c.want.Any())
		}
	}
}

func TestParseNotationErrors(t *testing.T) {
	for _, src := range []string{
		"q",
		"i",
		"'unterminated",
		"[i1,i2",
		"{'a'i1}",
		"b99\"00\"",
	} {
		if _, err := llsd.ParseNotation([]byte(src)); err == nil {
			t.Errorf("ParseNotation(%q): expected error", src)
		}
	}
}

// ---- binary ----

func TestBinaryRoundTrip(t *testing.T) {
	in := sample()
	data, err := llsd.FormatBinary(in)
	if err != nil {
		t.Fatalf("FormatBinary: %v", err)
	}
	out, err := llsd.ParseBinary(data)
	if err != nil {
		t.Fatalf("ParseBinary: %v", err)
	}
	if !equalValues(in, out) {
		t.Errorf("round trip drifted:\n in: %#v\nout: %#v", in.Any(), out.Any())
	}
}

func TestBinaryCompressedRoundTrip(t *testing.T) {
	in := sample()
	data, err := llsd.FormatBinaryCompressed(in)
	if err != nil {
		t.Fatalf("FormatBinaryCompressed: %v", err)
	}
	out, err := llsd.ParseBinary(data)
	if err != nil {
		t.Fatalf("ParseBinary(compressed): %v", err)
	}
	if !equalValues(in, out) {
		t.Error("compressed round trip drifted")
	}
}

func TestBinaryIntegerRange(t *testing.T) {
	// the wire format carries 32-bit integers only
	if _, err := llsd.FormatBinary(llsd.Int(1 << 40)); err == nil {
		t.Error("out of range integer should fail to serialize")
	}
}

// ---- json ----

func TestJSONProjection(t *testing.T) {
	in := llsd.Map(map[string]llsd.Value{
		"count": llsd.Int(3),
		"ratio": llsd.Real(0.5),
		"name":  llsd.String("bob"),
		"list":  llsd.Array(llsd.Int(1), llsd.Bool(true)),
	})
	data, err := llsd.FormatJSON(in)
	if err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}
	out, err := llsd.ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if !equalValues(in, out) {
		t.Errorf("projection drifted:\n in: %#v\nout: %#v", in.Any(), out.Any())
	}

	// types JSON cannot carry degrade to strings
	data, err = llsd.FormatJSON(llsd.UUID(testUUID))
	if err != nil {
		t.Fatalf("FormatJSON(uuid): %v", err)
	}
	out, err = llsd.ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON(uuid): %v", err)
	}
	if out.Kind() != llsd.KindString || out.AsString() != testUUID.String() {
		t.Errorf("uuid should degrade to its string form, got %v", out)
	}
}

// ---- format sniffing ----

func TestParseSniffing(t *testing.T) {
	in := sample()
	for _, format := range []func(llsd.Value) ([]byte, error){
		llsd.FormatXML, llsd.FormatNotation, llsd.FormatBinary, llsd.FormatBinaryCompressed,
	} {
		data, err := format(in)
		if err != nil {
			t.Fatalf("format: %v", err)
		}
		out, err := llsd.Parse(data, "")
		if err != nil {
			t.Fatalf("Parse sniffing %q...: %v", data[:min(16, len(data))], err)
		}
		if !equalValues(in, out) {
			t.Error("sniffed parse drifted")
		}
	}
}

func TestParseMimeDispatch(t *testing.T) {
	in := llsd.Array(llsd.Int(1), llsd.String("two"))
	data, err := llsd.FormatXML(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := llsd.Parse(data, llsd.XMLMimeType)
	if err != nil {
		t.Fatalf("Parse(xml mime): %v", err)
	}
	if !equalValues(in, out) {
		t.Error("mime dispatch drifted")
	}
	if _, err := llsd.Parse(data, llsd.BinaryMimeType); err == nil {
		t.Error("xml bytes under binary mime should fail")
	}
}
