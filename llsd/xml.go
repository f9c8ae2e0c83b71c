package llsd

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FormatXML serializes v as application/llsd+xml.
//
// See http://wiki.secondlife.com/wiki/LLSD#XML_Serialization
func FormatXML(v Value) ([]byte, error) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" ?>`)
	b.WriteString("<llsd>")
	if err := xmlGenerate(&b, v); err != nil {
		return nil, err
	}
	b.WriteString("</llsd>")
	return []byte(b.String()), nil
}

// FormatPrettyXML serializes v as llsd+xml with two-space indentation, for
// human consumption. The output still parses with ParseXML.
func FormatPrettyXML(v Value) ([]byte, error) {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" ?>\n<llsd>\n")
	if err := xmlGeneratePretty(&b, v, 1); err != nil {
		return nil, err
	}
	b.WriteString("</llsd>\n")
	return []byte(b.String()), nil
}

func xmlElt(b *strings.Builder, name, contents string) {
	if contents == "" {
		b.WriteString("<" + name + " />")
		return
	}
	b.WriteString("<" + name + ">")
	b.WriteString(contents)
	b.WriteString("</" + name + ">")
}

func xmlEsc(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func xmlGenerate(b *strings.Builder, v Value) error {
	switch v.kind {
	case KindUndefined:
		xmlElt(b, "undef", "")
	case KindBoolean:
		if v.b {
			xmlElt(b, "boolean", "true")
		} else {
			xmlElt(b, "boolean", "false")
		}
	case KindInteger:
		xmlElt(b, "integer", strconv.FormatInt(v.i, 10))
	case KindReal:
		xmlElt(b, "real", strconv.FormatFloat(v.r, 'g', -1, 64))
	case KindUUID:
		if v.u == (uuid.UUID{}) {
			xmlElt(b, "uuid", "")
		} else {
			xmlElt(b, "uuid", v.u.String())
		}
	case KindString:
		xmlElt(b, "string", xmlEsc(v.s))
	case KindURI:
		xmlElt(b, "uri", xmlEsc(v.s))
	case KindDate:
		xmlElt(b, "date", formatDate(v.t))
	case KindBinary:
		xmlElt(b, "binary", base64.StdEncoding.EncodeToString(v.bin))
	case KindArray:
		b.WriteString("<array>")
		for _, e := range v.arr {
			if err := xmlGenerate(b, e); err != nil {
				return err
			}
		}
		b.WriteString("</array>")
	case KindMap:
		b.WriteString("<map>")
		for _, k := range v.Keys() {
			xmlElt(b, "key", xmlEsc(k))
			if err := xmlGenerate(b, v.m[k]); err != nil {
				return err
			}
		}
		b.WriteString("</map>")
	default:
		return &SerializationError{Msg: "cannot serialize kind " + v.kind.String()}
	}
	return nil
}

func xmlGeneratePretty(b *strings.Builder, v Value, depth int) error {
	indent := strings.Repeat("  ", depth)
	switch v.kind {
	case KindArray:
		b.WriteString(indent + "<array>\n")
		for _, e := range v.arr {
			if err := xmlGeneratePretty(b, e, depth+1); err != nil {
				return err
			}
		}
		b.WriteString(indent + "</array>\n")
	case KindMap:
		b.WriteString(indent + "<map>\n")
		for _, k := range v.Keys() {
			b.WriteString(indent + "  ")
			xmlElt(b, "key", xmlEsc(k))
			b.WriteString("\n")
			if err := xmlGeneratePretty(b, v.m[k], depth+1); err != nil {
				return err
			}
		}
		b.WriteString(indent + "</map>\n")
	default:
		b.WriteString(indent)
		if err := xmlGenerate(b, v); err != nil {
			return err
		}
		b.WriteString("\n")
	}
	return nil
}

// ParseXML decodes application/llsd+xml input.
func ParseXML(data []byte) (Value, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	// Find the opening <llsd> element.
	for {
		tok, err := dec.Token()
		if err != nil {
			return Undef(), parseErrf(int(dec.InputOffset()), "invalid llsd+xml: %v", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local != "llsd" {
				return Undef(), parseErrf(int(dec.InputOffset()), "expected <llsd> root, found <%s>", se.Name.Local)
			}
			break
		}
	}
	v, err := xmlDecodeValue(dec)
	if err != nil {
		return Undef(), err
	}
	return v, nil
}

// xmlDecodeValue decodes the next value element inside the current container.
func xmlDecodeValue(dec *xml.Decoder) (Value, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return Undef(), parseErrf(int(dec.InputOffset()), "truncated llsd+xml: %v", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return xmlDecodeElement(dec, t)
		case xml.EndElement:
			return Undef(), parseErrf(int(dec.InputOffset()), "unexpected </%s>", t.Name.Local)
		case xml.CharData, xml.Comment, xml.ProcInst, xml.Directive:
			// skip whitespace between elements
		}
	}
}

func xmlDecodeElement(dec *xml.Decoder, se xml.StartElement) (Value, error) {
	switch se.Name.Local {
	case "undef":
		if err := dec.Skip(); err != nil {
			return Undef(), parseErrf(int(dec.InputOffset()), "bad undef element: %v", err)
		}
		return Undef(), nil
	case "boolean":
		text, err := xmlText(dec)
		if err != nil {
			return Undef(), err
		}
		switch text {
		case "1", "1.0", "true":
			return Bool(true), nil
		default:
			return Bool(false), nil
		}
	case "integer":
		text, err := xmlText(dec)
		if err != nil {
			return Undef(), err
		}
		if strings.TrimSpace(text) == "" {
			return Int(0), nil
		}
		i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return Undef(), parseErrf(int(dec.InputOffset()), "bad integer %q", text)
		}
		return Int(i), nil
	case "real":
		text, err := xmlText(dec)
		if err != nil {
			return Undef(), err
		}
		if strings.TrimSpace(text) == "" {
			return Real(0), nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return Undef(), parseErrf(int(dec.InputOffset()), "bad real %q", text)
		}
		return Real(f), nil
	case "uuid":
		text, err := xmlText(dec)
		if err != nil {
			return Undef(), err
		}
		if text == "" {
			return UUID(uuid.UUID{}), nil
		}
		u, err := uuid.Parse(text)
		if err != nil {
			return Undef(), parseErrf(int(dec.InputOffset()), "bad uuid %q", text)
		}
		return UUID(u), nil
	case "string":
		text, err := xmlText(dec)
		if err != nil {
			return Undef(), err
		}
		return String(text), nil
	case "uri":
		text, err := xmlText(dec)
		if err != nil {
			return Undef(), err
		}
		return URI(text), nil
	case "date":
		text, err := xmlText(dec)
		if err != nil {
			return Undef(), err
		}
		t, err := parseDate(text)
		if err != nil {
			return Undef(), err
		}
		return Date(t), nil
	case "binary":
		enc := "base64"
		for _, a := range se.Attr {
			if a.Name.Local == "encoding" {
				enc = a.Value
			}
		}
		text, err := xmlText(dec)
		if err != nil {
			return Undef(), err
		}
		var raw []byte
		switch enc {
		case "base64":
			raw, err = base64.StdEncoding.DecodeString(strings.TrimSpace(text))
		case "base16":
			raw, err = decodeBase16(strings.TrimSpace(text))
		default:
			return Undef(), parseErrf(int(dec.InputOffset()), "unsupported binary encoding %q", enc)
		}
		if err != nil {
			return Undef(), parseErrf(int(dec.InputOffset()), "bad binary data: %v", err)
		}
		return Binary(raw), nil
	case "array":
		var elems []Value
		for {
			tok, err := dec.Token()
			if err != nil {
				return Undef(), parseErrf(int(dec.InputOffset()), "unterminated array: %v", err)
			}
			switch t := tok.(type) {
			case xml.StartElement:
				e, err := xmlDecodeElement(dec, t)
				if err != nil {
					return Undef(), err
				}
				elems = append(elems, e)
			case xml.EndElement:
				return Array(elems...), nil
			}
		}
	case "map":
		members := map[string]Value{}
		for {
			tok, err := dec.Token()
			if err != nil {
				return Undef(), parseErrf(int(dec.InputOffset()), "unterminated map: %v", err)
			}
			switch t := tok.(type) {
			case xml.StartElement:
				if t.Name.Local != "key" {
					return Undef(), parseErrf(int(dec.InputOffset()), "expected <key>, found <%s>", t.Name.Local)
				}
				key, err := xmlText(dec)
				if err != nil {
					return Undef(), err
				}
				val, err := xmlDecodeValue(dec)
				if err != nil {
					return Undef(), err
				}
				members[key] = val
			case xml.EndElement:
				return Map(members), nil
			}
		}
	default:
		return Undef(), parseErrf(int(dec.InputOffset()), "unknown llsd+xml element <%s>", se.Name.Local)
	}
}

// xmlText collects character data up to the current element's end tag.
func xmlText(dec *xml.Decoder) (string, error) {
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return "", parseErrf(int(dec.InputOffset()), "truncated element")
			}
			return "", parseErrf(int(dec.InputOffset()), "bad element: %v", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			return b.String(), nil
		case xml.StartElement:
			return "", parseErrf(int(dec.InputOffset()), "unexpected <%s> in scalar element", t.Name.Local)
		}
	}
}

func decodeBase16(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, parseErrf(-1, "odd-length base16 data")
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexNybble(s[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexNybble(s[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNybble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, parseErrf(-1, "invalid hex character %q", string(c))
	}
}
