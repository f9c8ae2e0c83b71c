package llsd

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FormatNotation serializes v as application/llsd+notation.
//
// See http://wiki.secondlife.com/wiki/LLSD#Notation_Serialization
func FormatNotation(v Value) ([]byte, error) {
	var b strings.Builder
	if err := notationGenerate(&b, v); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func notationEscape(s string, delim byte) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c == delim {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

func notationGenerate(b *strings.Builder, v Value) error {
	switch v.kind {
	case KindUndefined:
		b.WriteByte('!')
	case KindBoolean:
		if v.b {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindInteger:
		b.WriteByte('i')
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindReal:
		b.WriteByte('r')
		b.WriteString(strconv.FormatFloat(v.r, 'g', -1, 64))
	case KindUUID:
		b.WriteByte('u')
		b.WriteString(v.u.String())
	case KindString:
		b.WriteByte('\'')
		b.WriteString(notationEscape(v.s, '\''))
		b.WriteByte('\'')
	case KindURI:
		b.WriteString(`l"`)
		b.WriteString(notationEscape(v.s, '"'))
		b.WriteByte('"')
	case KindDate:
		b.WriteString(`d"`)
		b.WriteString(formatDate(v.t))
		b.WriteByte('"')
	case KindBinary:
		b.WriteString(`b64"`)
		b.WriteString(base64.StdEncoding.EncodeToString(v.bin))
		b.WriteByte('"')
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := notationGenerate(b, e); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		first := true
		for _, k := range v.Keys() {
			if !first {
				b.WriteByte(',')
			}
			first = false
			b.WriteByte('\'')
			b.WriteString(notationEscape(k, '\''))
			b.WriteString("':")
			if err := notationGenerate(b, v.m[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return &SerializationError{Msg: "cannot serialize kind " + v.kind.String()}
	}
	return nil
}

// ParseNotation decodes application/llsd+notation input.
func ParseNotation(data []byte) (Value, error) {
	if len(data) == 0 {
		return Bool(false), nil
	}
	p := &notationParser{buf: data}
	return p.parse()
}

type notationParser struct {
	buf []byte
	idx int
}

func (p *notationParser) errf(format string, args ...any) error {
	return parseErrf(p.idx, format, args...)
}

func (p *notationParser) peek() (byte, error) {
	if p.idx >= len(p.buf) {
		return 0, p.errf("unexpected end of data")
	}
	return p.buf[p.idx], nil
}

func (p *notationParser) getc() (byte, error) {
	c, err := p.peek()
	if err != nil {
		return 0, err
	}
	p.idx++
	return c, nil
}

func (p *notationParser) getn(n int) ([]byte, error) {
	if p.idx+n > len(p.buf) {
		return nil, p.errf("trying to read past end of buffer")
	}
	s := p.buf[p.idx : p.idx+n]
	p.idx += n
	return s, nil
}

func (p *notationParser) getUntil(delim byte) ([]byte, error) {
	start := p.idx
	for i := start; i < len(p.buf); i++ {
		if p.buf[i] == delim {
			p.idx = i + 1
			return p.buf[start:i], nil
		}
	}
	return nil, p.errf("missing %q delimiter", string(delim))
}

func (p *notationParser) parse() (Value, error) {
	cc, err := p.peek()
	if err != nil {
		return Undef(), err
	}
	switch {
	case cc == '{':
		return p.parseMap()
	case cc == '[':
		return p.parseArray()
	case cc == '!':
		p.idx++
		return Undef(), nil
	case cc == '0':
		p.idx++
		return Bool(false), nil
	case cc == '1':
		p.idx++
		return Bool(true), nil
	case cc == 'F' || cc == 'f':
		if !p.eatWord("FALSE") && !p.eatWord("false") && !p.eatWord("F") && !p.eatWord("f") {
			return Undef(), p.errf("expected 'false' token")
		}
		return Bool(false), nil
	case cc == 'T' || cc == 't':
		if !p.eatWord("TRUE") && !p.eatWord("true") && !p.eatWord("T") && !p.eatWord("t") {
			return Undef(), p.errf("expected 'true' token")
		}
		return Bool(true), nil
	case cc == 'i':
		p.idx++
		return p.parseInteger()
	case cc == 'r':
		p.idx++
		return p.parseReal()
	case cc == 'u':
		p.idx++
		raw, err := p.getn(36)
		if err != nil {
			return Undef(), err
		}
		u, err := uuid.Parse(string(raw))
		if err != nil {
			return Undef(), p.errf("bad uuid: %v", err)
		}
		return UUID(u), nil
	case cc == '\'' || cc == '"' || cc == 's':
		s, err := p.parseString()
		if err != nil {
			return Undef(), err
		}
		return String(s), nil
	case cc == 'l':
		p.idx++
		s, err := p.parseString()
		if err != nil {
			return Undef(), err
		}
		return URI(s), nil
	case cc == 'd':
		p.idx++
		s, err := p.parseString()
		if err != nil {
			return Undef(), err
		}
		t, err := parseDate(s)
		if err != nil {
			return Undef(), err
		}
		return Date(t), nil
	case cc == 'b':
		p.idx++
		return p.parseBinary()
	default:
		return Undef(), p.errf("invalid token %q", string(cc))
	}
}

func (p *notationParser) eatWord(w string) bool {
	if strings.HasPrefix(string(p.buf[p.idx:]), w) {
		rest := p.idx + len(w)
		// single-letter forms must not swallow the head of a longer word
		if len(w) == 1 && rest < len(p.buf) && isAlpha(p.buf[rest]) {
			return false
		}
		p.idx = rest
		return true
	}
	return false
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (p *notationParser) parseInteger() (Value, error) {
	start := p.idx
	if c, err := p.peek(); err == nil && (c == '-' || c == '+') {
		p.idx++
	}
	for p.idx < len(p.buf) && p.buf[p.idx] >= '0' && p.buf[p.idx] <= '9' {
		p.idx++
	}
	if p.idx == start {
		return Undef(), p.errf("invalid integer token")
	}
	i, err := strconv.ParseInt(string(p.buf[start:p.idx]), 10, 64)
	if err != nil {
		return Undef(), p.errf("bad integer: %v", err)
	}
	return Int(i), nil
}

func (p *notationParser) parseReal() (Value, error) {
	start := p.idx
	for p.idx < len(p.buf) {
		c := p.buf[p.idx]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' ||
			c == 'e' || c == 'E' || c == 'i' || c == 'n' || c == 'f' || c == 'a' {
			p.idx++
			continue
		}
		break
	}
	if p.idx == start {
		return Undef(), p.errf("invalid real token")
	}
	f, err := strconv.ParseFloat(string(p.buf[start:p.idx]), 64)
	if err != nil {
		return Undef(), p.errf("bad real: %v", err)
	}
	return Real(f), nil
}

func (p *notationParser) parseBinary() (Value, error) {
	cc, err := p.peek()
	if err != nil {
		return Undef(), err
	}
	if cc == '(' {
		p.idx++
		sz, err := p.getUntil(')')
		if err != nil {
			return Undef(), p.errf("invalid binary size")
		}
		n, err := strconv.Atoi(string(sz))
		if err != nil || n < 0 {
			return Undef(), p.errf("invalid binary size %q", string(sz))
		}
		if q, err := p.getc(); err != nil || q != '"' {
			return Undef(), p.errf(`expected " to start binary value`)
		}
		raw, err := p.getn(n)
		if err != nil {
			return Undef(), err
		}
		if q, err := p.getc(); err != nil || q != '"' {
			return Undef(), p.errf(`expected " to end binary value`)
		}
		return Binary(raw), nil
	}
	base, err := p.getn(2)
	if err != nil {
		return Undef(), err
	}
	if q, err := p.getc(); err != nil || q != '"' {
		return Undef(), p.errf(`expected " to start binary value`)
	}
	encoded, err := p.getUntil('"')
	if err != nil {
		return Undef(), err
	}
	switch string(base) {
	case "16":
		raw, err := decodeBase16(string(encoded))
		if err != nil {
			return Undef(), p.errf("encoded binary data: %v", err)
		}
		return Binary(raw), nil
	case "64":
		raw, err := base64.StdEncoding.DecodeString(string(encoded))
		if err != nil {
			return Undef(), p.errf("encoded binary data: %v", err)
		}
		return Binary(raw), nil
	default:
		return Undef(), p.errf("found unsupported binary encoding")
	}
}

func (p *notationParser) parseMap() (Value, error) {
	members := map[string]Value{}
	p.idx++ // eat '{'
	var key string
	foundKey := false
	for {
		cc, err := p.peek()
		if err != nil {
			return Undef(), p.errf("unclosed map")
		}
		if cc == '}' {
			p.idx++
			return Map(members), nil
		}
		if !foundKey {
			switch {
			case cc == '\'' || cc == '"' || cc == 's':
				key, err = p.parseString()
				if err != nil {
					return Undef(), err
				}
				foundKey = true
			case isSpace(cc) || cc == ',':
				p.idx++
			default:
				return Undef(), p.errf("invalid map key")
			}
			continue
		}
		switch {
		case isSpace(cc):
			p.idx++
		case cc == ':':
			p.idx++
			val, err := p.parse()
			if err != nil {
				return Undef(), err
			}
			members[key] = val
			foundKey = false
		default:
			return Undef(), p.errf("missing separator")
		}
	}
}

func (p *notationParser) parseArray() (Value, error) {
	var elems []Value
	p.idx++ // eat '['
	for {
		cc, err := p.peek()
		if err != nil {
			return Undef(), p.errf("unclosed array")
		}
		if cc == ']' {
			p.idx++
			return Array(elems...), nil
		}
		if isSpace(cc) || cc == ',' {
			p.idx++
			continue
		}
		e, err := p.parse()
		if err != nil {
			return Undef(), err
		}
		elems = append(elems, e)
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func (p *notationParser) parseString() (string, error) {
	cc, err := p.peek()
	if err != nil {
		return "", err
	}
	switch cc {
	case '\'', '"':
		return p.parseStringDelim()
	case 's':
		return p.parseStringRaw()
	default:
		return "", p.errf("invalid string token")
	}
}

// parseStringDelim handles quoted strings with backslash escapes, including
// the \xNN byte escape form.
func (p *notationParser) parseStringDelim() (string, error) {
	delim, _ := p.getc()
	var b strings.Builder
	for {
		cc, err := p.getc()
		if err != nil {
			return "", err
		}
		if cc == delim {
			return b.String(), nil
		}
		if cc != '\\' {
			b.WriteByte(cc)
			continue
		}
		esc, err := p.getc()
		if err != nil {
			return "", err
		}
		switch esc {
		case 'x':
			hexd, err := p.getn(2)
			if err != nil {
				return "", err
			}
			hi, err := hexNybble(hexd[0])
			if err != nil {
				return "", err
			}
			lo, err := hexNybble(hexd[1])
			if err != nil {
				return "", err
			}
			b.WriteByte(hi<<4 | lo)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		default:
			b.WriteByte(esc)
		}
	}
}

// parseStringRaw handles the sized form s(len)"raw data".
func (p *notationParser) parseStringRaw() (string, error) {
	p.idx++ // eat 's'
	if c, err := p.getc(); err != nil || c != '(' {
		return "", p.errf("invalid string token")
	}
	sz, err := p.getUntil(')')
	if err != nil {
		return "", p.errf("invalid string size")
	}
	n, err := strconv.Atoi(string(sz))
	if err != nil || n < 0 {
		return "", p.errf("invalid string size %q", string(sz))
	}
	delim, err := p.getc()
	if err != nil || (delim != '\'' && delim != '"') {
		return "", p.errf("invalid string token")
	}
	raw, err := p.getn(n)
	if err != nil {
		return "", err
	}
	if c, err := p.getc(); err != nil || c != delim {
		return "", p.errf("invalid string closure token")
	}
	return string(raw), nil
}
