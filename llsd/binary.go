package llsd

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zlib"
)

// binaryHeader prefixes a serialized llsd+binary document.
const binaryHeader = "<?llsd/binary?>\n"

// FormatBinary serializes v as application/llsd+binary, including the header
// line.
//
// See http://wiki.secondlife.com/wiki/LLSD#Binary_Serialization
func FormatBinary(v Value) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(binaryHeader)
	if err := binaryGenerate(&b, v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// FormatBinaryCompressed serializes v as zlib-compressed llsd+binary (the
// form used for large simulator payloads). ParseBinary transparently accepts
// the result.
func FormatBinaryCompressed(v Value) ([]byte, error) {
	var body bytes.Buffer
	if err := binaryGenerate(&body, v); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	if _, err := zw.Write(body.Bytes()); err != nil {
		return nil, &SerializationError{Msg: "compress: " + err.Error()}
	}
	if err := zw.Close(); err != nil {
		return nil, &SerializationError{Msg: "compress: " + err.Error()}
	}
	return out.Bytes(), nil
}

func binaryWriteSize(b *bytes.Buffer, n int) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(n))
	b.Write(buf[:])
}

func binaryGenerate(b *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindUndefined:
		b.WriteByte('!')
	case KindBoolean:
		if v.b {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	case KindInteger:
		if v.i > math.MaxInt32 || v.i < math.MinInt32 {
			return &SerializationError{Msg: "integer out of 32-bit range"}
		}
		b.WriteByte('i')
		binaryWriteSize(b, int(v.i))
	case KindReal:
		b.WriteByte('r')
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v.r))
		b.Write(buf[:])
	case KindUUID:
		b.WriteByte('u')
		b.Write(v.u[:])
	case KindString:
		b.WriteByte('s')
		binaryWriteSize(b, len(v.s))
		b.WriteString(v.s)
	case KindURI:
		b.WriteByte('l')
		binaryWriteSize(b, len(v.s))
		b.WriteString(v.s)
	case KindDate:
		// seconds since the epoch, little-endian double (historical quirk)
		b.WriteByte('d')
		secs := float64(v.t.Unix()) + float64(v.t.Nanosecond())/1e9
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(secs))
		b.Write(buf[:])
	case KindBinary:
		b.WriteByte('b')
		binaryWriteSize(b, len(v.bin))
		b.Write(v.bin)
	case KindArray:
		b.WriteByte('[')
		binaryWriteSize(b, len(v.arr))
		for _, e := range v.arr {
			if err := binaryGenerate(b, e); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		binaryWriteSize(b, len(v.m))
		for _, k := range v.Keys() {
			b.WriteByte('k')
			binaryWriteSize(b, len(k))
			b.WriteString(k)
			if err := binaryGenerate(b, v.m[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return &SerializationError{Msg: "cannot serialize kind " + v.kind.String()}
	}
	return nil
}

// ParseBinary decodes application/llsd+binary input. The header line is
// optional, and zlib-compressed documents are detected and inflated first.
func ParseBinary(data []byte) (Value, error) {
	if len(data) >= 2 && data[0] == 0x78 {
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err == nil {
			inflated, rerr := io.ReadAll(zr)
			zr.Close()
			if rerr != nil {
				return Undef(), parseErrf(-1, "bad compressed llsd+binary: %v", rerr)
			}
			data = inflated
		}
	}
	data = bytes.TrimPrefix(data, []byte(binaryHeader))
	data = bytes.TrimPrefix(data, []byte("<?llsd/binary?>"))
	p := &binaryParser{buf: data}
	return p.parse()
}

type binaryParser struct {
	buf []byte
	idx int
}

func (p *binaryParser) errf(format string, args ...any) error {
	return parseErrf(p.idx, format, args...)
}

func (p *binaryParser) getc() (byte, error) {
	if p.idx >= len(p.buf) {
		return 0, p.errf("unexpected end of data")
	}
	c := p.buf[p.idx]
	p.idx++
	return c, nil
}

func (p *binaryParser) getn(n int) ([]byte, error) {
	if n < 0 || p.idx+n > len(p.buf) {
		return nil, p.errf("trying to read past end of buffer")
	}
	s := p.buf[p.idx : p.idx+n]
	p.idx += n
	return s, nil
}

func (p *binaryParser) size() (int, error) {
	raw, err := p.getn(4)
	if err != nil {
		return 0, err
	}
	return int(int32(binary.BigEndian.Uint32(raw))), nil
}

func (p *binaryParser) parse() (Value, error) {
	cc, err := p.getc()
	if err != nil {
		return Undef(), err
	}
	switch cc {
	case '{':
		return p.parseMap()
	case '[':
		return p.parseArray()
	case '!':
		return Undef(), nil
	case '0':
		return Bool(false), nil
	case '1':
		return Bool(true), nil
	case 'i':
		raw, err := p.getn(4)
		if err != nil {
			return Undef(), err
		}
		return Int(int64(int32(binary.BigEndian.Uint32(raw)))), nil
	case 'r':
		raw, err := p.getn(8)
		if err != nil {
			return Undef(), err
		}
		return Real(math.Float64frombits(binary.BigEndian.Uint64(raw))), nil
	case 'u':
		raw, err := p.getn(16)
		if err != nil {
			return Undef(), err
		}
		var u uuid.UUID
		copy(u[:], raw)
		return UUID(u), nil
	case 's':
		s, err := p.parseString()
		if err != nil {
			return Undef(), err
		}
		return String(s), nil
	case 'l':
		s, err := p.parseString()
		if err != nil {
			return Undef(), err
		}
		return URI(s), nil
	case 'd':
		raw, err := p.getn(8)
		if err != nil {
			return Undef(), err
		}
		secs := math.Float64frombits(binary.LittleEndian.Uint64(raw))
		sec := int64(secs)
		nsec := int64((secs - float64(sec)) * 1e9)
		return Date(time.Unix(sec, nsec).UTC()), nil
	case 'b':
		sz, err := p.size()
		if err != nil {
			return Undef(), err
		}
		raw, err := p.getn(sz)
		if err != nil {
			return Undef(), err
		}
		out := make([]byte, len(raw))
		copy(out, raw)
		return Binary(out), nil
	default:
		return Undef(), parseErrf(p.idx-1, "invalid binary token %#x", cc)
	}
}

func (p *binaryParser) parseString() (string, error) {
	sz, err := p.size()
	if err != nil {
		return "", err
	}
	raw, err := p.getn(sz)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (p *binaryParser) parseMap() (Value, error) {
	members := map[string]Value{}
	sz, err := p.size()
	if err != nil {
		return Undef(), err
	}
	for count := 0; count < sz; count++ {
		cc, err := p.getc()
		if err != nil {
			return Undef(), p.errf("found unterminated map")
		}
		if cc == '}' {
			return Map(members), nil
		}
		if cc != 'k' {
			return Undef(), parseErrf(p.idx-1, "invalid map key")
		}
		key, err := p.parseString()
		if err != nil {
			return Undef(), err
		}
		val, err := p.parse()
		if err != nil {
			return Undef(), err
		}
		members[key] = val
	}
	cc, err := p.getc()
	if err != nil || cc != '}' {
		return Undef(), p.errf("invalid map close token")
	}
	return Map(members), nil
}

func (p *binaryParser) parseArray() (Value, error) {
	sz, err := p.size()
	if err != nil {
		return Undef(), err
	}
	elems := make([]Value, 0, max(sz, 0))
	for count := 0; count < sz; count++ {
		e, err := p.parse()
		if err != nil {
			return Undef(), err
		}
		elems = append(elems, e)
	}
	cc, err := p.getc()
	if err != nil || cc != ']' {
		return Undef(), p.errf("invalid array close token")
	}
	return Array(elems...), nil
}
