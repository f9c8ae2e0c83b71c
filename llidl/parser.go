package llidl

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parser is a hand-rolled recursive-descent parser over LLIDL source text.
// Errors abort the parse through a panic/recover bailout confined to this
// file; the public entry points convert it to a *ParseError.
type parser struct {
	src        string
	offset     int
	line       int // 0-based; reported 1-based
	lineOffset int // offset of the current line's first character
}

type bailout struct{ err *ParseError }

func (p *parser) errorf(format string, args ...any) {
	panic(bailout{&ParseError{
		Msg:  fmt.Sprintf(format, args...),
		Line: p.line + 1,
		Char: p.offset - p.lineOffset + 1,
	}})
}

func (p *parser) eof() bool { return p.offset == len(p.src) }

// literal consumes lit when it appears at the current offset.
func (p *parser) literal(lit string) bool {
	if strings.HasPrefix(p.src[p.offset:], lit) {
		p.offset += len(lit)
		return true
	}
	return false
}

// skipSpace consumes spaces, tabs and `;` line comments, tracking newlines
// (`\n`, `\r\n` or `\r`) for error positions.
func (p *parser) skipSpace() {
	for {
		for p.offset < len(p.src) {
			switch c := p.src[p.offset]; {
			case c == ' ' || c == '\t':
				p.offset++
			case c == ';':
				for p.offset < len(p.src) && p.src[p.offset] != '\n' && p.src[p.offset] != '\r' {
					p.offset++
				}
			default:
				goto newline
			}
		}
	newline:
		if p.offset < len(p.src) && (p.src[p.offset] == '\n' || p.src[p.offset] == '\r') {
			if p.src[p.offset] == '\r' && p.offset+1 < len(p.src) && p.src[p.offset+1] == '\n' {
				p.offset++
			}
			p.offset++
			p.line++
			p.lineOffset = p.offset
			continue
		}
		return
	}
}

// number consumes a run of decimal digits, returning "" when none.
func (p *parser) number() string {
	start := p.offset
	for p.offset < len(p.src) && p.src[p.offset] >= '0' && p.src[p.offset] <= '9' {
		p.offset++
	}
	return p.src[start:p.offset]
}

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9') || c == '/'
}

// name consumes a name, returning "" when none is present. Hyphens are not
// legal inside names, but consuming them here (except when they begin a `->`
// arrow) catches a very common error and attributes it to the name rather
// than the next token.
func (p *parser) name() string {
	if p.offset >= len(p.src) || !isNameStart(p.src[p.offset]) {
		return ""
	}
	start := p.offset
	p.offset++
	for p.offset < len(p.src) {
		c := p.src[p.offset]
		if isNameChar(c) {
			p.offset++
			continue
		}
		if c == '-' && !(p.offset+1 < len(p.src) && p.src[p.offset+1] == '>') {
			p.offset++
			continue
		}
		break
	}
	n := p.src[start:p.offset]
	if strings.Contains(n, "-") {
		p.errorf("malformed name: hyphen (-) not allowed")
	}
	return n
}

// Primitive and keyword-selector nodes are stateless, so every occurrence of
// a keyword shares one node.
var (
	undefNode = &node{kind: nodeUndef}

	typeNodes = map[string]*node{
		"undef":  undefNode,
		"bool":   {kind: nodeBool},
		"int":    {kind: nodeInt},
		"real":   {kind: nodeReal},
		"string": {kind: nodeString},
		"date":   {kind: nodeDate},
		"uuid":   {kind: nodeUUID},
		"uri":    {kind: nodeURI},
		"binary": {kind: nodeBinary},
		"true":   {kind: nodeTrue},
		"false":  {kind: nodeFalse},
	}
)

// value parses one value specification, returning nil when the input does
// not begin one.
func (p *parser) value() *node {
	if p.literal(`"`) {
		n := p.name()
		if n == "" {
			p.errorf("expected name in quotes")
		}
		if !p.literal(`"`) {
			p.errorf("expected close quote")
		}
		return &node{kind: nodeName, name: n}
	}
	if p.literal("[") {
		return p.restOfArray()
	}
	if p.literal("{") {
		return p.restOfMap()
	}
	if p.literal("&") {
		n := p.name()
		if n == "" {
			p.errorf("expected variant name")
		}
		return &node{kind: nodeVariant, name: n}
	}
	if num := p.number(); num != "" {
		i, err := strconv.ParseInt(num, 10, 64)
		if err != nil {
			p.errorf("number out of range")
		}
		return &node{kind: nodeNumber, number: i}
	}
	if n := p.name(); n != "" {
		if t, ok := typeNodes[n]; ok {
			return t
		}
		p.errorf("unknown type")
	}
	return nil
}

func (p *parser) restOfArray() *node {
	p.skipSpace()
	var children []*node
	repeating := false
	for {
		v := p.value()
		if v == nil {
			break
		}
		children = append(children, v)
		p.skipSpace()
		if p.literal(",") {
			p.skipSpace()
		} else {
			break
		}
	}
	if p.literal("...") {
		repeating = true
		p.skipSpace()
	}
	if !p.literal("]") {
		p.errorf("expected close bracket")
	}
	if len(children) == 0 {
		p.errorf("empty array")
	}
	return &node{kind: nodeArray, children: children, repeating: repeating}
}

func (p *parser) restOfMap() *node {
	p.skipSpace()
	if p.literal("$") {
		p.skipSpace()
		if !p.literal(":") {
			p.errorf("expected colon")
		}
		p.skipSpace()
		v := p.value()
		if v == nil {
			p.errorf("expected value")
		}
		p.skipSpace()
		if !p.literal("}") {
			p.errorf("expected close bracket")
		}
		return &node{kind: nodeDict, elem: v}
	}

	members := map[string]*node{}
	var seq []string
	for {
		k := p.name()
		if k == "" {
			break
		}
		if _, dup := members[k]; dup {
			p.errorf("duplicate key in map")
		}
		p.skipSpace()
		if !p.literal(":") {
			p.errorf("expected colon")
		}
		p.skipSpace()
		v := p.value()
		if v == nil {
			p.errorf("expected value")
		}
		members[k] = v
		seq = append(seq, k)
		p.skipSpace()
		if p.literal(",") {
			p.skipSpace()
		} else {
			break
		}
	}
	if !p.literal("}") {
		p.errorf("expected close bracket")
	}
	if len(members) == 0 {
		p.errorf("empty map")
	}
	return &node{kind: nodeMap, members: members, memberSeq: seq}
}

// bodyValue parses the single body value of a `<<`, `>>`, `<>` or `<x>`
// resource form.
func (p *parser) bodyValue() *node {
	p.skipSpace()
	v := p.value()
	if v == nil {
		p.errorf("expected body value")
	}
	return v
}

func (p *parser) restOfResource(s *Suite) {
	p.skipSpace()
	name := p.name()
	if name == "" {
		p.errorf("expected resource name")
	}
	if s.hasResource(name) {
		p.errorf("duplicate resource name")
	}
	p.skipSpace()

	var req, res *node
	switch {
	case p.literal("->"):
		p.skipSpace()
		req = p.value()
		if req == nil {
			p.errorf("expected request value")
		}
		p.skipSpace()
		if !p.literal("<-") {
			p.errorf("expected result arrow")
		}
		p.skipSpace()
		res = p.value()
		if res == nil {
			p.errorf("expected result value")
		}
	case p.literal("<<"):
		req, res = undefNode, p.bodyValue()
	case p.literal(">>"):
		req, res = p.bodyValue(), undefNode
	case p.literal("<>"):
		body := p.bodyValue()
		req, res = body, body
	case p.literal("<x>"):
		body := p.bodyValue()
		req, res = body, body
	default:
		p.errorf("unknown resource type, expected ->, <<, >>, <> or <x>")
	}
	s.addResource(name, req, res)
}

func (p *parser) restOfVariant(s *Suite) {
	name := p.name()
	if name == "" {
		p.errorf("expected variant name")
	}
	p.skipSpace()
	if !p.literal("=") {
		p.errorf("expected equals sign")
	}
	p.skipSpace()
	v := p.value()
	if v == nil {
		p.errorf("expected variant value")
	}
	s.addVariant(name, v)
}

func (p *parser) suite() *Suite {
	s := newSuite()
	for {
		p.skipSpace()
		if p.literal("%%") {
			p.restOfResource(s)
		} else if p.literal("&") {
			p.restOfVariant(s)
		} else {
			break
		}
	}
	if missing := s.missingVariants(); len(missing) > 0 {
		p.errorf("missing definitions of variants: %s", strings.Join(missing, ", "))
	}
	return s
}

func (p *parser) run(parse func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			err = b.err
		}
	}()
	parse()
	return nil
}

// ---- public entry points ----

// ParseValue parses the LLIDL specification of a single free-standing value.
// The whole input must be consumed: leading or trailing text, including
// whitespace, is a parse error.
func ParseValue(src string) (*Value, error) {
	p := &parser{src: src}
	var root *node
	err := p.run(func() {
		root = p.value()
		if root == nil {
			p.errorf("expected value")
		}
		if !p.eof() {
			p.errorf("expected end of input")
		}
	})
	if err != nil {
		return nil, err
	}
	return &Value{root: root}, nil
}

// ParseValueReader drains r fully, then parses it as a single value
// specification.
func ParseValueReader(r io.Reader) (*Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseValue(string(data))
}

// ParseSuite parses a whole LLIDL suite: any number of `%%` resource
// definitions and `&name = value` variant definitions. Every variant
// referenced anywhere in the suite must be defined at least once; the check
// runs eagerly when parsing completes.
func ParseSuite(src string) (*Suite, error) {
	p := &parser{src: src}
	var s *Suite
	err := p.run(func() {
		s = p.suite()
		if !p.eof() {
			p.errorf("expected end of input")
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ParseSuiteReader drains r fully, then parses it as a suite.
func ParseSuiteReader(r io.Reader) (*Suite, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseSuite(string(data))
}
