// Package rustv0 decodes Rust v0 mangled symbols ("_R..."). The
// grammar compresses repeats with byte-offset backreferences into the
// mangled text itself, so resolution re-parses at the referenced
// offset rather than consulting a side table.
package rustv0

import (
	"errors"
	"strings"
)

var (
	ErrMalformed = errors.New("rustv0: malformed mangled name")
	ErrTruncated = errors.New("rustv0: unexpected end of mangled name")
)

const maxDepth = 256

// Demangle decodes one "_R"-prefixed symbol into its path, failing
// without partial output on any grammar violation.
func Demangle(name string) (string, error) {
	rest, ok := strings.CutPrefix(name, "_R")
	if !ok {
		return "", ErrMalformed
	}
	p := &parser{input: rest}
	out, err := p.parsePath()
	if err != nil {
		return "", err
	}
	// An optional instantiating-crate path may trail; it is not part
	// of the human-readable name.
	if !p.empty() && p.peek() == 'C' {
		if _, err := p.parsePath(); err != nil {
			return "", err
		}
	}
	if !p.empty() {
		return "", ErrMalformed
	}
	return out, nil
}

type parser struct {
	input string
	pos   int
	depth int
}

func (p *parser) empty() bool { return p.pos >= len(p.input) }

func (p *parser) peek() byte {
	if p.empty() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) consume() byte {
	if p.empty() {
		return 0
	}
	b := p.input[p.pos]
	p.pos++
	return b
}

func (p *parser) consumeByte(ch byte) bool {
	if p.peek() != ch {
		return false
	}
	p.pos++
	return true
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isLower(ch byte) bool { return ch >= 'a' && ch <= 'z' }

func isUpper(ch byte) bool { return ch >= 'A' && ch <= 'Z' }

// parseBase62 decodes the scheme's padded base-62 integer: a bare '_'
// is zero, otherwise the digits before '_' encode the value minus one.
func (p *parser) parseBase62() (uint64, error) {
	if p.consumeByte('_') {
		return 0, nil
	}
	var v uint64
	for {
		if p.empty() {
			return 0, ErrTruncated
		}
		ch := p.consume()
		if ch == '_' {
			return v + 1, nil
		}
		switch {
		case isDigit(ch):
			v = v*62 + uint64(ch-'0')
		case isLower(ch):
			v = v*62 + uint64(ch-'a') + 10
		case isUpper(ch):
			v = v*62 + uint64(ch-'A') + 36
		default:
			return 0, ErrMalformed
		}
		if v > 1<<32 {
			return 0, ErrMalformed
		}
	}
}

// parseIdent decodes [s<base62>_] <len> [_] <bytes>. The disambiguator
// has no textual rendering; punycode identifiers are not supported and
// fail the parse.
func (p *parser) parseIdent() (string, error) {
	if p.consumeByte('s') {
		if _, err := p.parseBase62(); err != nil {
			return "", err
		}
	}
	if p.consumeByte('u') {
		return "", ErrMalformed // punycode
	}
	if !isDigit(p.peek()) {
		return "", ErrMalformed
	}
	var n uint64
	for isDigit(p.peek()) {
		n = n*10 + uint64(p.consume()-'0')
		if n > 1<<20 {
			return "", ErrMalformed
		}
	}
	// A '_' separates the length from an identifier starting with a
	// digit or underscore.
	p.consumeByte('_')
	if uint64(len(p.input)-p.pos) < n {
		return "", ErrTruncated
	}
	s := p.input[p.pos : p.pos+int(n)]
	p.pos += int(n)
	return s, nil
}

// parsePath decodes crate roots, nested paths, generic instantiations,
// and backreferences.
func (p *parser) parsePath() (string, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return "", ErrMalformed
	}

	switch p.consume() {
	case 'C':
		return p.parseIdent()
	case 'N':
		ns := p.consume()
		if !isLower(ns) && !isUpper(ns) {
			return "", ErrMalformed
		}
		base, err := p.parsePath()
		if err != nil {
			return "", err
		}
		ident, err := p.parseIdent()
		if err != nil {
			return "", err
		}
		if ident == "" {
			return base, nil
		}
		return base + "::" + ident, nil
	case 'I':
		base, err := p.parsePath()
		if err != nil {
			return "", err
		}
		var args []string
		for !p.consumeByte('E') {
			if p.empty() {
				return "", ErrTruncated
			}
			arg, err := p.parseGenericArg()
			if err != nil {
				return "", err
			}
			args = append(args, arg)
		}
		return base + "::<" + strings.Join(args, ", ") + ">", nil
	case 'B':
		return p.parseBackref(p.parsePath)
	default:
		return "", ErrMalformed
	}
}

// parseBackref re-parses the production at the referenced offset, then
// restores the cursor.
func (p *parser) parseBackref(production func() (string, error)) (string, error) {
	offset, err := p.parseBase62()
	if err != nil {
		return "", err
	}
	if offset >= uint64(len(p.input)) {
		return "", ErrMalformed
	}
	saved := p.pos
	p.pos = int(offset)
	out, err := production()
	p.pos = saved
	return out, err
}

var basicTypes = map[byte]string{
	'a': "i8", 'b': "bool", 'c': "char", 'd': "f64", 'e': "str",
	'f': "f32", 'h': "u8", 'i': "isize", 'j': "usize", 'l': "i32",
	'm': "u32", 'n': "i128", 'o': "u128", 'p': "_", 's': "i16",
	't': "u16", 'u': "()", 'v': "...", 'x': "i64", 'y': "u64",
	'z': "!",
}

func (p *parser) parseGenericArg() (string, error) {
	if p.consumeByte('L') {
		// Lifetimes have no stable spelling; print the conventional
		// placeholder.
		if _, err := p.parseBase62(); err != nil {
			return "", err
		}
		return "'_", nil
	}
	if p.consumeByte('K') {
		return p.parseConst()
	}
	return p.parseType()
}

func (p *parser) parseType() (string, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return "", ErrMalformed
	}

	ch := p.peek()
	if name, ok := basicTypes[ch]; ok {
		p.pos++
		return name, nil
	}
	switch ch {
	case 'R':
		p.pos++
		p.skipLifetime()
		t, err := p.parseType()
		if err != nil {
			return "", err
		}
		return "&" + t, nil
	case 'Q':
		p.pos++
		p.skipLifetime()
		t, err := p.parseType()
		if err != nil {
			return "", err
		}
		return "&mut " + t, nil
	case 'P':
		p.pos++
		t, err := p.parseType()
		if err != nil {
			return "", err
		}
		return "*const " + t, nil
	case 'O':
		p.pos++
		t, err := p.parseType()
		if err != nil {
			return "", err
		}
		return "*mut " + t, nil
	case 'S':
		p.pos++
		t, err := p.parseType()
		if err != nil {
			return "", err
		}
		return "[" + t + "]", nil
	case 'T':
		p.pos++
		var elems []string
		for !p.consumeByte('E') {
			if p.empty() {
				return "", ErrTruncated
			}
			t, err := p.parseType()
			if err != nil {
				return "", err
			}
			elems = append(elems, t)
		}
		return "(" + strings.Join(elems, ", ") + ")", nil
	case 'B':
		p.pos++
		return p.parseBackref(p.parseType)
	default:
		return p.parsePath()
	}
}

func (p *parser) skipLifetime() {
	if p.consumeByte('L') {
		// Malformed lifetime digits leave the cursor on a byte no type
		// production accepts, so the error surfaces there.
		_, _ = p.parseBase62()
	}
}

// parseConst decodes a const generic argument: a type tag then hex
// digits, with 'n' marking negation and 'p' a placeholder. The depth
// guard bounds backreference chains, which may otherwise cycle.
func (p *parser) parseConst() (string, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return "", ErrMalformed
	}

	if p.consumeByte('B') {
		return p.parseBackref(p.parseConst)
	}
	tag := p.consume()
	if tag == 'p' {
		return "_", nil
	}
	if _, ok := basicTypes[tag]; !ok {
		return "", ErrMalformed
	}

	neg := p.consumeByte('n')
	start := p.pos
	for isDigit(p.peek()) || (p.peek() >= 'a' && p.peek() <= 'f') {
		p.pos++
	}
	if p.pos == start || !p.consumeByte('_') {
		return "", ErrMalformed
	}
	hex := p.input[start : p.pos-1]

	if tag == 'b' {
		switch hex {
		case "0":
			return "false", nil
		case "1":
			return "true", nil
		}
		return "", ErrMalformed
	}
	out := "0x" + hex
	if neg {
		out = "-" + out
	}
	return out, nil
}
