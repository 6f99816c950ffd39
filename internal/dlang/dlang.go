// Package dlang decodes D language mangled symbols ("_D..."). The
// readable form is the dot-separated qualified name; the trailing type
// encoding is validated but, matching common D tooling, not rendered.
package dlang

import (
	"errors"
	"strings"
)

var (
	ErrMalformed = errors.New("dlang: malformed mangled name")
	ErrTruncated = errors.New("dlang: unexpected end of mangled name")
)

const maxDepth = 256

// Demangle decodes one "_D"-prefixed symbol, failing without partial
// output on any grammar violation.
func Demangle(name string) (string, error) {
	if name == "_Dmain" {
		return "D main", nil
	}
	rest, ok := strings.CutPrefix(name, "_D")
	if !ok {
		return "", ErrMalformed
	}
	p := &parser{input: rest}

	var parts []string
	for isDigit(p.peek()) {
		s, err := p.parseLName()
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return "", ErrMalformed
	}
	if !p.empty() {
		if err := p.parseType(); err != nil {
			return "", err
		}
		if !p.empty() {
			return "", ErrMalformed
		}
	}
	return strings.Join(parts, "."), nil
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

// parseLName decodes a length-prefixed name piece.
func (p *parser) parseLName() (string, error) {
	var n uint64
	for isDigit(p.peek()) {
		n = n*10 + uint64(p.consume()-'0')
		if n > 1<<20 {
			return "", ErrMalformed
		}
	}
	if n == 0 {
		return "", ErrMalformed
	}
	if uint64(len(p.input)-p.pos) < n {
		return "", ErrTruncated
	}
	s := p.input[p.pos : p.pos+int(n)]
	p.pos += int(n)
	return s, nil
}

// Basic type letters per the D ABI.
var basicTypes = map[byte]bool{
	'v': true, 'b': true, 'g': true, 'h': true, 's': true, 't': true,
	'i': true, 'k': true, 'l': true, 'm': true, 'f': true, 'd': true,
	'e': true, 'o': true, 'p': true, 'j': true, 'q': true, 'r': true,
	'c': true, 'a': true, 'u': true, 'w': true, 'n': true,
}

// parseType validates one type encoding without rendering it.
func (p *parser) parseType() error {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return ErrMalformed
	}
	if p.empty() {
		return ErrTruncated
	}

	switch ch := p.peek(); {
	case ch == 'x' || ch == 'y' || ch == 'O' || ch == 'M':
		// const / immutable / shared / scope wrappers
		p.pos++
		return p.parseType()
	case ch == 'N':
		p.pos += 2 // modifier pair (Ng, Nh, ...)
		return p.parseType()
	case ch == 'P' || ch == 'A':
		p.pos++
		return p.parseType()
	case ch == 'G':
		p.pos++
		for isDigit(p.peek()) {
			p.pos++
		}
		return p.parseType()
	case ch == 'H':
		p.pos++
		if err := p.parseType(); err != nil {
			return err
		}
		return p.parseType()
	case ch == 'D':
		p.pos++
		return p.parseType()
	case ch == 'F' || ch == 'U' || ch == 'W' || ch == 'V' || ch == 'R':
		return p.parseFunctionType()
	case ch == 'S' || ch == 'C' || ch == 'E' || ch == 'I':
		p.pos++
		if !isDigit(p.peek()) {
			return ErrMalformed
		}
		for isDigit(p.peek()) {
			if _, err := p.parseLName(); err != nil {
				return err
			}
		}
		return nil
	case ch == 'z':
		// cent / ucent pairs
		p.pos++
		if c := p.consume(); c != 'i' && c != 'k' {
			return ErrMalformed
		}
		return nil
	default:
		if basicTypes[ch] {
			p.pos++
			return nil
		}
		return ErrMalformed
	}
}

// parseFunctionType validates a calling-convention tag, the parameter
// types up to the 'Z' terminator, and the return type.
func (p *parser) parseFunctionType() error {
	p.pos++ // convention tag
	for !p.consumeByte('Z') {
		if p.empty() {
			return ErrTruncated
		}
		// Parameter storage classes.
		for {
			ch := p.peek()
			if ch == 'J' || ch == 'K' || ch == 'L' || ch == 'M' {
				p.pos++
				continue
			}
			break
		}
		if p.consumeByte('X') || p.consumeByte('Y') {
			// Variadic markers close the list.
			return p.parseType()
		}
		if err := p.parseType(); err != nil {
			return err
		}
	}
	return p.parseType()
}
