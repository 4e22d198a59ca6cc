package parse

import (
	"tlog.app/go/errors"
)

// next advances to the following token, skipping spaces and
// line comments.
func (p *parser) next() {
	for p.i < len(p.b) {
		c := p.b[p.i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.i++
			continue
		case c == '/' && p.i+1 < len(p.b) && p.b[p.i+1] == '/':
			for p.i < len(p.b) && p.b[p.i] != '\n' {
				p.i++
			}
			continue
		}

		break
	}

	p.pos = p.i

	if p.i == len(p.b) {
		p.tok, p.lit = tEOF, ""
		return
	}

	c := p.b[p.i]

	switch {
	case isNameStart(c):
		st := p.i

		for p.i < len(p.b) && isName(p.b[p.i]) {
			p.i++
		}

		p.tok, p.lit = tIdent, string(p.b[st:p.i])
	case c >= '0' && c <= '9':
		st := p.i

		for p.i < len(p.b) && isNumber(p.b[p.i]) {
			p.i++
		}

		p.tok, p.lit = tNumber, string(p.b[st:p.i])
	case c == '{':
		p.tok, p.lit = tLBrace, "{"
		p.i++
	case c == '}':
		p.tok, p.lit = tRBrace, "}"
		p.i++
	case c == '(':
		p.tok, p.lit = tLParen, "("
		p.i++
	case c == ')':
		p.tok, p.lit = tRParen, ")"
		p.i++
	case c == ',':
		p.tok, p.lit = tComma, ","
		p.i++
	case c == ':':
		if p.i+1 < len(p.b) && p.b[p.i+1] == '=' {
			p.tok, p.lit = tAssign, ":="
			p.i += 2
		} else {
			p.tok, p.lit = tColon, ":"
			p.i++
		}
	case c == '-':
		if p.i+1 < len(p.b) && p.b[p.i+1] == '>' {
			p.tok, p.lit = tArrow, "->"
			p.i += 2
		} else {
			p.tok, p.lit = tBad, string(c)
			p.i++
		}
	default:
		p.tok, p.lit = tBad, string(c)
		p.i++
	}
}

func (p *parser) expect(tok token, human string) error {
	if p.tok != tok {
		return p.err(human)
	}

	p.next()

	return nil
}

func (p *parser) err(expected string) error {
	got := p.lit
	if p.tok == tEOF && got == "" {
		got = "end of input"
	}

	return p.fail("expected %v, got %v", expected, got)
}

func (p *parser) fail(f string, args ...any) error {
	line, col := 1, 1

	for _, c := range p.b[:p.pos] {
		if c == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	return errors.Wrap(errors.New(f, args...), "%v:%v", line, col)
}

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '$'
}

func isName(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9' || c == '.'
}

func isNumber(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F' || c == 'x' || c == 'X'
}
