package parse

import (
	"context"
	"math/big"

	"tlog.app/go/errors"

	"github.com/sergiuiacob1/yulopt/compiler/ast"
)

type (
	parser struct {
		name string
		b    []byte
		i    int

		tok token
		lit string
		pos int
	}

	token int
)

const (
	tEOF token = iota
	tIdent
	tNumber
	tLBrace
	tRBrace
	tLParen
	tRParen
	tComma
	tColon
	tAssign // :=
	tArrow  // ->
	tBad
)

// Parse reads a file of statements and returns them as one block.
func Parse(ctx context.Context, name string, src []byte) (_ *ast.Block, err error) {
	p := &parser{name: name, b: src}

	p.next()

	b := &ast.Block{}

	for p.tok != tEOF {
		s, err := p.stmt()
		if err != nil {
			return nil, errors.Wrap(err, "%v", name)
		}

		b.Stmts = append(b.Stmts, s)
	}

	return b, nil
}

func (p *parser) stmt() (_ ast.Stmt, err error) {
	switch {
	case p.tok == tLBrace:
		return p.block()
	case p.tok == tIdent:
		switch p.lit {
		case "let":
			return p.varDecl()
		case "if":
			return p.ifStmt()
		case "switch":
			return p.switchStmt()
		case "for":
			return p.forLoop()
		case "function":
			return p.funcDef()
		case "break":
			p.next()
			return &ast.Break{}, nil
		case "continue":
			p.next()
			return &ast.Continue{}, nil
		case "leave":
			p.next()
			return &ast.Leave{}, nil
		}

		return p.assignOrCall()
	default:
		return nil, p.err("statement")
	}
}

func (p *parser) block() (_ *ast.Block, err error) {
	if err = p.expect(tLBrace, "{"); err != nil {
		return nil, err
	}

	b := &ast.Block{}

	for p.tok != tRBrace {
		if p.tok == tEOF {
			return nil, p.err("} or statement")
		}

		s, err := p.stmt()
		if err != nil {
			return nil, err
		}

		b.Stmts = append(b.Stmts, s)
	}

	p.next()

	return b, nil
}

func (p *parser) varDecl() (_ ast.Stmt, err error) {
	p.next() // let

	vars, err := p.typedNames()
	if err != nil {
		return nil, errors.Wrap(err, "declared names")
	}

	d := &ast.VariableDeclaration{Vars: vars}

	if p.tok == tAssign {
		p.next()

		d.Value, err = p.expr()
		if err != nil {
			return nil, errors.Wrap(err, "initializer")
		}
	}

	return d, nil
}

func (p *parser) assignOrCall() (_ ast.Stmt, err error) {
	name := ast.Name(p.lit)
	p.next()

	if p.tok == tLParen {
		c, err := p.callTail(name)
		if err != nil {
			return nil, err
		}

		return &ast.ExpressionStmt{Expr: c}, nil
	}

	targets := []*ast.Identifier{{Name: name}}

	for p.tok == tComma {
		p.next()

		if p.tok != tIdent {
			return nil, p.err("identifier")
		}

		targets = append(targets, &ast.Identifier{Name: ast.Name(p.lit)})
		p.next()
	}

	if err = p.expect(tAssign, ":="); err != nil {
		return nil, err
	}

	v, err := p.expr()
	if err != nil {
		return nil, errors.Wrap(err, "assigned value")
	}

	return &ast.Assignment{Targets: targets, Value: v}, nil
}

func (p *parser) ifStmt() (_ ast.Stmt, err error) {
	p.next() // if

	cond, err := p.expr()
	if err != nil {
		return nil, errors.Wrap(err, "if condition")
	}

	body, err := p.block()
	if err != nil {
		return nil, errors.Wrap(err, "if body")
	}

	return &ast.If{Cond: cond, Body: body}, nil
}

func (p *parser) switchStmt() (_ ast.Stmt, err error) {
	p.next() // switch

	e, err := p.expr()
	if err != nil {
		return nil, errors.Wrap(err, "switch expression")
	}

	s := &ast.Switch{Expr: e}
	seen := map[string]bool{}
	hasDefault := false

	for p.tok == tIdent && (p.lit == "case" || p.lit == "default") {
		if hasDefault {
			return nil, p.fail("default must be the last case")
		}

		c := &ast.Case{}

		if p.lit == "case" {
			p.next()

			l, err := p.literal()
			if err != nil {
				return nil, errors.Wrap(err, "case selector")
			}

			k := l.Value.String()
			if seen[k] {
				return nil, p.fail("duplicate case selector %v", k)
			}

			seen[k] = true
			c.Value = l
		} else {
			p.next()
			hasDefault = true
		}

		c.Body, err = p.block()
		if err != nil {
			return nil, errors.Wrap(err, "case body")
		}

		s.Cases = append(s.Cases, c)
	}

	if len(s.Cases) == 0 {
		return nil, p.err("case or default")
	}

	return s, nil
}

func (p *parser) forLoop() (_ ast.Stmt, err error) {
	p.next() // for

	l := &ast.ForLoop{}

	l.Pre, err = p.block()
	if err != nil {
		return nil, errors.Wrap(err, "for init")
	}

	l.Cond, err = p.expr()
	if err != nil {
		return nil, errors.Wrap(err, "for condition")
	}

	l.Post, err = p.block()
	if err != nil {
		return nil, errors.Wrap(err, "for post")
	}

	l.Body, err = p.block()
	if err != nil {
		return nil, errors.Wrap(err, "for body")
	}

	return l, nil
}

func (p *parser) funcDef() (_ ast.Stmt, err error) {
	p.next() // function

	if p.tok != tIdent {
		return nil, p.err("function name")
	}

	f := &ast.FunctionDefinition{Name: ast.Name(p.lit)}
	p.next()

	if err = p.expect(tLParen, "("); err != nil {
		return nil, err
	}

	if p.tok != tRParen {
		f.Params, err = p.typedNames()
		if err != nil {
			return nil, errors.Wrap(err, "parameters")
		}
	}

	if err = p.expect(tRParen, ")"); err != nil {
		return nil, err
	}

	if p.tok == tArrow {
		p.next()

		f.Returns, err = p.typedNames()
		if err != nil {
			return nil, errors.Wrap(err, "return variables")
		}
	}

	f.Body, err = p.block()
	if err != nil {
		return nil, errors.Wrap(err, "function body")
	}

	return f, nil
}

func (p *parser) typedNames() (_ []ast.TypedName, err error) {
	var l []ast.TypedName

	for {
		if p.tok != tIdent {
			return nil, p.err("identifier")
		}

		n := ast.TypedName{Name: ast.Name(p.lit)}
		p.next()

		if p.tok == tColon {
			p.next()

			if p.tok != tIdent {
				return nil, p.err("type name")
			}

			n.Type = ast.Name(p.lit)
			p.next()
		}

		l = append(l, n)

		if p.tok != tComma {
			return l, nil
		}

		p.next()
	}
}

func (p *parser) expr() (_ ast.Expr, err error) {
	switch p.tok {
	case tNumber:
		return p.literal()
	case tIdent:
		switch p.lit {
		case "true":
			p.next()
			return ast.NewLiteral(1), nil
		case "false":
			p.next()
			return ast.NewLiteral(0), nil
		}

		name := ast.Name(p.lit)
		p.next()

		if p.tok == tLParen {
			return p.callTail(name)
		}

		return &ast.Identifier{Name: name}, nil
	default:
		return nil, p.err("expression")
	}
}

func (p *parser) callTail(name ast.Name) (_ *ast.FunctionCall, err error) {
	p.next() // (

	c := &ast.FunctionCall{Name: name}

	for p.tok != tRParen {
		a, err := p.expr()
		if err != nil {
			return nil, errors.Wrap(err, "argument of %v", name)
		}

		c.Args = append(c.Args, a)

		if p.tok != tComma {
			break
		}

		p.next()
	}

	if err = p.expect(tRParen, ")"); err != nil {
		return nil, err
	}

	return c, nil
}

func (p *parser) literal() (_ *ast.Literal, err error) {
	if p.tok == tIdent && (p.lit == "true" || p.lit == "false") {
		v := uint64(0)
		if p.lit == "true" {
			v = 1
		}

		p.next()

		return ast.NewLiteral(v), nil
	}

	if p.tok != tNumber {
		return nil, p.err("literal")
	}

	v, ok := new(big.Int).SetString(p.lit, 0)
	if !ok {
		return nil, p.fail("bad number %v", p.lit)
	}

	p.next()

	return &ast.Literal{Value: ast.Word(v)}, nil
}
