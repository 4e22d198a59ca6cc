package format

import (
	"context"
	"fmt"

	"tlog.app/go/errors"

	"github.com/sergiuiacob1/yulopt/compiler/ast"
)

// Format appends a deterministic rendering of x to b. The output
// parses back to the same tree. A block prints as a bare statement
// sequence, the way a file reads; nested blocks keep their braces.
func Format(ctx context.Context, b []byte, x ast.Stmt) (_ []byte, err error) {
	if top, ok := x.(*ast.Block); ok {
		for _, s := range top.Stmts {
			b, err = formatStmt(ctx, b, s, 0)
			if err != nil {
				return nil, err
			}
		}

		return b, nil
	}

	return formatStmt(ctx, b, x, 0)
}

func formatBlock(ctx context.Context, b []byte, x *ast.Block, d int) (_ []byte, err error) {
	if len(x.Stmts) == 0 {
		b = append(b, "{ }\n"...)
		return b, nil
	}

	b = append(b, "{\n"...)

	for _, s := range x.Stmts {
		b, err = formatStmt(ctx, b, s, d+1)
		if err != nil {
			return nil, err
		}
	}

	b = app(b, d, "}\n")

	return b, nil
}

func formatStmt(ctx context.Context, b []byte, x ast.Stmt, d int) (_ []byte, err error) {
	switch s := x.(type) {
	case *ast.Block:
		b = app(b, d, "")
		return formatBlock(ctx, b, s, d)
	case *ast.VariableDeclaration:
		b = app(b, d, "let ")
		b = names(b, s.Vars)

		if s.Value != nil {
			b = append(b, " := "...)

			b, err = formatExpr(ctx, b, s.Value)
			if err != nil {
				return nil, errors.Wrap(err, "initializer")
			}
		}

		b = append(b, '\n')
	case *ast.Assignment:
		b = app(b, d, "")

		for i, t := range s.Targets {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = append(b, t.Name...)
		}

		b = append(b, " := "...)

		b, err = formatExpr(ctx, b, s.Value)
		if err != nil {
			return nil, errors.Wrap(err, "assigned value")
		}

		b = append(b, '\n')
	case *ast.If:
		b = app(b, d, "if ")

		b, err = formatExpr(ctx, b, s.Cond)
		if err != nil {
			return nil, errors.Wrap(err, "if condition")
		}

		b = append(b, ' ')

		b, err = formatBlock(ctx, b, s.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "if body")
		}
	case *ast.Switch:
		b = app(b, d, "switch ")

		b, err = formatExpr(ctx, b, s.Expr)
		if err != nil {
			return nil, errors.Wrap(err, "switch expression")
		}

		b = append(b, '\n')

		for _, c := range s.Cases {
			if c.Value != nil {
				b = app(b, d, "case %v ", c.Value.Word())
			} else {
				b = app(b, d, "default ")
			}

			b, err = formatBlock(ctx, b, c.Body, d)
			if err != nil {
				return nil, errors.Wrap(err, "case body")
			}
		}
	case *ast.ForLoop:
		b = app(b, d, "for ")

		b, err = inlineBlock(ctx, b, s.Pre, d)
		if err != nil {
			return nil, errors.Wrap(err, "for init")
		}

		b = append(b, ' ')

		b, err = formatExpr(ctx, b, s.Cond)
		if err != nil {
			return nil, errors.Wrap(err, "for condition")
		}

		b = append(b, ' ')

		b, err = inlineBlock(ctx, b, s.Post, d)
		if err != nil {
			return nil, errors.Wrap(err, "for post")
		}

		b = append(b, ' ')

		b, err = formatBlock(ctx, b, s.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "for body")
		}
	case *ast.FunctionDefinition:
		b = app(b, d, "function %v(", s.Name)
		b = names(b, s.Params)
		b = append(b, ')')

		if len(s.Returns) != 0 {
			b = append(b, " -> "...)
			b = names(b, s.Returns)
		}

		b = append(b, ' ')

		b, err = formatBlock(ctx, b, s.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", s.Name)
		}
	case *ast.Break:
		b = app(b, d, "break\n")
	case *ast.Continue:
		b = app(b, d, "continue\n")
	case *ast.Leave:
		b = app(b, d, "leave\n")
	case *ast.ExpressionStmt:
		b = app(b, d, "")

		b, err = formatExpr(ctx, b, s.Expr)
		if err != nil {
			return nil, errors.Wrap(err, "expression")
		}

		b = append(b, '\n')
	default:
		return nil, errors.New("unsupported stmt: %T", x)
	}

	return b, nil
}

// inlineBlock prints the for-loop header blocks on one line.
func inlineBlock(ctx context.Context, b []byte, x *ast.Block, d int) (_ []byte, err error) {
	if len(x.Stmts) == 0 {
		b = append(b, "{ }"...)
		return b, nil
	}

	b = append(b, "{\n"...)

	for _, s := range x.Stmts {
		b, err = formatStmt(ctx, b, s, d+1)
		if err != nil {
			return nil, err
		}
	}

	b = app(b, d, "}")

	return b, nil
}

func formatExpr(ctx context.Context, b []byte, x ast.Expr) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Literal:
		b = fmt.Appendf(b, "%v", x.Word())
	case *ast.Identifier:
		b = append(b, x.Name...)
	case *ast.FunctionCall:
		b = append(b, x.Name...)
		b = append(b, '(')

		for i, a := range x.Args {
			if i != 0 {
				b = append(b, ", "...)
			}

			b, err = formatExpr(ctx, b, a)
			if err != nil {
				return nil, errors.Wrap(err, "argument of %v", x.Name)
			}
		}

		b = append(b, ')')
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	return b, nil
}

func names(b []byte, l []ast.TypedName) []byte {
	for i, n := range l {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = append(b, n.Name...)

		if n.Type != "" {
			b = append(b, ':')
			b = append(b, n.Type...)
		}
	}

	return b
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = fmt.Appendf(b, f, args...)
	return b
}
