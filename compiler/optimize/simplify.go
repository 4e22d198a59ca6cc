package optimize

import (
	"context"
	"math/big"

	"tlog.app/go/tlog"

	"github.com/sergiuiacob1/yulopt/compiler/ast"
	"github.com/sergiuiacob1/yulopt/compiler/dialect"
)

type (
	simplifier struct {
		tr tlog.Span

		rewrites int
	}
)

// Simplify collapses control flow driven by compile-time constants:
// constant if conditions, constant switch selectors, constant-false
// for conditions, and a trailing if-leave at the end of a function
// body. The block shrinks or stays the same; observable behavior of
// executed code does not change.
func Simplify(ctx context.Context, d *dialect.Dialect, b *ast.Block) {
	s := &simplifier{tr: tlog.SpanFromContext(ctx)}

	s.block(b)

	s.tr.V("optimize").Printw("structural simplify", "rewrites", s.rewrites)
}

func (s *simplifier) block(b *ast.Block) {
	b.Stmts = s.simplify(b.Stmts)
}

// simplify is an iterate-replacing traversal: a produced replacement
// is simplified itself before splicing, so freshly exposed structure
// is re-examined in the same pass. Statements with no replacement are
// recursed into and kept.
func (s *simplifier) simplify(stmts []ast.Stmt) []ast.Stmt {
	return iterateReplacing(stmts, func(st ast.Stmt) ([]ast.Stmt, bool) {
		r, ok := s.rewrite(st)
		if ok {
			s.rewrites++
			r = s.simplify(r)
		} else {
			s.children(st)
		}

		return r, ok
	})
}

// rewrite returns the replacement sequence for st, if any. An empty
// replacement deletes the statement; no replacement keeps it.
func (s *simplifier) rewrite(st ast.Stmt) ([]ast.Stmt, bool) {
	switch st := st.(type) {
	case *ast.If:
		v, ok := ast.LiteralValue(st.Cond)
		if !ok {
			break
		}

		if v.Sign() != 0 {
			// The body was guaranteed to run, so its statements can
			// live in the enclosing scope.
			return st.Body.Stmts, true
		}

		return nil, true
	case *ast.Switch:
		v, ok := ast.LiteralValue(st.Expr)
		if !ok {
			break
		}

		return s.constSwitch(st, v), true
	case *ast.ForLoop:
		v, ok := ast.LiteralValue(st.Cond)
		if !ok || v.Sign() != 0 {
			break
		}

		// Body and post never run. Pre runs once, in the loop's
		// scope, which dissolves into the enclosing one.
		return st.Pre.Stmts, true
	case *ast.FunctionDefinition:
		if !trailingIfLeave(st.Body) {
			break
		}

		st.Body.Stmts = st.Body.Stmts[:len(st.Body.Stmts)-1]

		// Re-yield the function so stacked trailing if-leaves are
		// stripped one by one.
		return []ast.Stmt{st}, true
	}

	return nil, false
}

func (s *simplifier) constSwitch(st *ast.Switch, v *big.Int) []ast.Stmt {
	var def *ast.Case

	for _, c := range st.Cases {
		assert(c.Body != nil, "switch case without a body")

		if c.Value == nil {
			def = c
			continue
		}

		if c.Value.Word().Cmp(v) == 0 {
			return c.Body.Stmts
		}
	}

	if def != nil {
		return def.Body.Stmts
	}

	return nil
}

func (s *simplifier) children(st ast.Stmt) {
	switch st := st.(type) {
	case *ast.Block:
		s.block(st)
	case *ast.If:
		s.block(st.Body)
	case *ast.Switch:
		for _, c := range st.Cases {
			s.block(c.Body)
		}
	case *ast.ForLoop:
		s.block(st.Pre)
		s.block(st.Post)
		s.block(st.Body)
	case *ast.FunctionDefinition:
		s.block(st.Body)
	}
}

// trailingIfLeave reports whether the function body ends in
// `if cond { leave }`, a no-op right before the function returns.
func trailingIfLeave(b *ast.Block) bool {
	if len(b.Stmts) == 0 {
		return false
	}

	i, ok := b.Stmts[len(b.Stmts)-1].(*ast.If)
	if !ok || len(i.Body.Stmts) != 1 {
		return false
	}

	_, ok = i.Body.Stmts[0].(*ast.Leave)

	return ok
}
