package optimize

import (
	"context"
	"fmt"

	"tlog.app/go/loc"

	"github.com/sergiuiacob1/yulopt/compiler/ast"
	"github.com/sergiuiacob1/yulopt/compiler/dialect"
)

// Pass rewrites a block in place into a semantically equivalent one.
// Passes are total on well-formed input; structural precondition
// violations panic.
//
// Well-formed input has disambiguated variable names: no name is
// declared twice within one function or the top-level program.
type Pass func(ctx context.Context, d *dialect.Dialect, b *ast.Block)

// Passes maps the names accepted in YULOPT_PASSES to implementations,
// in default running order.
func Passes() ([]string, map[string]Pass) {
	order := []string{"simplify", "unusedassign"}

	return order, map[string]Pass{
		"simplify":     Simplify,
		"unusedassign": EliminateUnusedAssignments,
	}
}

// iterateReplacing builds a fresh statement sequence, splicing the
// replacement of every statement f produces and keeping the statement
// itself otherwise. Replacements are expected to be fully processed
// before they are returned.
func iterateReplacing(stmts []ast.Stmt, f func(ast.Stmt) ([]ast.Stmt, bool)) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(stmts))

	for _, s := range stmts {
		if r, ok := f(s); ok {
			out = append(out, r...)
		} else {
			out = append(out, s)
		}
	}

	return out
}

func assert(ok bool, f string, args ...any) {
	if ok {
		return
	}

	panic(fmt.Sprintf("%v: %v", loc.Caller(1), fmt.Sprintf(f, args...)))
}
