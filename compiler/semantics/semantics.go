package semantics

import (
	"github.com/sergiuiacob1/yulopt/compiler/ast"
	"github.com/sergiuiacob1/yulopt/compiler/dialect"
)

type (
	// ControlFlow classifies how execution leaves a statement.
	ControlFlow int
)

const (
	FlowOut ControlFlow = iota
	Terminate
	Break
	Continue
	Leave
)

// Movable reports whether evaluating e can be reordered or dropped
// without changing observable behavior. Literals and variable reads
// are movable; a call is movable only if the dialect marks the builtin
// so and every argument is movable. User-defined calls are not.
func Movable(d *dialect.Dialect, e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.Literal, *ast.Identifier:
		return true
	case *ast.FunctionCall:
		b := d.Builtin(e.Name)
		if b == nil || !b.Movable {
			return false
		}

		for _, a := range e.Args {
			if !Movable(d, a) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// ControlFlowKind classifies s. Statements whose expression contains a
// call to a non-continuing builtin classify Terminate; anything not
// otherwise recognized is FlowOut, the conservative answer.
func ControlFlowKind(d *dialect.Dialect, s ast.Stmt) ControlFlow {
	switch s := s.(type) {
	case *ast.Break:
		return Break
	case *ast.Continue:
		return Continue
	case *ast.Leave:
		return Leave
	case *ast.ExpressionStmt:
		if containsNonContinuingCall(d, s.Expr) {
			return Terminate
		}
	case *ast.Assignment:
		if containsNonContinuingCall(d, s.Value) {
			return Terminate
		}
	case *ast.VariableDeclaration:
		if s.Value != nil && containsNonContinuingCall(d, s.Value) {
			return Terminate
		}
	}

	return FlowOut
}

func containsNonContinuingCall(d *dialect.Dialect, e ast.Expr) bool {
	c, ok := e.(*ast.FunctionCall)
	if !ok {
		return false
	}

	if b := d.Builtin(c.Name); b != nil && !b.CanContinue {
		return true
	}

	for _, a := range c.Args {
		if containsNonContinuingCall(d, a) {
			return true
		}
	}

	return false
}

func (f ControlFlow) String() string {
	switch f {
	case FlowOut:
		return "flowout"
	case Terminate:
		return "terminate"
	case Break:
		return "break"
	case Continue:
		return "continue"
	case Leave:
		return "leave"
	default:
		return "unknown"
	}
}
