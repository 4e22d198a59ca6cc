package dialect

import (
	"github.com/sergiuiacob1/yulopt/compiler/ast"
)

type (
	// Builtin carries the per-function facts the passes consult.
	Builtin struct {
		Name ast.Name

		// Movable means evaluating the call can be reordered or
		// dropped without changing observable behavior.
		Movable bool

		// CanContinue is false for abort-like builtins: control
		// never reaches the statement after the call.
		CanContinue bool
	}

	Dialect struct {
		builtins map[ast.Name]*Builtin
	}
)

// Builtin resolves name, or nil for user-defined functions.
func (d *Dialect) Builtin(name ast.Name) *Builtin {
	return d.builtins[name]
}

func New(builtins ...*Builtin) *Dialect {
	d := &Dialect{
		builtins: make(map[ast.Name]*Builtin, len(builtins)),
	}

	for _, b := range builtins {
		d.builtins[b.Name] = b
	}

	return d
}

// EVM is the builtin set used by the command line tool and the tests.
//
// Loads (sload, mload) stay non-movable: they observe state written by
// earlier stores, so dropping or reordering them is not safe in general.
func EVM() *Dialect {
	mk := func(names []ast.Name, movable, canContinue bool) []*Builtin {
		l := make([]*Builtin, len(names))

		for i, n := range names {
			l[i] = &Builtin{Name: n, Movable: movable, CanContinue: canContinue}
		}

		return l
	}

	var l []*Builtin

	l = append(l, mk([]ast.Name{
		"add", "sub", "mul", "div", "mod",
		"lt", "gt", "eq", "iszero",
		"and", "or", "xor", "not", "shl", "shr",
		"caller", "callvalue", "calldataload",
	}, true, true)...)

	l = append(l, mk([]ast.Name{
		"sstore", "sload", "mstore", "mload", "log0",
	}, false, true)...)

	l = append(l, mk([]ast.Name{
		"revert", "stop", "invalid",
	}, false, false)...)

	return New(l...)
}
