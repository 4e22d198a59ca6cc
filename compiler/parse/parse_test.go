package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergiuiacob1/yulopt/compiler/ast"
)

func parseString(t *testing.T, src string) *ast.Block {
	t.Helper()

	b, err := Parse(context.Background(), "test", []byte(src))
	require.NoError(t, err)

	return b
}

func TestParseStatements(t *testing.T) {
	b := parseString(t, `
		let x := 1
		let y, z
		x := add(y, 0x10)
		if lt(x, 2) { sstore(0, x) }
		for { let i := 0 } lt(i, 3) { i := add(i, 1) } { continue }
		switch x
		case 1 { leave }
		default { break }
		function f(a, b) -> r { r := a }
		f(1, 2)
	`)

	require.Len(t, b.Stmts, 8)

	d := b.Stmts[0].(*ast.VariableDeclaration)
	require.Len(t, d.Vars, 1)
	assert.Equal(t, ast.Name("x"), d.Vars[0].Name)
	assert.Equal(t, int64(1), d.Value.(*ast.Literal).Word().Int64())

	d = b.Stmts[1].(*ast.VariableDeclaration)
	require.Len(t, d.Vars, 2)
	assert.Nil(t, d.Value)

	a := b.Stmts[2].(*ast.Assignment)
	require.Len(t, a.Targets, 1)
	call := a.Value.(*ast.FunctionCall)
	assert.Equal(t, ast.Name("add"), call.Name)
	assert.Equal(t, int64(16), call.Args[1].(*ast.Literal).Word().Int64())

	i := b.Stmts[3].(*ast.If)
	assert.IsType(t, &ast.FunctionCall{}, i.Cond)

	l := b.Stmts[4].(*ast.ForLoop)
	require.Len(t, l.Pre.Stmts, 1)
	require.Len(t, l.Body.Stmts, 1)
	assert.IsType(t, &ast.Continue{}, l.Body.Stmts[0])

	s := b.Stmts[5].(*ast.Switch)
	require.Len(t, s.Cases, 2)
	assert.NotNil(t, s.Cases[0].Value)
	assert.Nil(t, s.Cases[1].Value)
	assert.IsType(t, &ast.Leave{}, s.Cases[0].Body.Stmts[0])

	f := b.Stmts[6].(*ast.FunctionDefinition)
	assert.Equal(t, ast.Name("f"), f.Name)
	require.Len(t, f.Params, 2)
	require.Len(t, f.Returns, 1)

	e := b.Stmts[7].(*ast.ExpressionStmt)
	assert.Equal(t, ast.Name("f"), e.Expr.(*ast.FunctionCall).Name)
}

func TestParseMultiAssign(t *testing.T) {
	b := parseString(t, `
		let x let y
		x, y := f()
	`)

	a := b.Stmts[2].(*ast.Assignment)
	require.Len(t, a.Targets, 2)
	assert.Equal(t, ast.Name("y"), a.Targets[1].Name)
}

func TestParseBoolLiterals(t *testing.T) {
	b := parseString(t, `let x := true let y := false`)

	assert.Equal(t, int64(1), b.Stmts[0].(*ast.VariableDeclaration).Value.(*ast.Literal).Word().Int64())
	assert.True(t, b.Stmts[1].(*ast.VariableDeclaration).Value.(*ast.Literal).IsZero())
}

func TestParseComments(t *testing.T) {
	b := parseString(t, `
		// setup
		let x := 1 // trailing
	`)

	require.Len(t, b.Stmts, 1)
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
	}{
		{"duplicate case selector", `switch x case 1 { } case 1 { }`},
		{"default not last", `switch x default { } case 1 { }`},
		{"switch without cases", `switch x`},
		{"unterminated block", `{ let x := 1`},
		{"missing assign value", `x :=`},
		{"garbage token", `let x := #`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(context.Background(), "test", []byte(tc.src))
			assert.Error(t, err)
		})
	}
}
