package interp

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergiuiacob1/yulopt/compiler/dialect"
	"github.com/sergiuiacob1/yulopt/compiler/parse"
)

func runSrc(t *testing.T, src string) *Trace {
	t.Helper()

	b, err := parse.Parse(context.Background(), "test", []byte(src))
	require.NoError(t, err)

	tr, err := Run(dialect.EVM(), b)
	require.NoError(t, err)

	return tr
}

func effects(tr *Trace) []string {
	var l []string

	for _, e := range tr.Effects {
		s := string(e.Name)

		for _, a := range e.Args {
			s += " " + a.String()
		}

		l = append(l, s)
	}

	return l
}

func TestRunArithmetic(t *testing.T) {
	tr := runSrc(t, `
		let x := add(2, 3)
		let y := mul(x, x)
		sstore(0, y)
		sstore(1, div(y, 0))
		sstore(2, sub(0, 1))
	`)

	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	assert.Equal(t, []string{
		"sstore 0 25",
		"sstore 1 0",
		"sstore 2 " + max.String(),
	}, effects(tr))
}

func TestRunLoop(t *testing.T) {
	tr := runSrc(t, `
		let s := 0
		for { let i := 0 } lt(i, 4) { i := add(i, 1) } {
			if eq(i, 2) { continue }
			s := add(s, i)
		}
		sstore(0, s)
	`)

	assert.Equal(t, []string{"sstore 0 4"}, effects(tr))
}

func TestRunBreak(t *testing.T) {
	tr := runSrc(t, `
		for { let i := 0 } lt(i, 10) { i := add(i, 1) } {
			if eq(i, 3) { break }
			sstore(i, i)
		}
	`)

	assert.Equal(t, []string{"sstore 0 0", "sstore 1 1", "sstore 2 2"}, effects(tr))
}

func TestRunFunctions(t *testing.T) {
	tr := runSrc(t, `
		function max(a, b) -> r {
			r := a
			if gt(b, a) { r := b }
		}
		function both() -> x, y {
			x := 1
			y := 2
			leave
			x := 99
		}
		let p, q
		p, q := both()
		sstore(0, max(p, q))
	`)

	assert.Equal(t, []string{"sstore 0 2"}, effects(tr))
}

func TestRunSwitch(t *testing.T) {
	tr := runSrc(t, `
		switch 5
		case 1 { sstore(0, 1) }
		default { sstore(0, 9) }
		switch 1
		case 1 { sstore(1, 1) }
		switch 8
		case 1 { sstore(2, 1) }
	`)

	assert.Equal(t, []string{"sstore 0 9", "sstore 1 1"}, effects(tr))
}

func TestRunStorageRoundTrip(t *testing.T) {
	tr := runSrc(t, `
		sstore(7, 42)
		let v := sload(7)
		mstore(0, v)
		sstore(8, mload(0))
	`)

	assert.Equal(t, []string{
		"sstore 7 42",
		"sload 7",
		"mstore 0 42",
		"mload 0",
		"sstore 8 42",
	}, effects(tr))
}

func TestRunRevertStopsExecution(t *testing.T) {
	tr := runSrc(t, `
		sstore(0, 1)
		revert(5, 6)
		sstore(0, 2)
	`)

	assert.Equal(t, []string{"sstore 0 1", "revert 5 6"}, effects(tr))
}

func TestRunLeaveInLoop(t *testing.T) {
	tr := runSrc(t, `
		function f() -> r {
			for { let i := 0 } 1 { } {
				r := i
				leave
			}
		}
		sstore(0, f())
	`)

	assert.Equal(t, []string{"sstore 0 0"}, effects(tr))
}

func TestRunStepLimit(t *testing.T) {
	b, err := parse.Parse(context.Background(), "test", []byte(`for { } 1 { } { }`))
	require.NoError(t, err)

	_, err = Run(dialect.EVM(), b)
	assert.Error(t, err)
}

func TestTraceEqual(t *testing.T) {
	a := runSrc(t, `sstore(0, 1)`)
	b := runSrc(t, `sstore(0, add(0, 1))`)
	c := runSrc(t, `sstore(0, 2)`)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
