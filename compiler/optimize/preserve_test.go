package optimize_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sergiuiacob1/yulopt/compiler/dialect"
	"github.com/sergiuiacob1/yulopt/compiler/interp"
	"github.com/sergiuiacob1/yulopt/compiler/optimize"
)

// Every pass must preserve the observable trace of the programs it
// rewrites. The corpus leans on storage reads for runtime-dependent
// branches so both sides of each join are actually executed.
func TestPassesPreserveTraces(t *testing.T) {
	progs := []string{
		`{ if 1 { sstore(0, 1) } if 0 { sstore(0, 2) } }`,
		`switch 2 case 1 { sstore(0, 1) } case 2 { sstore(0, 2) } default { sstore(0, 3) }`,
		`switch 9 case 1 { sstore(0, 1) } default { sstore(0, 3) }`,
		`{ switch 9 case 1 { sstore(0, 1) } sstore(1, 4) }`,
		`for { let i := 0 sstore(7, i) } 0 { i := add(i, 1) } { sstore(0, i) }`,
		`{ function f() -> r { r := 1 if gt(r, 0) { leave } } sstore(0, f()) }`,
		`{ let x := 1 x := 2 sstore(0, x) }`,
		`{ let x := 1 }`,
		`{ let x := 1 if sload(9) { sstore(0, x) } x := 2 sstore(1, x) }`,
		`{ sstore(9, 1) let x := 1 if sload(9) { sstore(0, x) } x := 2 sstore(1, x) }`,
		`{ let x := 1 if sload(3) { x := 2 } sstore(0, x) }`,
		`{ sstore(3, 1) let x := 1 if sload(3) { x := 2 } sstore(0, x) }`,
		`{ let x := 1 { x := 2 revert(0, 0) } sstore(1, x) }`,
		`{ let x := 1 x := 2 revert(0, 0) }`,
		`{ function h(a) { a := 5 leave } h(3) sstore(0, 1) }`,
		`{ function f() -> a, b { a := 1 b := 2 } let x let y x, y := f() sstore(x, y) }`,
		`{ let s := 0
			for { let i := 0 } lt(i, 3) { i := add(i, 1) } { s := add(s, i) }
			sstore(0, s) }`,
		`{ let x := 1
			for { let i := 0 } lt(i, 6) { i := add(i, 1) } { x := 2 }
			x := 3
			sstore(0, x) }`,
		`{ let x := 0
			for { let i := 0 } lt(i, 10) { i := add(i, 1) } {
				x := 1
				if eq(i, 5) { break }
				x := 2
			}
			sstore(0, x) }`,
		`{ let x := 0
			for { let i := 0 } lt(i, 9) { i := add(i, 1) } {
				x := 1
				if eq(i, 3) { continue }
				x := 2
			}
			sstore(0, x) }`,
	}

	pipelines := map[string][]optimize.Pass{
		"simplify":     {optimize.Simplify},
		"unusedassign": {optimize.EliminateUnusedAssignments},
		"both":         {optimize.Simplify, optimize.EliminateUnusedAssignments},
	}

	d := dialect.EVM()
	ctx := context.Background()

	for _, src := range progs {
		base, err := interp.Run(d, parseSrc(t, src))
		require.NoError(t, err, "src: %v", src)

		for name, passes := range pipelines {
			b := parseSrc(t, src)

			for _, p := range passes {
				p(ctx, d, b)
			}

			got, err := interp.Run(d, b)
			require.NoError(t, err, "pipeline %v, src: %v", name, src)

			require.True(t, base.Equal(got),
				"pipeline %v changed the trace\nsrc: %v\nafter: %v", name, src, print(t, b))
		}
	}
}
