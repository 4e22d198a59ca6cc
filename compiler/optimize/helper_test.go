package optimize_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sergiuiacob1/yulopt/compiler/ast"
	"github.com/sergiuiacob1/yulopt/compiler/dialect"
	"github.com/sergiuiacob1/yulopt/compiler/format"
	"github.com/sergiuiacob1/yulopt/compiler/optimize"
	"github.com/sergiuiacob1/yulopt/compiler/parse"
)

func parseSrc(t *testing.T, src string) *ast.Block {
	t.Helper()

	b, err := parse.Parse(context.Background(), "test", []byte(src))
	require.NoError(t, err)

	return b
}

func print(t *testing.T, b *ast.Block) string {
	t.Helper()

	out, err := format.Format(context.Background(), nil, b)
	require.NoError(t, err)

	return string(out)
}

// printed normalizes src through the printer, so expectations can be
// written in compact form.
func printed(t *testing.T, src string) string {
	t.Helper()

	return print(t, parseSrc(t, src))
}

func run(t *testing.T, p optimize.Pass, src string) string {
	t.Helper()

	b := parseSrc(t, src)

	p(context.Background(), dialect.EVM(), b)

	return print(t, b)
}
