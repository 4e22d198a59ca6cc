package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimize(t *testing.T) {
	out, err := Optimize(context.Background(), "test", []byte(`
		if 1 {
			let x := 1
			x := 2
			sstore(0, x)
		}
	`))
	require.NoError(t, err)

	assert.Equal(t, "let x\nx := 2\nsstore(0, x)\n", string(out))
}

func TestOptimizePassSelection(t *testing.T) {
	src := []byte(`if 1 { let x := 1 x := 2 sstore(0, x) }`)

	t.Setenv("YULOPT_PASSES", "simplify")

	out, err := Optimize(context.Background(), "test", src)
	require.NoError(t, err)

	// Only the structural pass ran; the dead initializer stays.
	assert.Equal(t, "let x := 1\nx := 2\nsstore(0, x)\n", string(out))
}

func TestOptimizeUnknownPass(t *testing.T) {
	t.Setenv("YULOPT_PASSES", "nope")

	_, err := Optimize(context.Background(), "test", []byte(`let x := 1`))
	assert.Error(t, err)
}

func TestOptimizeParseError(t *testing.T) {
	_, err := Optimize(context.Background(), "test", []byte(`if {`))
	assert.Error(t, err)
}
