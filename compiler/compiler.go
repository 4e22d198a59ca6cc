package compiler

import (
	"context"
	"os"
	"strings"

	"github.com/xyproto/env/v2"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/sergiuiacob1/yulopt/compiler/dialect"
	"github.com/sergiuiacob1/yulopt/compiler/format"
	"github.com/sergiuiacob1/yulopt/compiler/optimize"
	"github.com/sergiuiacob1/yulopt/compiler/parse"
)

// OptimizeFile reads, optimizes and prints one source file.
func OptimizeFile(ctx context.Context, name string) (out []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Optimize(ctx, name, text)
}

// Optimize parses text, runs the configured passes and prints the
// result. YULOPT_PASSES selects and orders passes; YULOPT_DUMP=1
// prints the tree after every pass at verbose level.
func Optimize(ctx context.Context, name string, text []byte) (out []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "optimize", "name", name)
	defer tr.Finish("err", &err)

	b, err := parse.Parse(ctx, name, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	d := dialect.EVM()

	passes, err := configuredPasses()
	if err != nil {
		return nil, err
	}

	dump := env.Bool("YULOPT_DUMP")

	for _, p := range passes {
		p.run(ctx, d, b)

		if dump {
			dumped, err := format.Format(ctx, nil, b)
			if err != nil {
				return nil, errors.Wrap(err, "dump after %v", p.name)
			}

			tr.V("dump").Printw("after pass", "pass", p.name, "tree", string(dumped))
		}
	}

	out, err = format.Format(ctx, nil, b)
	if err != nil {
		return nil, errors.Wrap(err, "print")
	}

	return out, nil
}

// FormatFile reads and pretty-prints one source file without
// optimizing it.
func FormatFile(ctx context.Context, name string) (out []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	b, err := parse.Parse(ctx, name, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	return format.Format(ctx, nil, b)
}

type namedPass struct {
	name string
	run  optimize.Pass
}

func configuredPasses() (_ []namedPass, err error) {
	order, byName := optimize.Passes()

	// Read on every call, so a value set after process start applies.
	conf := os.Getenv("YULOPT_PASSES")
	if conf == "" {
		conf = strings.Join(order, ",")
	}

	var l []namedPass

	for _, name := range strings.Split(conf, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		p, ok := byName[name]
		if !ok {
			return nil, errors.New("unknown pass: %v", name)
		}

		l = append(l, namedPass{name: name, run: p})
	}

	return l, nil
}
