package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/sergiuiacob1/yulopt/compiler"
)

func main() {
	fmtCmd := &cli.Command{
		Name:   "fmt",
		Action: fmtAct,
		Args:   cli.Args{},
	}

	optCmd := &cli.Command{
		Name:   "opt",
		Action: optAct,
		Args:   cli.Args{},
	}

	app := &cli.Command{
		Name:        "yulopt",
		Description: "yulopt formats and optimizes yul source code",
		Commands: []*cli.Command{
			fmtCmd,
			optCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func fmtAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		out, err := compiler.FormatFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		fmt.Printf("%s", out)
	}

	return nil
}

func optAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		out, err := compiler.OptimizeFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "optimize %v", a)
		}

		fmt.Printf("%s", out)
	}

	return nil
}
