package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/decl/decl/config"
	"github.com/decl/decl/eval"
)

var graphCommand = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Print the reference graph in DOT format",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runGraph(cmd, targetArg(args))
	},
}

func init() {
	cmd.AddCommand(graphCommand)
}

func runGraph(cmd *cobra.Command, arg string) {
	ctx := signalContext(context.Background())
	l := &config.Loader{}

	tgt, err := resolveTarget(arg)
	if err != nil {
		fatal(err)
	}

	mod, diags := loadModule(ctx, l, tgt.dir)
	var dot []byte
	if mod != nil {
		ev := &eval.Evaluator{Log: newLogger(cmd)}
		g, graphDiags := ev.Graph(mod)
		diags = append(diags, graphDiags...)
		if !diags.HasErrors() {
			dot, err = g.DOT(tgt.name)
			if err != nil {
				fatal(err)
			}
		}
	}

	l.WriteDiagnostics(os.Stderr, diags)
	if diags.HasErrors() {
		os.Exit(1)
	}
	fmt.Printf("%s\n", dot)
}
