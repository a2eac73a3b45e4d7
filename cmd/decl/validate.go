package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/decl/decl/config"
	"github.com/decl/decl/eval"
	"github.com/decl/decl/vars"
)

var validateCommand = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check configuration for errors without evaluating it",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runValidate(cmd, targetArg(args))
	},
}

func init() {
	addVarFlags(validateCommand)
	cmd.AddCommand(validateCommand)
}

func runValidate(cmd *cobra.Command, arg string) {
	ctx := signalContext(context.Background())
	l := &config.Loader{}

	tgt, err := resolveTarget(arg)
	if err != nil {
		fatal(err)
	}

	mod, diags := loadModule(ctx, l, tgt.dir)
	if mod != nil {
		opts, err := varOptions(cmd, tgt.dir)
		if err != nil {
			fatal(err)
		}
		r := &vars.Resolver{Loader: l, EnvPrefix: tgt.prefix}
		_, varDiags := r.Resolve(mod, opts)
		diags = append(diags, varDiags...)

		ev := &eval.Evaluator{Log: newLogger(cmd)}
		g, graphDiags := ev.Graph(mod)
		diags = append(diags, graphDiags...)
		if !graphDiags.HasErrors() {
			_, orderDiags := ev.Order(g, mod)
			diags = append(diags, orderDiags...)
		}
	}

	l.WriteDiagnostics(os.Stderr, diags)
	if diags.HasErrors() {
		os.Exit(1)
	}
	fmt.Printf("Configuration is valid: %d variables, %d resources, %d outputs.\n",
		len(mod.Variables), len(mod.Resources), len(mod.Outputs))
}
