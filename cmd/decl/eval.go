package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/decl/decl/config"
	"github.com/decl/decl/eval"
	"github.com/decl/decl/snapshot"
	"github.com/decl/decl/vars"
)

var evalCommand = &cobra.Command{
	Use:   "eval [dir]",
	Short: "Evaluate configuration and print outputs",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runEval(cmd, targetArg(args))
	},
}

func init() {
	addVarFlags(evalCommand)
	evalCommand.Flags().Bool("save", false, "Persist a snapshot of the result")
	evalCommand.Flags().String("db", "", "Snapshot database file (default ~/.decl/snapshots.db)")
	cmd.AddCommand(evalCommand)
}

func runEval(cmd *cobra.Command, arg string) {
	ctx := signalContext(context.Background())
	l := &config.Loader{}

	tgt, err := resolveTarget(arg)
	if err != nil {
		fatal(err)
	}

	mod, diags := loadModule(ctx, l, tgt.dir)
	var result *eval.Result
	if mod != nil {
		opts, err := varOptions(cmd, tgt.dir)
		if err != nil {
			fatal(err)
		}
		r := &vars.Resolver{Loader: l, EnvPrefix: tgt.prefix}
		resolved, varDiags := r.Resolve(mod, opts)
		diags = append(diags, varDiags...)
		if !varDiags.HasErrors() {
			ev := &eval.Evaluator{Log: newLogger(cmd)}
			res, evalDiags := ev.Eval(mod, vars.Values(resolved))
			diags = append(diags, evalDiags...)
			result = res
		}
	}

	l.WriteDiagnostics(os.Stderr, diags)
	if diags.HasErrors() || result == nil {
		os.Exit(1)
	}

	printOutputs(result)

	save, err := cmd.Flags().GetBool("save")
	if err != nil {
		panic(err)
	}
	if save {
		if err := saveSnapshot(ctx, cmd, tgt.name, result); err != nil {
			fatal(err)
		}
	}
}

func printOutputs(res *eval.Result) {
	names := make([]string, 0, len(res.Outputs))
	for name := range res.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out := res.Outputs[name]
		fmt.Printf("%s = %s\n", name, renderValue(out.Value, out.Sensitive))
	}
}

func saveSnapshot(ctx context.Context, cmd *cobra.Command, module string, res *eval.Result) (err error) {
	snap, err := snapshot.Take(module, res)
	if err != nil {
		return errors.Wrap(err, "take snapshot")
	}
	st, done, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, done())
	}()
	if err := st.Put(ctx, snap); err != nil {
		return err
	}
	fmt.Printf("Saved snapshot %s\n", snap.ID)
	return nil
}
