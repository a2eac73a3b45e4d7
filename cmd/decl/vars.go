package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/spf13/cobra"

	"github.com/decl/decl/config"
	"github.com/decl/decl/vars"
)

var varsCommand = &cobra.Command{
	Use:   "vars [dir]",
	Short: "List declared variables and their resolved values",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runVars(cmd, targetArg(args))
	},
}

func init() {
	addVarFlags(varsCommand)
	cmd.AddCommand(varsCommand)
}

func runVars(cmd *cobra.Command, arg string) {
	ctx := signalContext(context.Background())
	l := &config.Loader{}

	tgt, err := resolveTarget(arg)
	if err != nil {
		fatal(err)
	}

	mod, diags := loadModule(ctx, l, tgt.dir)
	if mod == nil {
		l.WriteDiagnostics(os.Stderr, diags)
		os.Exit(1)
	}

	opts, err := varOptions(cmd, tgt.dir)
	if err != nil {
		fatal(err)
	}
	r := &vars.Resolver{Loader: l, EnvPrefix: tgt.prefix}
	resolved, varDiags := r.Resolve(mod, opts)
	diags = append(diags, varDiags...)

	// Resolution problems are reported but do not suppress the listing;
	// the point of the command is to inspect the declarations.
	l.WriteDiagnostics(os.Stderr, diags)

	names := make([]string, 0, len(mod.Variables))
	for name := range mod.Variables {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tSENSITIVE\tRULES\tVALUE\tSOURCE")
	for _, name := range names {
		v := mod.Variables[name]

		sensitive := ""
		if v.Sensitive {
			sensitive = "yes"
		}

		value, source := "-", "-"
		if res, ok := resolved[name]; ok {
			value = renderValue(res.Value, v.Sensitive)
			source = res.SourceName
		} else if v.Required() {
			source = "(required)"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			name, typeexpr.TypeString(v.ConstraintType()), sensitive, len(v.Validations), value, source)
	}
	if err := w.Flush(); err != nil {
		fatal(err)
	}
}
