package main

import (
	"context"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/spf13/cobra"

	"github.com/decl/decl/config"
	"github.com/decl/decl/lang"
	"github.com/decl/decl/vars"
)

// A target names the module a command acts on: its directory, its name and
// the environment prefix for variable values.
type target struct {
	dir    string
	name   string
	prefix string
}

// resolveTarget locates the module for a command argument. When a
// .decl/project marker is found in the directory or one of its parents,
// the project root and settings are used; otherwise the directory itself
// is the module and its base name names it.
func resolveTarget(arg string) (target, error) {
	p, err := config.FindProject(arg)
	if err != nil {
		return target{}, err
	}
	if p != nil {
		return target{dir: p.RootDir, name: p.Name, prefix: p.EnvPrefix}, nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return target{}, err
	}
	return target{dir: abs, name: filepath.Base(abs), prefix: config.DefaultEnvPrefix}, nil
}

// loadModule loads and decodes the configuration under dir. The returned
// diagnostics may contain warnings even when the module is non-nil.
func loadModule(ctx context.Context, l *config.Loader, dir string) (*lang.Module, hcl.Diagnostics) {
	files, diags := l.LoadDir(ctx, dir)
	if diags.HasErrors() {
		return nil, diags
	}
	mod, decodeDiags := lang.DecodeModule(files)
	diags = append(diags, decodeDiags...)
	if diags.HasErrors() {
		return nil, diags
	}
	return mod, diags
}

// addVarFlags registers the variable value flags shared by the commands
// that resolve values.
func addVarFlags(c *cobra.Command) {
	c.Flags().StringArray("var", nil, "Set a variable, NAME=VALUE. May be repeated.")
	c.Flags().StringArray("var-file", nil, "Load values from a variable file. May be repeated.")
}

// varOptions collects the variable value inputs for one resolution.
func varOptions(cmd *cobra.Command, dir string) (vars.Options, error) {
	values, err := cmd.Flags().GetStringArray("var")
	if err != nil {
		return vars.Options{}, err
	}
	files, err := cmd.Flags().GetStringArray("var-file")
	if err != nil {
		return vars.Options{}, err
	}
	return vars.Options{Dir: dir, Files: files, CLI: values}, nil
}

func targetArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
