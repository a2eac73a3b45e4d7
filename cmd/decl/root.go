package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/decl/decl/config"
)

var rootCommand = &cobra.Command{
	Use:   "root [dir]",
	Short: "Print module root directory",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir, err := config.Root(targetArg(args))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if dir == "" {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Fprintln(os.Stderr, "Project not found")
			fmt.Fprintf(os.Stderr, "Set up a new project with %s\n", green("decl init"))
			os.Exit(2)
		}
		fmt.Println(dir)
	},
}

func init() {
	cmd.AddCommand(rootCommand)
}
