package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/decl/decl/snapshot"
)

var snapshotsCommand = &cobra.Command{
	Use:     "snapshots",
	Aliases: []string{"snap"},
	Short:   "Manage stored evaluation snapshots",
}

var snapshotsListCommand = &cobra.Command{
	Use:   "list",
	Short: "List snapshots",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSnapshotsList(cmd); err != nil {
			fatal(err)
		}
	},
}

var snapshotsShowCommand = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one snapshot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSnapshotsShow(cmd, args[0]); err != nil {
			fatal(err)
		}
	},
}

var snapshotsDiffCommand = &cobra.Command{
	Use:   "diff [old-id [new-id]]",
	Short: "Compare two snapshots",
	Long: "Compare two snapshots. With no arguments the two most recent\n" +
		"snapshots are compared, with one argument that snapshot is compared\n" +
		"against the most recent one.",
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSnapshotsDiff(cmd, args); err != nil {
			fatal(err)
		}
	},
}

var snapshotsDeleteCommand = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one snapshot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSnapshotsDelete(cmd, args[0]); err != nil {
			fatal(err)
		}
	},
}

func init() {
	snapshotsCommand.PersistentFlags().String("module", "", "Module name (default: the project around the working directory)")
	snapshotsCommand.PersistentFlags().String("db", "", "Snapshot database file (default ~/.decl/snapshots.db)")

	snapshotsCommand.AddCommand(snapshotsListCommand)
	snapshotsCommand.AddCommand(snapshotsShowCommand)
	snapshotsCommand.AddCommand(snapshotsDiffCommand)
	snapshotsCommand.AddCommand(snapshotsDeleteCommand)
	cmd.AddCommand(snapshotsCommand)
}

// snapshotModule returns the module name the snapshot commands act on.
func snapshotModule(cmd *cobra.Command) (string, error) {
	name, err := cmd.Flags().GetString("module")
	if err != nil {
		return "", err
	}
	if name != "" {
		return name, nil
	}
	tgt, err := resolveTarget(".")
	if err != nil {
		return "", err
	}
	return tgt.name, nil
}

func runSnapshotsList(cmd *cobra.Command) (err error) {
	module, err := snapshotModule(cmd)
	if err != nil {
		return err
	}
	st, done, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, done())
	}()

	snaps, err := st.List(signalContext(context.Background()), module)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Printf("No snapshots for module %s\n", module)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTAKEN\tRESOURCES\tOUTPUTS")
	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n",
			s.ID, s.Taken.Format(time.RFC3339), len(s.Resources), len(s.Outputs))
	}
	return w.Flush()
}

func runSnapshotsShow(cmd *cobra.Command, id string) (err error) {
	module, err := snapshotModule(cmd)
	if err != nil {
		return err
	}
	st, done, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, done())
	}()

	s, err := st.Get(signalContext(context.Background()), module, id)
	if err != nil {
		return errors.Wrapf(err, "snapshot %s", id)
	}

	fmt.Printf("Snapshot %s\n", s.ID)
	fmt.Printf("  Module: %s\n", s.Module)
	fmt.Printf("  Taken:  %s\n", s.Taken.Format(time.RFC3339))
	printEntries("Resources", s.Resources)
	printEntries("Outputs", s.Outputs)
	return nil
}

func printEntries(heading string, entries map[string]snapshot.Entry) {
	if len(entries) == 0 {
		return
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%s:\n", heading)
	for _, name := range names {
		e := entries[name]
		if e.Sensitive {
			fmt.Printf("  %s = (sensitive)\n", name)
			continue
		}
		fmt.Printf("  %s = %s\n", name, e.Value)
	}
}

func runSnapshotsDiff(cmd *cobra.Command, args []string) (err error) {
	module, err := snapshotModule(cmd)
	if err != nil {
		return err
	}
	st, done, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, done())
	}()

	ctx := signalContext(context.Background())

	var oldSnap, newSnap *snapshot.Snap
	switch len(args) {
	case 2:
		if oldSnap, err = st.Get(ctx, module, args[0]); err != nil {
			return errors.Wrapf(err, "snapshot %s", args[0])
		}
		if newSnap, err = st.Get(ctx, module, args[1]); err != nil {
			return errors.Wrapf(err, "snapshot %s", args[1])
		}
	case 1:
		if oldSnap, err = st.Get(ctx, module, args[0]); err != nil {
			return errors.Wrapf(err, "snapshot %s", args[0])
		}
		if newSnap, err = st.Latest(ctx, module); err != nil {
			return err
		}
	default:
		var snaps []*snapshot.Snap
		if snaps, err = st.List(ctx, module); err != nil {
			return err
		}
		if len(snaps) < 2 {
			return errors.Errorf("module %s has %d snapshot(s), need two to compare", module, len(snaps))
		}
		oldSnap, newSnap = snaps[len(snaps)-2], snaps[len(snaps)-1]
	}

	changes := snapshot.Diff(oldSnap, newSnap)
	fmt.Printf("Comparing %s -> %s\n", oldSnap.ID, newSnap.ID)
	if changes.Empty() {
		fmt.Println("No changes.")
		return nil
	}
	for _, addr := range changes.Added {
		fmt.Printf("+ %s\n", addr)
	}
	for _, addr := range changes.Removed {
		fmt.Printf("- %s\n", addr)
	}
	for _, addr := range changes.Changed {
		fmt.Printf("~ %s\n", addr)
	}
	return nil
}

func runSnapshotsDelete(cmd *cobra.Command, id string) (err error) {
	module, err := snapshotModule(cmd)
	if err != nil {
		return err
	}
	st, done, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, done())
	}()

	if err := st.Delete(signalContext(context.Background()), module, id); err != nil {
		return errors.Wrapf(err, "snapshot %s", id)
	}
	fmt.Printf("Deleted snapshot %s\n", id)
	return nil
}
