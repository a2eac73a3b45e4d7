package main

import (
	"github.com/spf13/cobra"

	"github.com/decl/decl/snapshot"
	"github.com/decl/decl/storage/boltkv"
)

// openStore opens the snapshot store named by the --db flag, or the
// default database under the user's home directory. The returned close
// function must be called to release the database.
func openStore(cmd *cobra.Command) (*snapshot.Store, func() error, error) {
	file, err := cmd.Flags().GetString("db")
	if err != nil {
		return nil, nil, err
	}
	var db *boltkv.DB
	if file == "" {
		db, err = boltkv.New()
	} else {
		db, err = boltkv.NewWithFile(file)
	}
	if err != nil {
		return nil, nil, err
	}
	return &snapshot.Store{Backend: db}, db.Close, nil
}
