package main

import (
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newLogger builds the logger handed to the evaluator. Logging is off
// unless --debug is set.
func newLogger(cmd *cobra.Command) *zap.Logger {
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		panic(err)
	}
	if !debug {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("Build logger: %v", err)
	}
	return logger
}
