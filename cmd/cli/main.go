// Package main is the entry point for the taxmap CLI.
package main

import (
	"os"

	"taxmap/cmd/cli/cmd"
	"taxmap/internal/logging"
)

func main() {
	err := cmd.Execute()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}
