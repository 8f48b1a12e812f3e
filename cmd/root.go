package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/brewsignal/brewsignal/internal/build"
)

// CleanupFunc is run after every command finishes.
type CleanupFunc func() error

var cleanup []CleanupFunc

// AddCleanup registers f to run after the command finishes.
func AddCleanup(f func()) {
	cleanup = append(cleanup, func() error {
		f()
		return nil
	})
}

// RootCommand is the root [cobra.Command] of the brewsignal CLI.
var RootCommand = &cobra.Command{
	Use:     "brewsignal",
	Short:   "Bridge BrewSignal hydrometer readings to MQTT",
	Version: build.Version(),
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		for _, f := range cleanup {
			f()
		}
	},
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
}

func init() {
	RootCommand.AddGroup(
		&cobra.Group{ID: "commands", Title: "Commands:"},
	)
}

func main() {
	if c, err := RootCommand.ExecuteC(); err != nil {
		if exit, ok := err.(*ExitError); ok {
			os.Exit(exit.Code)
		}

		c.PrintErrln("Error:", err)
		c.Usage()
		os.Exit(1)
	}
}
