package main

import (
	"fmt"
	"os"

	"github.com/marmos91/propstream/cmd/propstream/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "propstream:", err)
		os.Exit(1)
	}
}
