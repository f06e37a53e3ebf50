// Package main is the entry point for the cargo-upgrade CLI.
package main

import "github.com/wexinc/cargo-upgrade/cmd/cargo-upgrade/cmd"

// Version information, set by build flags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.Date = date
	cmd.Execute()
}
