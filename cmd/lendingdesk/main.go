// Package main is the entry point for the LendingDesk front-desk CLI.
package main

import "github.com/calliard/lendingdesk/internal/app"

// version is set at build time via ldflags.
var version = "dev"

func main() {
	app.SetVersion(version)
	app.Execute()
}
