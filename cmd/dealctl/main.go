// Package main is the entry point for dealctl, the command line companion
// of the deals dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/aristath/coinvest/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cli.SetVersionInfo(version, commit)
	if err := cli.NewRootCmd(cli.DefaultLoader).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
