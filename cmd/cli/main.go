// Package main is the entry point for the tq CLI binary.
package main

import (
	"os"

	cli "tierquery/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
