// Package main is the entry point for the curricc CLI.
package main

import (
	"os"

	"github.com/notatio-labs/curricc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
