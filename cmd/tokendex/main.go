// Package main provides the entry point for the tokendex CLI.
package main

import (
	"os"

	"github.com/tokendex/tokendex/cmd/tokendex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
