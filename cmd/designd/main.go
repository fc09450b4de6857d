// Package main provides the entry point for the design session server.
package main

import (
	"fmt"
	"os"

	"github.com/prompt2figma/designd/cmd/designd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
