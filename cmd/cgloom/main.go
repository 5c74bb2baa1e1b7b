// Package main provides the entry point for the cgloom CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/jcalabro/cgloom/cmd/cgloom/commands"
)

func main() {
	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
