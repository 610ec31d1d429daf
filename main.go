// Package main is the entry point for the copilot-pr-metrics CLI.
package main

import (
	"fmt"
	"os"

	"github.com/aki-fujii/copilot-pr-metrics/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
