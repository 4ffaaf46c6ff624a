// Package main is the entry point for the lossrange risk engine CLI.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		// Failures can happen before the logger exists, so report on
		// stderr directly.
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
