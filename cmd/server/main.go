// Package main is the entry point for the bizops API. It serves the internal
// HTTP surface and the daily generation sweep, applies migrations and runs
// one-off batch sweeps.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
