// Package main provides the duckmcp CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/lab1702/duckmcp/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
