// Package main is the entry point for the menucost CLI.
package main

import (
	"os"

	"menucost/cmd/menucost/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
