// Package main is the entry point of the fieldlineage CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/fieldlineage/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
