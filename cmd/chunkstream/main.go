// Package main is the entry point for the chunkstream binary.
package main

import (
	"os"

	cli "chunkstream/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
