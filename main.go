// Package main is the entry point for the Jifa CLI.
package main

import (
	"jifa/cli/cmd"
)

func main() {
	cmd.Execute()
}
