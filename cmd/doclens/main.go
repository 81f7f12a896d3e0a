// Package main is the entry point for the doclens CLI tool.
package main

import (
	"github.com/doclens/doclens/internal/cmd"
)

func main() {
	cmd.Execute()
}
