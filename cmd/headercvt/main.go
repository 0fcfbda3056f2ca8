// Package main is the entry point for the headercvt CLI tool.
package main

import (
	"github.com/hargabyte/headercvt/internal/cmd"
)

func main() {
	cmd.Execute()
}
