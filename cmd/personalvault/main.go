// Package main provides the entry point for the personalvault CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/personalvault/cmd/personalvault/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
