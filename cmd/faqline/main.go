// Package main provides the entry point for the faqline CLI.
package main

import (
	"os"

	"github.com/faqline/faqline/cmd/faqline/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
