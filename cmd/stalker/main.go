package main

import (
	"fmt"
	"os"

	"github.com/example/stalker/internal/cli"
)

func main() {
	rootCmd := cli.RootCmd()

	if err := rootCmd.Execute(); err != nil {
		// outcomes from the core have already been reported
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
