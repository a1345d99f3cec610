package main

import (
	"fmt"
	"os"

	"req-oracle/cmd/req-oracle/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
