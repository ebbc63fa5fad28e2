package main

import (
	"fmt"
	"os"

	"github.com/iobroker-community/docrag/internal/docrag"
)

func runConfig(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "config requires a subcommand: init")
		return 1
	}
	switch args[0] {
	case "init":
		path, err := docrag.WriteDefaultConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("config: %s\n", path)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown config subcommand: %s\n", args[0])
		return 1
	}
}
